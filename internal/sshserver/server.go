// Package sshserver hosts the game over SSH so each connection gets its own
// session.
package sshserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"

	"github.com/verte-zerg/droptap/internal/model"
	"github.com/verte-zerg/droptap/internal/profile"
	"github.com/verte-zerg/droptap/internal/tui"
)

// Options configures a Server.
type Options struct {
	Addr        string
	HostKeyPath string
	Config      model.Config
	Registry    *profile.Registry
	Store       tui.Store
	Logger      *log.Logger
}

// Server serves one game screen per SSH session.
type Server struct {
	srv    *ssh.Server
	opts   Options
	logger *log.Logger
}

// New builds an SSH server. A missing host key is generated at HostKeyPath.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Registry == nil {
		opts.Registry = profile.Builtin()
	}
	// Sound would play on the host, not the player's machine.
	opts.Config.Sound = false

	s := &Server{opts: opts, logger: opts.Logger}
	sshOpts := []ssh.Option{
		wish.WithAddress(opts.Addr),
		wish.WithMiddleware(
			bm.Middleware(s.handler),
			activeterm.Middleware(),
			logging.MiddlewareWithLogger(opts.Logger.StandardLog()),
		),
		ssh.WrapConn(func(_ ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if opts.HostKeyPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.HostKeyPath), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create host key dir: %w", err)
		}
		sshOpts = append(sshOpts, wish.WithHostKeyPath(opts.HostKeyPath))
	}
	srv, err := wish.NewServer(sshOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ssh server: %w", err)
	}
	s.srv = srv
	return s, nil
}

// ListenAndServe listens on the configured address until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("starting ssh server", "addr", s.opts.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return fmt.Errorf("ssh server: %w", err)
	}
	return nil
}

// Serve accepts connections on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("starting ssh server", "addr", l.Addr().String())
	if err := s.srv.Serve(l); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return fmt.Errorf("ssh server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for sessions to close.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down ssh server")
	return s.srv.Shutdown(ctx)
}

func (s *Server) handler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, _ := sess.Pty()
	s.logger.Info("new game session", "user", sess.User(), "term", pty.Term,
		"width", pty.Window.Width, "height", pty.Window.Height)

	m := tui.NewModel(tui.Options{
		Config:   s.opts.Config,
		Registry: s.opts.Registry,
		Store:    s.opts.Store,
		Logger:   s.logger.With("user", sess.User()),
	})
	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if s.opts.Config.Mouse {
		progOpts = append(progOpts, tea.WithMouseCellMotion())
	}
	return m, progOpts
}
