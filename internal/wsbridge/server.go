// Package wsbridge exposes the game over WebSocket. Each connection owns one
// session driven by its own loop goroutine.
package wsbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/verte-zerg/droptap/internal/clock"
	"github.com/verte-zerg/droptap/internal/game"
	"github.com/verte-zerg/droptap/internal/profile"
	"github.com/verte-zerg/droptap/internal/store"
)

const (
	frameInterval = 50 * time.Millisecond
	pingInterval  = 25 * time.Second
	pongWait      = 60 * time.Second
	writeWait     = 10 * time.Second
	readLimit     = 4 << 10
)

// Options configures a Server.
type Options struct {
	Addr     string
	Registry *profile.Registry
	// Store may be nil, in which case results are not saved.
	Store   *store.Store
	Logger  *log.Logger
	DropTTL time.Duration
	// Random returns the spawn randomness for a new connection. Nil uses a
	// time-seeded source.
	Random func() game.RandomSource
}

// Server accepts WebSocket players on /play.
type Server struct {
	opts     Options
	logger   *log.Logger
	upgrader websocket.Upgrader
	http     *http.Server
	ctx      context.Context
	cancel   context.CancelFunc
}

// New builds a Server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Registry == nil {
		opts.Registry = profile.Builtin()
	}
	if opts.Random == nil {
		opts.Random = func() game.RandomSource { return game.NewRandomSource(0) }
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:   opts,
		logger: opts.Logger,
		upgrader: websocket.Upgrader{
			// Browser clients are served from anywhere.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		ctx:    ctx,
		cancel: cancel,
	}
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler serving /play.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/play", s.handlePlay)
	return mux
}

// ListenAndServe listens on the configured address until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("starting websocket server", "addr", s.opts.Addr, "endpoint", "/play")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket server: %w", err)
	}
	return nil
}

// Shutdown stops the listener and ends every open connection.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down websocket server")
	s.cancel()
	return s.http.Shutdown(ctx)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()
	logger := s.logger.With("remote", r.RemoteAddr)
	logger.Info("player connected")
	c := s.newConn(ws, logger)
	if err := c.run(s.ctx); err != nil {
		logger.Info("player disconnected", "err", err)
		return
	}
	logger.Info("player disconnected")
}

type conn struct {
	game.NopListener
	ws      *websocket.Conn
	logger  *log.Logger
	clock   *clock.Manual
	session *game.Session
	pending []any
}

func (s *Server) newConn(ws *websocket.Conn, logger *log.Logger) *conn {
	c := &conn{
		ws:     ws,
		logger: logger,
		clock:  clock.NewManual(time.Now()),
	}
	listeners := game.Listeners{c}
	if s.opts.Store != nil {
		listeners = append(listeners, store.NewRecorder(s.opts.Store, logger, nil))
	}
	c.session = game.NewSession(game.Options{
		Registry:  s.opts.Registry,
		Scheduler: c.clock,
		Random:    s.opts.Random(),
		Listener:  listeners,
		DropTTL:   s.opts.DropTTL,
	})
	return c
}

// run owns the session until the client goes away or ctx is cancelled. Only
// this goroutine touches the session or writes to the socket.
func (c *conn) run(ctx context.Context) error {
	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	intents := make(chan []byte, 16)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go c.readLoop(intents, readErr, done)

	frame := time.NewTicker(frameInterval)
	defer frame.Stop()
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	c.pushState()
	for {
		if err := c.flush(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return nil
		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		case raw := <-intents:
			c.handle(raw)
		case t := <-frame.C:
			c.clock.AdvanceTo(t)
		case <-ping.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}

func (c *conn) readLoop(intents chan<- []byte, readErr chan<- error, done <-chan struct{}) {
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			readErr <- err
			return
		}
		select {
		case intents <- msg:
		case <-done:
			return
		}
	}
}

func (c *conn) handle(raw []byte) {
	var in Intent
	if err := json.Unmarshal(raw, &in); err != nil {
		c.push(errorEvent{Type: "error", Message: "invalid message"})
		return
	}
	switch in.Type {
	case IntentStart:
		c.session.StartSession(in.Profile)
	case IntentActivate:
		c.session.Activate(in.ID)
	case IntentReset:
		c.session.ResetToIdle(in.Profile)
		c.pushState()
	default:
		c.push(errorEvent{Type: "error", Message: fmt.Sprintf("unknown intent %q", in.Type)})
	}
}

func (c *conn) push(ev any) {
	c.pending = append(c.pending, ev)
}

func (c *conn) pushState() {
	st := c.session.State()
	c.push(stateEvent{
		Type:       "state",
		Phase:      st.Phase.String(),
		Profile:    st.Profile.Name,
		Remaining:  st.RemainingSeconds,
		Score:      st.Score,
		Goal:       st.Profile.ScoreGoal,
		Multiplier: st.Multiplier,
	})
}

func (c *conn) flush() error {
	for _, ev := range c.pending {
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteJSON(ev); err != nil {
			c.pending = nil
			return err
		}
	}
	c.pending = c.pending[:0]
	return nil
}

func (c *conn) OnSpawn(t *game.Target) {
	c.push(spawnEvent{Type: "spawn", ID: t.ID, Kind: t.Kind.String()})
}

func (c *conn) OnActivationResult(id game.TargetID, e game.Effect) {
	c.push(resultEvent{
		Type:       "result",
		ID:         id,
		Kind:       e.Kind.String(),
		Delta:      e.Delta,
		Score:      e.NewScore,
		Multiplier: e.NewMultiplier,
		Win:        e.TriggeredWin,
	})
}

func (c *conn) OnTargetExpired(id game.TargetID) {
	c.push(expiredEvent{Type: "expired", ID: id})
}

func (c *conn) OnTick(remaining int) {
	c.push(tickEvent{Type: "tick", Remaining: remaining})
}

func (c *conn) OnMultiplierChanged(multiplier int) {
	c.push(multiplierEvent{Type: "multiplier", Multiplier: multiplier})
}

func (c *conn) OnSessionEnded(r game.Result) {
	c.push(endedEvent{
		Type:           "ended",
		Outcome:        r.Outcome.String(),
		Score:          r.FinalScore,
		Goal:           r.Goal,
		Remaining:      r.RemainingSeconds,
		GoodHits:       r.Tally.GoodHits,
		BadHits:        r.Tally.BadHits,
		BestStreak:     r.Tally.BestStreak,
		PeakMultiplier: r.Tally.PeakMultiplier,
	})
}
