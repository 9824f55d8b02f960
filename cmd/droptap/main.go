// Package main provides the CLI entrypoint for droptap.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/droptap/internal/audio"
	"github.com/verte-zerg/droptap/internal/config"
	"github.com/verte-zerg/droptap/internal/game"
	"github.com/verte-zerg/droptap/internal/model"
	"github.com/verte-zerg/droptap/internal/profile"
	"github.com/verte-zerg/droptap/internal/sshserver"
	"github.com/verte-zerg/droptap/internal/stats"
	"github.com/verte-zerg/droptap/internal/statsui"
	"github.com/verte-zerg/droptap/internal/store"
	"github.com/verte-zerg/droptap/internal/tui"
	"github.com/verte-zerg/droptap/internal/wsbridge"
)

const (
	defaultFall        = 3 * time.Second
	defaultCurveWindow = 10
	defaultSSHAddr     = ":2222"
	defaultWSAddr      = ":8080"
	shutdownTimeout    = 15 * time.Second
)

var (
	playDifficulty = profile.DefaultName
	playDropTTL    = game.DefaultDropTTL
	playFall       = defaultFall
	playSound      bool
	playMouse      = true
	playSeed       int64

	statsDifficulty  string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool

	sshAddr    string
	sshHostKey string
	wsAddr     string

	debug bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "droptap",
		Short:         "Tap the falling drops before time runs out",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}
	addSessionFlags(rootCmd)
	addScreenFlags(rootCmd)
	rootCmd.Flags().BoolVar(&playSound, "sound", false, "play sound cues")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newProfilesCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newSSHCmd())
	rootCmd.AddCommand(newWSCmd())
	return rootCmd
}

// addSessionFlags registers the settings every session host honors.
func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&playDropTTL, "drop-ttl", game.DefaultDropTTL, "how long an untapped drop stays in play")
	cmd.Flags().Int64Var(&playSeed, "seed", 0, "random seed (0 picks one)")
}

// addScreenFlags registers the settings of the terminal game screen.
func addScreenFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&playDifficulty, "difficulty", profile.DefaultName, "difficulty profile")
	cmd.Flags().DurationVar(&playFall, "fall", defaultFall, "time for a drop to reach the bottom")
	cmd.Flags().BoolVar(&playMouse, "mouse", true, "tap drops with the mouse")
}

func newLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "droptap",
		ReportTimestamp: true,
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// loadPlayConfig merges the config file into the play flags and returns the
// resulting settings and profile registry.
func loadPlayConfig(cmd *cobra.Command) (model.Config, config.FileConfig, *profile.Registry, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, config.FileConfig{}, nil, fmt.Errorf("failed to load config: %w", err)
	}
	reg, err := fileCfg.Registry()
	if err != nil {
		return model.Config{}, config.FileConfig{}, nil, err
	}
	applyStringConfig(cmd, "difficulty", &playDifficulty, fileCfg.Play.Difficulty)
	applyMillisConfig(cmd, "drop-ttl", &playDropTTL, fileCfg.Play.DropTTLMs)
	applyMillisConfig(cmd, "fall", &playFall, fileCfg.Play.FallMs)
	applyBoolConfig(cmd, "sound", &playSound, fileCfg.Play.Sound)
	applyBoolConfig(cmd, "mouse", &playMouse, fileCfg.Play.Mouse)
	applyInt64Config(cmd, "seed", &playSeed, fileCfg.Play.Seed)

	cfg := model.Config{
		Difficulty:   playDifficulty,
		DropTTL:      playDropTTL,
		FallDuration: playFall,
		Sound:        playSound,
		Mouse:        playMouse,
		Seed:         playSeed,
	}
	if err := validateConfig(cfg, reg); err != nil {
		return model.Config{}, config.FileConfig{}, nil, err
	}
	return cfg, fileCfg, reg, nil
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	cfg, _, reg, err := loadPlayConfig(cmd)
	if err != nil {
		return err
	}
	// The alt screen owns the terminal, so the game logs to a file.
	logFile, err := openLogFile(config.DefaultLogPath())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := logFile.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()
	logger := newLogger(logFile)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close db", "err", cerr)
		}
	}()

	var listeners []game.Listener
	if cfg.Sound {
		player := audio.NewPlayer(logger)
		defer player.Close()
		listeners = append(listeners, player)
	}

	m := tui.NewModel(tui.Options{
		Config:    cfg,
		Registry:  reg,
		Store:     st,
		Logger:    logger,
		Listeners: listeners,
	})
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List difficulty profiles",
		Args:  cobra.NoArgs,
		RunE:  runProfilesCmd,
	}
}

func runProfilesCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	reg, err := fileCfg.Registry()
	if err != nil {
		return err
	}
	if err := stats.RenderProfiles(cmd.OutOrStdout(), reg.List(), reg.Default().Name); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsDifficulty, "difficulty", "", "difficulty filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain report instead of the UI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}

	cfg := model.StatsConfig{
		Difficulty:  statsDifficulty,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}

	logger := newLogger(os.Stderr)
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close db", "err", cerr)
		}
	}()

	out := cmd.OutOrStdout()
	if statsPlain || !stats.IsTerminal(out) {
		return renderPlainStats(cmd.Context(), out, st, cfg)
	}

	m := statsui.NewModel(st, cfg)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newSSHCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ssh",
		Short: "Host the game over SSH",
		Args:  cobra.NoArgs,
		RunE:  runSSHCmd,
	}
	addSessionFlags(cmd)
	addScreenFlags(cmd)
	cmd.Flags().StringVar(&sshAddr, "addr", defaultSSHAddr, "listen address")
	cmd.Flags().StringVar(&sshHostKey, "host-key", config.DefaultHostKeyPath(), "host key path (generated if missing)")
	return cmd
}

func runSSHCmd(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, fileCfg, reg, err := loadPlayConfig(cmd)
	if err != nil {
		return err
	}
	resolveSetting(cmd, "addr", &sshAddr, config.EnvSSHAddr, fileCfg.Server.SSHAddr)
	resolveSetting(cmd, "host-key", &sshHostKey, config.EnvHostKey, fileCfg.Server.HostKey)
	logger := newLogger(os.Stderr)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close db", "err", cerr)
		}
	}()

	srv, err := sshserver.New(sshserver.Options{
		Addr:        sshAddr,
		HostKeyPath: sshHostKey,
		Config:      cfg,
		Registry:    reg,
		Store:       st,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	return serveUntilSignal(cmd.Context(), logger, srv.ListenAndServe, srv.Shutdown)
}

func newWSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ws",
		Short: "Host the game over WebSocket",
		Args:  cobra.NoArgs,
		RunE:  runWSCmd,
	}
	addSessionFlags(cmd)
	cmd.Flags().StringVar(&wsAddr, "addr", defaultWSAddr, "listen address")
	return cmd
}

func runWSCmd(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, fileCfg, reg, err := loadPlayConfig(cmd)
	if err != nil {
		return err
	}
	resolveSetting(cmd, "addr", &wsAddr, config.EnvWSAddr, fileCfg.Server.WSAddr)
	logger := newLogger(os.Stderr)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close db", "err", cerr)
		}
	}()

	srv := wsbridge.New(wsOptions(cfg, reg, st, logger))
	return serveUntilSignal(cmd.Context(), logger, srv.ListenAndServe, srv.Shutdown)
}

// wsOptions builds the bridge options. Each connection gets its own source
// seeded from cfg.Seed.
func wsOptions(cfg model.Config, reg *profile.Registry, st *store.Store, logger *log.Logger) wsbridge.Options {
	return wsbridge.Options{
		Addr:     wsAddr,
		Registry: reg,
		Store:    st,
		Logger:   logger,
		DropTTL:  cfg.DropTTL,
		Random: func() game.RandomSource {
			return game.NewRandomSource(cfg.Seed)
		},
	}
}

func serveUntilSignal(ctx context.Context, logger *log.Logger, serve func() error, shutdown func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- serve() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return <-errCh
}

// resolveSetting applies flag > env > config precedence. The flag default is
// kept when nothing else is set.
func resolveSetting(cmd *cobra.Command, name string, target *string, env string, value *string) {
	if cmd.Flags().Changed(name) {
		return
	}
	if v := config.GetEnv(env, ""); v != "" {
		*target = v
		return
	}
	if value != nil && *value != "" {
		*target = *value
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyMillisConfig(cmd *cobra.Command, name string, target *time.Duration, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = time.Duration(*value) * time.Millisecond
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# droptap configuration
# Uncomment a value to enable it. CLI flags override config values.

[play]
# difficulty = %q       # Easy, Normal or Hard
# drop-ttl-ms = %d        # How long an untapped drop stays in play
# fall-ms = %d            # Time for a drop to reach the bottom
# sound = false            # Play sound cues
# mouse = true             # Tap drops with the mouse
# seed = 0                 # Random seed (0 picks one)

# Override fields of a built-in profile:
# [profiles.Hard]
# duration = 20
# goal = 20
# spawn-interval-ms = 450
# good-points = 1
# bad-penalty = 2
# bad-chance = 0.35

[server]
# ssh-addr = %q
# host-key = "/path/to/host_ed25519"
# ws-addr = %q
`,
		profile.DefaultName,
		game.DefaultDropTTL.Milliseconds(),
		defaultFall.Milliseconds(),
		defaultSSHAddr,
		defaultWSAddr,
	)
}

func validateConfig(cfg model.Config, reg *profile.Registry) error {
	if _, ok := reg.Lookup(cfg.Difficulty); !ok {
		return fmt.Errorf("--difficulty must be one of: %s", strings.Join(reg.Names(), ", "))
	}
	if cfg.DropTTL <= 0 {
		return fmt.Errorf("--drop-ttl must be > 0")
	}
	if cfg.FallDuration <= 0 {
		return fmt.Errorf("--fall must be > 0")
	}
	if cfg.FallDuration > cfg.DropTTL {
		return fmt.Errorf("--fall must not exceed --drop-ttl")
	}
	return nil
}
