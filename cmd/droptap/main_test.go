package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/droptap/internal/config"
	"github.com/verte-zerg/droptap/internal/game"
	"github.com/verte-zerg/droptap/internal/model"
	"github.com/verte-zerg/droptap/internal/profile"
)

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("template should decode: %v", err)
	}
	if cfg.Play.Difficulty != nil || len(cfg.Profiles) != 0 {
		t.Fatalf("template should leave everything unset: %+v", cfg)
	}
}

func TestValidateConfig(t *testing.T) {
	reg := profile.Builtin()
	valid := model.Config{Difficulty: "hard", DropTTL: 3500 * time.Millisecond, FallDuration: 3 * time.Second}
	if err := validateConfig(valid, reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name string
		mod  func(*model.Config)
		want string
	}{
		{"unknown difficulty", func(c *model.Config) { c.Difficulty = "nightmare" }, "--difficulty"},
		{"zero ttl", func(c *model.Config) { c.DropTTL = 0 }, "--drop-ttl"},
		{"zero fall", func(c *model.Config) { c.FallDuration = 0 }, "--fall must be > 0"},
		{"fall past ttl", func(c *model.Config) { c.FallDuration = 4 * time.Second }, "must not exceed"},
	}
	for _, tc := range cases {
		cfg := valid
		tc.mod(&cfg)
		err := validateConfig(cfg, reg)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestResolveSettingPrecedence(t *testing.T) {
	fileValue := ":3000"
	newCmd := func() (*cobra.Command, *string) {
		var addr string
		cmd := &cobra.Command{Use: "test"}
		cmd.Flags().StringVar(&addr, "addr", ":2222", "")
		return cmd, &addr
	}

	cmd, addr := newCmd()
	resolveSetting(cmd, "addr", addr, "DROPTAP_TEST_ADDR", nil)
	if *addr != ":2222" {
		t.Fatalf("expected default, got %s", *addr)
	}

	cmd, addr = newCmd()
	resolveSetting(cmd, "addr", addr, "DROPTAP_TEST_ADDR", &fileValue)
	if *addr != ":3000" {
		t.Fatalf("expected config value, got %s", *addr)
	}

	t.Setenv("DROPTAP_TEST_ADDR", ":4000")
	cmd, addr = newCmd()
	resolveSetting(cmd, "addr", addr, "DROPTAP_TEST_ADDR", &fileValue)
	if *addr != ":4000" {
		t.Fatalf("expected env value, got %s", *addr)
	}

	cmd, addr = newCmd()
	if err := cmd.Flags().Set("addr", ":5000"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	resolveSetting(cmd, "addr", addr, "DROPTAP_TEST_ADDR", &fileValue)
	if *addr != ":5000" {
		t.Fatalf("expected flag value, got %s", *addr)
	}
}

func TestWSCommandSeedReachesBridge(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	prevSeed := playSeed
	t.Cleanup(func() { playSeed = prevSeed })

	cmd := newWSCmd()
	for _, name := range []string{"sound", "mouse", "fall", "difficulty"} {
		if cmd.Flags().Lookup(name) != nil {
			t.Fatalf("ws should not register --%s", name)
		}
	}
	if err := cmd.Flags().Set("seed", "42"); err != nil {
		t.Fatalf("set seed: %v", err)
	}
	cfg, _, reg, err := loadPlayConfig(cmd)
	if err != nil {
		t.Fatalf("loadPlayConfig: %v", err)
	}
	if cfg.Seed != 42 {
		t.Fatalf("expected seed 42, got %d", cfg.Seed)
	}

	opts := wsOptions(cfg, reg, nil, log.New(io.Discard))
	if opts.Random == nil {
		t.Fatalf("expected a seeded random source")
	}
	first, second := opts.Random(), opts.Random()
	want := game.NewRandomSource(42)
	for i := 0; i < 5; i++ {
		w := want.Float64()
		if got := first.Float64(); got != w {
			t.Fatalf("draw %d: expected %v, got %v", i, w, got)
		}
		if got := second.Float64(); got != w {
			t.Fatalf("draw %d: each connection should start from the seed, got %v", i, got)
		}
	}
	if opts.DropTTL != cfg.DropTTL {
		t.Fatalf("expected drop ttl %s, got %s", cfg.DropTTL, opts.DropTTL)
	}
}

func TestOpenLogFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "droptap.log")
	for _, line := range []string{"first", "second"} {
		f, err := openLogFile(path)
		if err != nil {
			t.Fatalf("openLogFile: %v", err)
		}
		newLogger(f).Error(line)
		if err := f.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "first") || !strings.Contains(string(data), "second") {
		t.Fatalf("expected both entries, got %q", data)
	}
}

type staticSource struct {
	sessions []model.SessionRecord
	aggs     []model.DifficultyAggregate
}

func (s staticSource) ListSessions(context.Context, model.StatsConfig) ([]model.SessionRecord, error) {
	return s.sessions, nil
}

func (s staticSource) ListDifficultyAggregates(context.Context, model.StatsConfig) ([]model.DifficultyAggregate, error) {
	return s.aggs, nil
}

func TestRenderPlainStats(t *testing.T) {
	src := staticSource{
		sessions: []model.SessionRecord{
			{Difficulty: "Easy", Outcome: "win", Score: 10, Goal: 10, GoodHits: 10, DurationMs: 30000},
			{Difficulty: "Easy", Outcome: "lose", Score: 4, Goal: 10, GoodHits: 5, BadHits: 1, DurationMs: 45000},
		},
		aggs: []model.DifficultyAggregate{
			{Difficulty: "Easy", Sessions: 2, Wins: 1, BestScore: 10, TotalScore: 14, GoodHits: 15, BadHits: 1},
		},
	}
	var buf bytes.Buffer
	if err := renderPlainStats(context.Background(), &buf, src, model.StatsConfig{CurveWindow: 2}); err != nil {
		t.Fatalf("renderPlainStats: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 2", "Wins: 1 (50.0%)", "Curves (window 2)", "Per-Difficulty", "Easy"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := renderPlainStats(context.Background(), &buf, staticSource{}, model.StatsConfig{CurveWindow: 2}); err != nil {
		t.Fatalf("renderPlainStats: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No sessions found." {
		t.Fatalf("unexpected empty output: %q", buf.String())
	}
}
