// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/droptap/internal/profile"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Play     PlayConfig               `toml:"play"`
	Profiles map[string]ProfileConfig `toml:"profiles"`
	Server   ServerConfig             `toml:"server"`
}

// PlayConfig maps play-related settings.
type PlayConfig struct {
	Difficulty *string `toml:"difficulty"`
	DropTTLMs  *int    `toml:"drop-ttl-ms"`
	FallMs     *int    `toml:"fall-ms"`
	Sound      *bool   `toml:"sound"`
	Mouse      *bool   `toml:"mouse"`
	Seed       *int64  `toml:"seed"`
}

// ProfileConfig overrides fields of a built-in difficulty profile.
type ProfileConfig struct {
	Duration        *int     `toml:"duration"`
	Goal            *int     `toml:"goal"`
	SpawnIntervalMs *int     `toml:"spawn-interval-ms"`
	GoodPoints      *int     `toml:"good-points"`
	BadPenalty      *int     `toml:"bad-penalty"`
	BadChance       *float64 `toml:"bad-chance"`
}

// ServerConfig maps network hosting settings.
type ServerConfig struct {
	SSHAddr *string `toml:"ssh-addr"`
	HostKey *string `toml:"host-key"`
	WSAddr  *string `toml:"ws-addr"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Registry builds the profile registry with the file's overrides applied.
func (c FileConfig) Registry() (*profile.Registry, error) {
	base := profile.Builtin()
	if len(c.Profiles) == 0 {
		return base, nil
	}
	overrides := make(map[string]profile.Override, len(c.Profiles))
	for name, p := range c.Profiles {
		overrides[name] = profile.Override{
			Duration:        p.Duration,
			ScoreGoal:       p.Goal,
			SpawnIntervalMs: p.SpawnIntervalMs,
			GoodPoints:      p.GoodPoints,
			BadPenalty:      p.BadPenalty,
			BadChance:       p.BadChance,
		}
	}
	reg, err := base.WithOverrides(overrides)
	if err != nil {
		return nil, fmt.Errorf("invalid profile override: %w", err)
	}
	return reg, nil
}
