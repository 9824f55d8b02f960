// Package model defines shared data structures.
package model

import "time"

// Config defines play settings.
type Config struct {
	Difficulty   string
	DropTTL      time.Duration
	FallDuration time.Duration
	Sound        bool
	Mouse        bool
	Seed         int64
}

// ServerConfig defines network hosting settings.
type ServerConfig struct {
	SSHAddr string
	HostKey string
	WSAddr  string
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Difficulty  string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SessionRecord captures a completed game session.
type SessionRecord struct {
	ID               int64
	StartedAt        time.Time
	EndedAt          time.Time
	Difficulty       string
	Outcome          string
	Score            int
	Goal             int
	RemainingSeconds int
	Spawned          int
	GoodHits         int
	BadHits          int
	ExpiredGood      int
	ExpiredBad       int
	BestStreak       int
	PeakMultiplier   int
	DurationMs       int64
}

// Won reports whether the session reached its goal.
func (r SessionRecord) Won() bool {
	return r.Outcome == "win"
}

// DifficultyAggregate summarizes sessions of one difficulty.
type DifficultyAggregate struct {
	Difficulty string
	Sessions   int
	Wins       int
	BestScore  int
	TotalScore int
	GoodHits   int
	BadHits    int
	BestStreak int
}
