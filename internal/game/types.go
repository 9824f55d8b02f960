// Package game implements the drop-clicking session engine: targets, the
// spawner, the scoring rules and the session state machine.
package game

import (
	"time"

	"github.com/verte-zerg/droptap/internal/profile"
)

// Scoring constants.
const (
	StreakStep    = 5
	MaxMultiplier = 3
)

// Kind distinguishes drops worth points from drops that cost points.
type Kind int

const (
	Good Kind = iota
	Bad
)

func (k Kind) String() string {
	if k == Bad {
		return "bad"
	}
	return "good"
}

// Phase is the session lifecycle phase.
type Phase int

const (
	Idle Phase = iota
	Running
	Ended
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case Ended:
		return "ended"
	default:
		return "idle"
	}
}

// Outcome is the terminal result of a session.
type Outcome int

const (
	NoOutcome Outcome = iota
	Win
	Lose
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Lose:
		return "lose"
	default:
		return "none"
	}
}

// State is the mutable state of one session.
type State struct {
	Phase            Phase
	RemainingSeconds int
	Score            int
	StreakCount      int
	Multiplier       int
	Profile          profile.Profile
}

// NewState returns a fresh idle state for p.
func NewState(p profile.Profile) State {
	return State{
		Phase:            Idle,
		RemainingSeconds: p.Duration,
		Multiplier:       1,
		Profile:          p,
	}
}

// Effect describes the result of one activation for rendering. Delta is the
// nominal change: points gained, or the negated penalty for a bad hit.
type Effect struct {
	Kind          Kind
	Delta         int
	NewScore      int
	NewMultiplier int
	TriggeredWin  bool
}

// Tally counts what happened during a session.
type Tally struct {
	Spawned        int
	GoodHits       int
	BadHits        int
	ExpiredGood    int
	ExpiredBad     int
	BestStreak     int
	PeakMultiplier int
}

// Result is reported when a session ends.
type Result struct {
	Outcome          Outcome
	FinalScore       int
	Profile          string
	Goal             int
	RemainingSeconds int
	StartedAt        time.Time
	EndedAt          time.Time
	Tally            Tally
}
