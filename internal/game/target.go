package game

import (
	"time"

	"github.com/verte-zerg/droptap/internal/clock"
)

// TargetID identifies a target within one session engine.
type TargetID int64

// Resolution is how a target left play.
type Resolution int

const (
	Unresolved Resolution = iota
	Activated
	TimedOut
	Cancelled
)

func (r Resolution) String() string {
	switch r {
	case Activated:
		return "activated"
	case TimedOut:
		return "timed-out"
	case Cancelled:
		return "cancelled"
	default:
		return "unresolved"
	}
}

// Target is one spawned drop. It resolves exactly once.
type Target struct {
	ID         TargetID
	Kind       Kind
	SpawnedAt  time.Time
	resolution Resolution
	timeout    clock.Timer
}

// Resolve moves the target to r. It reports false, changing nothing, when the
// target was already resolved or r is not a terminal resolution.
func (t *Target) Resolve(r Resolution) bool {
	if t.resolution != Unresolved || r == Unresolved {
		return false
	}
	t.resolution = r
	if t.timeout != nil {
		t.timeout.Stop()
		t.timeout = nil
	}
	return true
}

// Resolved reports whether the target has left play.
func (t *Target) Resolved() bool {
	return t.resolution != Unresolved
}

// Resolution returns the terminal resolution, or Unresolved.
func (t *Target) Resolution() Resolution {
	return t.resolution
}
