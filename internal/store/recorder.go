package store

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/verte-zerg/droptap/internal/game"
	"github.com/verte-zerg/droptap/internal/model"
)

// RecordFromResult converts an ended session into a storable record.
func RecordFromResult(r game.Result) model.SessionRecord {
	return model.SessionRecord{
		StartedAt:        r.StartedAt,
		EndedAt:          r.EndedAt,
		Difficulty:       r.Profile,
		Outcome:          r.Outcome.String(),
		Score:            r.FinalScore,
		Goal:             r.Goal,
		RemainingSeconds: r.RemainingSeconds,
		Spawned:          r.Tally.Spawned,
		GoodHits:         r.Tally.GoodHits,
		BadHits:          r.Tally.BadHits,
		ExpiredGood:      r.Tally.ExpiredGood,
		ExpiredBad:       r.Tally.ExpiredBad,
		BestStreak:       r.Tally.BestStreak,
		PeakMultiplier:   r.Tally.PeakMultiplier,
		DurationMs:       r.EndedAt.Sub(r.StartedAt).Milliseconds(),
	}
}

// Recorder persists every ended session.
type Recorder struct {
	game.NopListener
	store  *Store
	logger *log.Logger
	saved  func(model.SessionRecord)
}

// NewRecorder returns a listener that saves results to st. onSaved, if not
// nil, is called with each stored record.
func NewRecorder(st *Store, logger *log.Logger, onSaved func(model.SessionRecord)) *Recorder {
	return &Recorder{store: st, logger: logger, saved: onSaved}
}

// OnSessionEnded implements game.Listener.
func (r *Recorder) OnSessionEnded(res game.Result) {
	rec := RecordFromResult(res)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := r.store.InsertSession(ctx, rec)
	if err != nil {
		r.logger.Error("failed to save session", "difficulty", rec.Difficulty, "err", err)
		return
	}
	rec.ID = id
	r.logger.Debug("session saved", "id", id, "outcome", rec.Outcome, "score", rec.Score)
	if r.saved != nil {
		r.saved(rec)
	}
}
