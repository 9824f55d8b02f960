package stats

import (
	"context"

	"github.com/verte-zerg/droptap/internal/model"
)

// Source is the read side of the session store.
type Source interface {
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionRecord, error)
	ListDifficultyAggregates(ctx context.Context, cfg model.StatsConfig) ([]model.DifficultyAggregate, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions       []model.SessionRecord
	WindowSessions []model.SessionRecord
	Difficulties   []model.DifficultyAggregate
	Summary        Summary
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, src Source, cfg model.StatsConfig) (Report, error) {
	sessions, err := src.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	aggs, err := src.ListDifficultyAggregates(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Sessions:       sessions,
		WindowSessions: lastSessions(sessions, cfg.CurveWindow),
		Difficulties:   aggs,
		Summary:        Summarize(sessions),
	}, nil
}

func lastSessions(sessions []model.SessionRecord, window int) []model.SessionRecord {
	if window <= 0 || len(sessions) <= window {
		return sessions
	}
	return sessions[len(sessions)-window:]
}
