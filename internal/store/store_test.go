package store

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/verte-zerg/droptap/internal/game"
	"github.com/verte-zerg/droptap/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "droptap.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func sampleRecord(i int, difficulty, outcome string, score int) model.SessionRecord {
	start := time.Unix(0, 0).UTC().Add(time.Duration(i) * time.Minute)
	end := start.Add(20 * time.Second)
	return model.SessionRecord{
		StartedAt:      start,
		EndedAt:        end,
		Difficulty:     difficulty,
		Outcome:        outcome,
		Score:          score,
		Goal:           15,
		Spawned:        30,
		GoodHits:       score,
		BadHits:        2,
		BestStreak:     score / 2,
		PeakMultiplier: 2,
		DurationMs:     end.Sub(start).Milliseconds(),
	}
}

func TestInsertAndListSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	recs := []model.SessionRecord{
		sampleRecord(0, "Normal", "lose", 9),
		sampleRecord(1, "Hard", "win", 20),
		sampleRecord(2, "Normal", "win", 16),
	}
	for _, rec := range recs {
		if _, err := st.InsertSession(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	all, err := st.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(all))
	}
	if all[0].Score != 9 || all[2].Score != 16 {
		t.Fatalf("unexpected order: %+v", all)
	}
	if !all[1].StartedAt.Equal(recs[1].StartedAt) || all[1].DurationMs != 20000 {
		t.Fatalf("unexpected round trip: %+v", all[1])
	}

	normal, err := st.ListSessions(ctx, model.StatsConfig{Difficulty: "normal"})
	if err != nil {
		t.Fatalf("list normal: %v", err)
	}
	if len(normal) != 2 {
		t.Fatalf("expected 2 normal sessions, got %d", len(normal))
	}

	last, err := st.ListSessions(ctx, model.StatsConfig{Last: 1})
	if err != nil {
		t.Fatalf("list last: %v", err)
	}
	if len(last) != 1 || last[0].Score != 16 {
		t.Fatalf("unexpected last session: %+v", last)
	}

	since := recs[1].EndedAt
	recent, err := st.ListSessions(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent sessions, got %d", len(recent))
	}
}

func TestListDifficultyAggregates(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	for i, rec := range []model.SessionRecord{
		sampleRecord(0, "Normal", "lose", 9),
		sampleRecord(1, "Normal", "win", 16),
		sampleRecord(2, "Hard", "win", 21),
	} {
		if _, err := st.InsertSession(ctx, rec); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	aggs, err := st.ListDifficultyAggregates(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	if len(aggs) != 2 {
		t.Fatalf("expected 2 difficulties, got %d", len(aggs))
	}
	normal := aggs[1]
	if normal.Difficulty != "Normal" || normal.Sessions != 2 || normal.Wins != 1 || normal.BestScore != 16 || normal.TotalScore != 25 {
		t.Fatalf("unexpected normal aggregate: %+v", normal)
	}
}

func TestRecorderSavesEndedSession(t *testing.T) {
	st := openTestStore(t)
	var saved []model.SessionRecord
	rec := NewRecorder(st, log.New(io.Discard), func(r model.SessionRecord) { saved = append(saved, r) })

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec.OnSessionEnded(game.Result{
		Outcome:          game.Win,
		FinalScore:       15,
		Profile:          "Normal",
		Goal:             15,
		RemainingSeconds: 7,
		StartedAt:        start,
		EndedAt:          start.Add(23 * time.Second),
		Tally:            game.Tally{Spawned: 33, GoodHits: 13, BadHits: 1, BestStreak: 9, PeakMultiplier: 2},
	})

	if len(saved) != 1 || saved[0].ID == 0 {
		t.Fatalf("expected saved record with id, got %+v", saved)
	}
	sessions, err := st.ListSessions(context.Background(), model.StatsConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	got := sessions[0]
	if !got.Won() || got.Score != 15 || got.DurationMs != 23000 || got.BestStreak != 9 || got.RemainingSeconds != 7 {
		t.Fatalf("unexpected record: %+v", got)
	}
}
