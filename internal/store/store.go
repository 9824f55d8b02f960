// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/droptap/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for session history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Sessions from concurrent SSH and WebSocket players share one writer.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			outcome TEXT NOT NULL,
			score INTEGER NOT NULL,
			goal INTEGER NOT NULL,
			remaining_seconds INTEGER NOT NULL,
			spawned INTEGER NOT NULL,
			good_hits INTEGER NOT NULL,
			bad_hits INTEGER NOT NULL,
			expired_good INTEGER NOT NULL,
			expired_bad INTEGER NOT NULL,
			best_streak INTEGER NOT NULL,
			peak_multiplier INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_difficulty ON sessions(difficulty);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a completed session and returns its id.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (started_at, ended_at, difficulty, outcome, score, goal, remaining_seconds,
			spawned, good_hits, bad_hits, expired_good, expired_bad, best_streak, peak_multiplier, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.EndedAt.Format(time.RFC3339Nano),
		rec.Difficulty,
		rec.Outcome,
		rec.Score,
		rec.Goal,
		rec.RemainingSeconds,
		rec.Spawned,
		rec.GoodHits,
		rec.BadHits,
		rec.ExpiredGood,
		rec.ExpiredBad,
		rec.BestStreak,
		rec.PeakMultiplier,
		rec.DurationMs,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListSessions returns sessions filtered by stats config, oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionRecord, error) {
	where, args := filterClause(cfg)
	query := fmt.Sprintf(`SELECT id, started_at, ended_at, difficulty, outcome, score, goal, remaining_seconds,
			spawned, good_hits, bad_hits, expired_good, expired_bad, best_streak, peak_multiplier, duration_ms
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionRecord
	for rows.Next() {
		var rec model.SessionRecord
		var startedAt, endedAt string
		if err := rows.Scan(&rec.ID, &startedAt, &endedAt, &rec.Difficulty, &rec.Outcome, &rec.Score, &rec.Goal,
			&rec.RemainingSeconds, &rec.Spawned, &rec.GoodHits, &rec.BadHits, &rec.ExpiredGood, &rec.ExpiredBad,
			&rec.BestStreak, &rec.PeakMultiplier, &rec.DurationMs); err != nil {
			return nil, err
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if rec.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	return sessions, nil
}

// ListDifficultyAggregates summarizes sessions per difficulty.
func (s *Store) ListDifficultyAggregates(ctx context.Context, cfg model.StatsConfig) ([]model.DifficultyAggregate, error) {
	where, args := filterClause(cfg)
	query := fmt.Sprintf(`SELECT difficulty, COUNT(*), SUM(CASE WHEN outcome = 'win' THEN 1 ELSE 0 END),
			MAX(score), SUM(score), SUM(good_hits), SUM(bad_hits), MAX(best_streak)
		FROM sessions
		WHERE %s
		GROUP BY difficulty
		ORDER BY difficulty`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.DifficultyAggregate
	for rows.Next() {
		var agg model.DifficultyAggregate
		if err := rows.Scan(&agg.Difficulty, &agg.Sessions, &agg.Wins, &agg.BestScore, &agg.TotalScore,
			&agg.GoodHits, &agg.BadHits, &agg.BestStreak); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func filterClause(cfg model.StatsConfig) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Difficulty != "" {
		clauses = append(clauses, "difficulty = ? COLLATE NOCASE")
		args = append(args, cfg.Difficulty)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	return strings.Join(clauses, " AND "), args
}
