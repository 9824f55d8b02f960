// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/droptap/internal/model"
	"github.com/verte-zerg/droptap/internal/profile"
)

const sparkChars = " .:-=+*#%@"

// Metrics are per-session derived values.
type Metrics struct {
	Accuracy        float64
	PointsPerSecond float64
	GoalProgress    float64
}

// SessionMetrics computes hit accuracy, scoring rate, and goal progress.
func SessionMetrics(rec model.SessionRecord) Metrics {
	var m Metrics
	if hits := rec.GoodHits + rec.BadHits; hits > 0 {
		m.Accuracy = float64(rec.GoodHits) / float64(hits)
	}
	if rec.DurationMs > 0 {
		m.PointsPerSecond = float64(rec.Score) / (float64(rec.DurationMs) / 1000.0)
	}
	if rec.Goal > 0 {
		m.GoalProgress = math.Min(1, float64(rec.Score)/float64(rec.Goal))
	}
	return m
}

// Summary aggregates a list of sessions.
type Summary struct {
	Sessions    int
	Wins        int
	WinRate     float64
	AvgScore    float64
	BestScore   int
	AvgAccuracy float64
	BestStreak  int
}

// Summarize folds sessions into a Summary. Sessions without any hit are left
// out of the accuracy average.
func Summarize(sessions []model.SessionRecord) Summary {
	var s Summary
	if len(sessions) == 0 {
		return s
	}
	var totalScore, tapped int
	var totalAcc float64
	for _, rec := range sessions {
		if rec.Won() {
			s.Wins++
		}
		totalScore += rec.Score
		if hasHits(rec) {
			totalAcc += SessionMetrics(rec).Accuracy
			tapped++
		}
		if rec.Score > s.BestScore {
			s.BestScore = rec.Score
		}
		if rec.BestStreak > s.BestStreak {
			s.BestStreak = rec.BestStreak
		}
	}
	s.Sessions = len(sessions)
	count := float64(len(sessions))
	s.WinRate = float64(s.Wins) / count
	s.AvgScore = float64(totalScore) / count
	if tapped > 0 {
		s.AvgAccuracy = totalAcc / float64(tapped)
	}
	return s
}

func hasHits(rec model.SessionRecord) bool {
	return rec.GoodHits+rec.BadHits > 0
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Resample averages or stretches values to exactly width points.
func Resample(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	if len(values) >= width {
		for i := 0; i < width; i++ {
			start := i * len(values) / width
			end := (i + 1) * len(values) / width
			if end <= start {
				end = start + 1
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
		return out
	}
	for i := 0; i < width; i++ {
		out[i] = values[i*len(values)/width]
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// ScoreSeries returns the score of each session.
func ScoreSeries(sessions []model.SessionRecord) []float64 {
	out := make([]float64, len(sessions))
	for i, rec := range sessions {
		out[i] = float64(rec.Score)
	}
	return out
}

// AccuracySeries returns the hit accuracy in percent of each session that
// had at least one hit.
func AccuracySeries(sessions []model.SessionRecord) []float64 {
	out := make([]float64, 0, len(sessions))
	for _, rec := range sessions {
		if hasHits(rec) {
			out = append(out, SessionMetrics(rec).Accuracy*100)
		}
	}
	return out
}

// RenderSummary prints a summary for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionRecord) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	s := Summarize(sessions)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", s.Sessions),
		fmt.Sprintf("Wins: %d (%.1f%%)", s.Wins, s.WinRate*100),
		fmt.Sprintf("Avg Score: %.2f", s.AvgScore),
		fmt.Sprintf("Best Score: %d", s.BestScore),
		fmt.Sprintf("Avg Accuracy: %.2f%%", s.AvgAccuracy*100),
		fmt.Sprintf("Best Streak: %d", s.BestStreak),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints moving-average sparklines of score and accuracy.
func RenderCurves(w io.Writer, sessions []model.SessionRecord, window, width int) error {
	if len(sessions) == 0 {
		return nil
	}
	if width <= 0 {
		width = len(sessions)
	}
	series := []struct {
		name   string
		values []float64
	}{
		{"Score", MovingAverage(ScoreSeries(sessions), window)},
		{"Accuracy", MovingAverage(AccuracySeries(sessions), window)},
	}
	if _, err := fmt.Fprintf(w, "Curves (window %d)\n", window); err != nil {
		return err
	}
	rows := make([][]string, 0, len(series))
	for _, s := range series {
		minVal, maxVal := minMax(s.values)
		rows = append(rows, []string{
			s.name,
			Sparkline(Resample(s.values, width)),
			fmt.Sprintf("%.1f..%.1f", minVal, maxVal),
		})
	}
	for _, line := range formatTable(nil, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderDifficultyTable prints per-difficulty aggregates.
func RenderDifficultyTable(w io.Writer, aggs []model.DifficultyAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No difficulty stats found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Per-Difficulty"); err != nil {
		return err
	}
	headers := []string{"Difficulty", "Sessions", "Win Rate", "Best", "Avg Score", "Accuracy", "Best Streak"}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range aggs {
		winRate, avg, acc := 0.0, 0.0, 0.0
		if agg.Sessions > 0 {
			winRate = float64(agg.Wins) / float64(agg.Sessions)
			avg = float64(agg.TotalScore) / float64(agg.Sessions)
		}
		if hits := agg.GoodHits + agg.BadHits; hits > 0 {
			acc = float64(agg.GoodHits) / float64(hits)
		}
		rows = append(rows, []string{
			agg.Difficulty,
			fmt.Sprintf("%d", agg.Sessions),
			fmt.Sprintf("%.1f%%", winRate*100),
			fmt.Sprintf("%d", agg.BestScore),
			fmt.Sprintf("%.2f", avg),
			fmt.Sprintf("%.1f%%", acc*100),
			fmt.Sprintf("%d", agg.BestStreak),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderProfiles prints the difficulty profiles.
func RenderProfiles(w io.Writer, profiles []profile.Profile, defaultName string) error {
	headers := []string{"Name", "Time", "Goal", "Spawn", "Good", "Penalty", "Bad Chance"}
	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		name := p.Name
		if p.Name == defaultName {
			name += " *"
		}
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%ds", p.Duration),
			fmt.Sprintf("%d", p.ScoreGoal),
			p.SpawnInterval.String(),
			fmt.Sprintf("+%d", p.GoodPoints),
			fmt.Sprintf("-%d", p.BadPenalty),
			fmt.Sprintf("%.0f%%", p.BadChance*100),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	return minVal, maxVal
}
