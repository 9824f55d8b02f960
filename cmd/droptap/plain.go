package main

import (
	"context"
	"fmt"
	"io"

	"github.com/verte-zerg/droptap/internal/model"
	"github.com/verte-zerg/droptap/internal/stats"
)

const plainLabelWidth = 30

func renderPlainStats(ctx context.Context, w io.Writer, src stats.Source, cfg model.StatsConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := stats.BuildReport(ctx, src, cfg)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	if err := stats.RenderSummary(w, report.Sessions); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(report.Sessions) == 0 {
		return nil
	}
	width := stats.TerminalWidth(w) - plainLabelWidth
	if width < 10 {
		width = 10
	}
	if err := stats.RenderCurves(w, report.WindowSessions, cfg.CurveWindow, width); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderDifficultyTable(w, report.Difficulties); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
