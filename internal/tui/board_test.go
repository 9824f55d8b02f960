package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/droptap/internal/game"
)

func testBoard(now *time.Time) *board {
	b := newBoard(func() time.Time { return *now }, 3*time.Second, 1)
	b.resize(20, 7)
	return b
}

func TestBoardLabelsAreUnique(t *testing.T) {
	now := epoch
	b := testBoard(&now)
	for i := 1; i <= 3; i++ {
		b.OnSpawn(&game.Target{ID: game.TargetID(i), Kind: game.Good, SpawnedAt: now})
	}
	if b.drops[0].label != 'a' || b.drops[1].label != 's' || b.drops[2].label != 'd' {
		t.Fatalf("unexpected labels: %c %c %c", b.drops[0].label, b.drops[1].label, b.drops[2].label)
	}
	b.OnTargetExpired(2)
	b.OnSpawn(&game.Target{ID: 4, Kind: game.Bad, SpawnedAt: now})
	if b.drops[2].label != 's' {
		t.Fatalf("expected freed label to be reused, got %c", b.drops[2].label)
	}
	if id, ok := b.byLabel('s'); !ok || id != 4 {
		t.Fatalf("expected s to map to drop 4, got %d %v", id, ok)
	}
}

func TestBoardDropsFall(t *testing.T) {
	now := epoch
	b := testBoard(&now)
	b.OnSpawn(&game.Target{ID: 1, Kind: game.Good, SpawnedAt: now})
	d := b.drops[0]

	if got := b.rowFor(d, now); got != 0 {
		t.Fatalf("expected row 0 at spawn, got %d", got)
	}
	if got := b.rowFor(d, now.Add(1500*time.Millisecond)); got != 3 {
		t.Fatalf("expected row 3 halfway, got %d", got)
	}
	if got := b.rowFor(d, now.Add(10*time.Second)); got != 6 {
		t.Fatalf("expected drop to rest on the last row, got %d", got)
	}
	if _, ok := b.hit(d.col+2, 1, now); !ok {
		t.Fatalf("expected hit within tolerance")
	}
	if _, ok := b.hit(d.col+3, 0, now); ok {
		t.Fatalf("expected miss right of the drop")
	}
}

func TestBoardFloatersExpire(t *testing.T) {
	now := epoch
	b := testBoard(&now)
	b.OnSpawn(&game.Target{ID: 1, Kind: game.Good, SpawnedAt: now})
	b.OnActivationResult(1, game.Effect{Kind: game.Good, Delta: 2, NewMultiplier: 2})

	if len(b.drops) != 0 || len(b.floaters) != 1 || b.floaters[0].text != "+2" {
		t.Fatalf("unexpected board: drops=%d floaters=%+v", len(b.drops), b.floaters)
	}
	b.prune(now.Add(floatDuration - time.Millisecond))
	if len(b.floaters) != 1 {
		t.Fatalf("expected floater to remain")
	}
	b.prune(now.Add(floatDuration))
	if len(b.floaters) != 0 {
		t.Fatalf("expected floater to expire")
	}
}

func TestBoardRenderKeepsWidth(t *testing.T) {
	now := epoch
	b := testBoard(&now)
	b.OnSpawn(&game.Target{ID: 1, Kind: game.Good, SpawnedAt: now})
	b.OnSpawn(&game.Target{ID: 2, Kind: game.Bad, SpawnedAt: now})
	b.drops[0].col = 2
	b.drops[1].col = 10

	lines := b.render(now)
	if len(lines) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(lines))
	}
	for i, line := range lines {
		plain := stripANSI(line)
		if w := runewidth.StringWidth(plain); w != 20 {
			t.Fatalf("row %d has width %d: %q", i, w, plain)
		}
	}
	if !strings.Contains(stripANSI(lines[0]), "(a)") || !strings.Contains(stripANSI(lines[0]), "[s]") {
		t.Fatalf("expected both drops on the first row: %q", stripANSI(lines[0]))
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
