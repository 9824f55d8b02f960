package tui

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/droptap/internal/game"
)

const (
	dropWidth     = 3
	floatDuration = 900 * time.Millisecond
	shakeDuration = 320 * time.Millisecond
	labelPool     = "asdfghjklwertyuiopzxcvbnm"
)

type drop struct {
	id        game.TargetID
	kind      game.Kind
	label     rune
	col       int
	spawnedAt time.Time
}

type floater struct {
	text  string
	kind  game.Kind
	col   int
	row   int
	until time.Time
}

// board renders session events. It is the terminal presentation adapter and
// is only touched from the Bubble Tea update loop.
type board struct {
	now  func() time.Time
	fall time.Duration
	rnd  *rand.Rand

	cols int
	rows int

	drops      []*drop
	floaters   []floater
	shakeUntil time.Time
	remaining  int
	multiplier int
}

func newBoard(now func() time.Time, fall time.Duration, seed int64) *board {
	return &board{
		now:        now,
		fall:       fall,
		rnd:        rand.New(rand.NewSource(seed)),
		cols:       defaultBoardCols,
		rows:       defaultBoardRows,
		multiplier: 1,
	}
}

func (b *board) OnSpawn(t *game.Target) {
	maxCol := b.cols - dropWidth
	if maxCol < 0 {
		maxCol = 0
	}
	b.drops = append(b.drops, &drop{
		id:        t.ID,
		kind:      t.Kind,
		label:     b.nextLabel(),
		col:       b.rnd.Intn(maxCol + 1),
		spawnedAt: t.SpawnedAt,
	})
}

func (b *board) OnActivationResult(id game.TargetID, e game.Effect) {
	d := b.remove(id)
	if d == nil {
		return
	}
	now := b.now()
	b.floaters = append(b.floaters, floater{
		text:  fmt.Sprintf("%+d", e.Delta),
		kind:  e.Kind,
		col:   d.col,
		row:   b.rowFor(d, now),
		until: now.Add(floatDuration),
	})
	if e.Kind == game.Bad {
		b.shakeUntil = now.Add(shakeDuration)
	}
}

func (b *board) OnTargetExpired(id game.TargetID) {
	b.remove(id)
}

func (b *board) OnTick(remainingSeconds int) {
	b.remaining = remainingSeconds
}

func (b *board) OnMultiplierChanged(multiplier int) {
	b.multiplier = multiplier
}

func (b *board) OnSessionEnded(game.Result) {
	b.drops = nil
}

func (b *board) reset() {
	b.drops = nil
	b.floaters = nil
	b.shakeUntil = time.Time{}
}

func (b *board) resize(cols, rows int) {
	b.cols = cols
	b.rows = rows
	for _, d := range b.drops {
		if d.col+dropWidth > cols {
			d.col = maxInt(0, cols-dropWidth)
		}
	}
}

// prune drops floaters whose display time has passed.
func (b *board) prune(now time.Time) {
	kept := b.floaters[:0]
	for _, f := range b.floaters {
		if now.Before(f.until) {
			kept = append(kept, f)
		}
	}
	b.floaters = kept
}

func (b *board) shaking(now time.Time) bool {
	return now.Before(b.shakeUntil)
}

func (b *board) nextLabel() rune {
	used := make(map[rune]bool, len(b.drops))
	for _, d := range b.drops {
		used[d.label] = true
	}
	for _, r := range labelPool {
		if !used[r] {
			return r
		}
	}
	return 0
}

func (b *board) byLabel(r rune) (game.TargetID, bool) {
	if r == 0 {
		return 0, false
	}
	for _, d := range b.drops {
		if d.label == r {
			return d.id, true
		}
	}
	return 0, false
}

// hit returns the drop under a board cell. Newer drops win overlaps, and a
// one-row tolerance accounts for the drop moving between frames.
func (b *board) hit(col, row int, now time.Time) (game.TargetID, bool) {
	for i := len(b.drops) - 1; i >= 0; i-- {
		d := b.drops[i]
		r := b.rowFor(d, now)
		if col >= d.col && col < d.col+dropWidth && row >= r-1 && row <= r+1 {
			return d.id, true
		}
	}
	return 0, false
}

func (b *board) remove(id game.TargetID) *drop {
	for i, d := range b.drops {
		if d.id == id {
			b.drops = append(b.drops[:i], b.drops[i+1:]...)
			return d
		}
	}
	return nil
}

func (b *board) rowFor(d *drop, now time.Time) int {
	if b.rows <= 1 || b.fall <= 0 {
		return 0
	}
	progress := float64(now.Sub(d.spawnedAt)) / float64(b.fall)
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	return int(progress * float64(b.rows-1))
}

// render draws the play area as rows of exactly b.cols display cells.
func (b *board) render(now time.Time) []string {
	cells := make([][]string, b.rows)
	for r := range cells {
		cells[r] = make([]string, b.cols)
		for c := range cells[r] {
			cells[r][c] = " "
		}
	}
	place := func(row, col int, text string, style lipgloss.Style) {
		if row < 0 || row >= b.rows {
			return
		}
		width := runewidth.StringWidth(text)
		if col < 0 || col+width > b.cols {
			return
		}
		cells[row][col] = style.Render(text)
		for i := 1; i < width; i++ {
			cells[row][col+i] = ""
		}
	}
	for _, d := range b.drops {
		label := d.label
		if label == 0 {
			label = '•'
		}
		if d.kind == game.Bad {
			place(b.rowFor(d, now), d.col, "["+string(label)+"]", badDropStyle)
		} else {
			place(b.rowFor(d, now), d.col, "("+string(label)+")", goodDropStyle)
		}
	}
	for _, f := range b.floaters {
		style := goodFloatStyle
		if f.kind == game.Bad {
			style = badFloatStyle
		}
		place(f.row, f.col, f.text, style)
	}
	lines := make([]string, b.rows)
	for r, row := range cells {
		lines[r] = strings.Join(row, "")
	}
	return lines
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
