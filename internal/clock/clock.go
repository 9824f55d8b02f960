// Package clock provides the timer capability used by game sessions.
//
// A Manual scheduler keeps virtual time that only moves when its owner calls
// Advance or AdvanceTo. Callbacks run synchronously inside those calls, on the
// caller's goroutine, so a session driven from one event loop never needs
// locking. Tests move time explicitly; the terminal and network front ends
// move it to wall time on every frame.
package clock

import (
	"sort"
	"time"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop cancels the timer. It reports whether the timer was still active.
	Stop() bool
}

// Scheduler schedules callbacks against a clock.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

// Manual is a virtual-time Scheduler. It is not safe for concurrent use.
type Manual struct {
	now    time.Time
	seq    uint64
	timers []*manualTimer
}

type manualTimer struct {
	m       *Manual
	due     time.Time
	period  time.Duration
	seq     uint64
	fn      func()
	stopped bool
}

// NewManual returns a Manual scheduler starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current virtual time.
func (m *Manual) Now() time.Time {
	return m.now
}

// AfterFunc runs fn once, d after the current virtual time.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	return m.add(d, 0, fn)
}

// Every runs fn every d, first at now+d. Non-positive periods are clamped to
// one millisecond.
func (m *Manual) Every(d time.Duration, fn func()) Timer {
	if d <= 0 {
		d = time.Millisecond
	}
	return m.add(d, d, fn)
}

func (m *Manual) add(d, period time.Duration, fn func()) *manualTimer {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{m: m, due: m.now.Add(d), period: period, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves virtual time forward by d and fires every callback that
// becomes due, in due-time order. It returns the number of callbacks run.
func (m *Manual) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	return m.AdvanceTo(m.now.Add(d))
}

// AdvanceTo moves virtual time to target, firing due callbacks in order.
// Time never moves backwards. A timer stopped by an earlier callback in the
// same batch does not fire.
func (m *Manual) AdvanceTo(target time.Time) int {
	fired := 0
	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}
		m.now = next.due
		if next.period > 0 {
			next.due = next.due.Add(next.period)
		} else {
			next.stopped = true
			m.remove(next)
		}
		next.fn()
		fired++
	}
	if target.After(m.now) {
		m.now = target
	}
	return fired
}

// Pending returns the number of active timers.
func (m *Manual) Pending() int {
	return len(m.timers)
}

func (m *Manual) nextDue(limit time.Time) *manualTimer {
	if len(m.timers) == 0 {
		return nil
	}
	m.sortTimers()
	first := m.timers[0]
	if first.due.After(limit) {
		return nil
	}
	return first
}

func (m *Manual) sortTimers() {
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].due.Equal(m.timers[j].due) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].due.Before(m.timers[j].due)
	})
}

func (m *Manual) remove(t *manualTimer) {
	for i, cur := range m.timers {
		if cur == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}

func (t *manualTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	t.m.remove(t)
	return true
}
