package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestAfterFuncFiresOnce(t *testing.T) {
	m := NewManual(epoch)
	calls := 0
	m.AfterFunc(time.Second, func() { calls++ })

	if n := m.Advance(999 * time.Millisecond); n != 0 {
		t.Fatalf("expected no callbacks yet, got %d", n)
	}
	m.Advance(time.Millisecond)
	m.Advance(10 * time.Second)
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if m.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", m.Pending())
	}
}

func TestEveryFiresPerPeriod(t *testing.T) {
	m := NewManual(epoch)
	var at []time.Duration
	m.Every(300*time.Millisecond, func() { at = append(at, m.Now().Sub(epoch)) })

	m.Advance(time.Second)
	want := []time.Duration{300 * time.Millisecond, 600 * time.Millisecond, 900 * time.Millisecond}
	if len(at) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), at)
	}
	for i := range want {
		if at[i] != want[i] {
			t.Fatalf("call %d at %v, expected %v", i, at[i], want[i])
		}
	}
	if got := m.Now().Sub(epoch); got != time.Second {
		t.Fatalf("expected clock at 1s, got %v", got)
	}
}

func TestCallbacksRunInDueOrder(t *testing.T) {
	m := NewManual(epoch)
	var order []string
	m.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	m.AfterFunc(time.Second, func() { order = append(order, "a") })
	m.AfterFunc(2*time.Second, func() { order = append(order, "c") })

	m.Advance(3 * time.Second)
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestStopDuringBatchSuppressesLaterTimer(t *testing.T) {
	m := NewManual(epoch)
	var later Timer
	fired := false
	m.AfterFunc(time.Second, func() { later.Stop() })
	later = m.Every(time.Second, func() { fired = true })

	m.Advance(5 * time.Second)
	if fired {
		t.Fatalf("stopped timer fired")
	}
	if later.Stop() {
		t.Fatalf("second Stop should report inactive")
	}
}

func TestCallbackCanScheduleWithinSameAdvance(t *testing.T) {
	m := NewManual(epoch)
	calls := 0
	m.AfterFunc(time.Second, func() {
		m.AfterFunc(time.Second, func() { calls++ })
	})
	m.Advance(2 * time.Second)
	if calls != 1 {
		t.Fatalf("expected nested timer to fire, got %d", calls)
	}
}

func TestAdvanceToNeverMovesBackwards(t *testing.T) {
	m := NewManual(epoch)
	m.Advance(time.Minute)
	m.AdvanceTo(epoch)
	if !m.Now().Equal(epoch.Add(time.Minute)) {
		t.Fatalf("clock moved backwards: %v", m.Now())
	}
}
