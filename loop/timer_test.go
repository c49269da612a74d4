// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// timer_test.go — Timer contract: deadline ordering, zero timeouts,
// repeats and restart semantics.
package loop_test

import (
	"testing"
	"time"

	"github.com/momentics/hioload-evloop/api"
	"github.com/momentics/hioload-evloop/loop"
)

func TestTimer_ZeroTimeoutFiresExactlyOnce(t *testing.T) {
	l := newTestLoop(t)
	tm, err := loop.NewTimer(l)
	if err != nil {
		t.Fatalf("NewTimer: %v", err)
	}
	fired := 0
	tm.Start(func(*loop.Timer) { fired++ }, 0, 0)

	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fired != 1 {
		t.Errorf("zero-timeout timer fired %d times, want 1", fired)
	}
	if tm.Active() {
		t.Error("one-shot timer still active after expiry")
	}
}

func TestTimer_DeadlineThenStartOrder(t *testing.T) {
	l := newTestLoop(t)
	var order []string
	add := func(name string, timeout time.Duration) {
		tm, err := loop.NewTimer(l)
		if err != nil {
			t.Fatalf("NewTimer: %v", err)
		}
		tm.Start(func(*loop.Timer) { order = append(order, name) }, timeout, 0)
	}
	// Two equal deadlines bracket an earlier one; equal deadlines must
	// preserve start order.
	add("late-first", 40*time.Millisecond)
	add("early", 10*time.Millisecond)
	add("late-second", 40*time.Millisecond)

	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"early", "late-first", "late-second"}
	if len(order) != len(want) {
		t.Fatalf("fired %d timers, want %d (%v)", len(order), len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("fire order %v, want %v", order, want)
		}
	}
}

func TestTimer_RepeatUntilStop(t *testing.T) {
	l := newTestLoop(t)
	tm, _ := loop.NewTimer(l)
	ticks := 0
	tm.Start(func(h *loop.Timer) {
		ticks++
		if ticks == 3 {
			h.Stop()
		}
	}, 5*time.Millisecond, 5*time.Millisecond)

	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ticks != 3 {
		t.Errorf("ticks = %d, want 3", ticks)
	}
	if got := tm.Repeat(); got != 5*time.Millisecond {
		t.Errorf("Repeat() = %v, want 5ms", got)
	}
}

func TestTimer_AgainRequiresRepeat(t *testing.T) {
	l := newTestLoop(t)
	tm, _ := loop.NewTimer(l)
	if err := tm.Again(); api.CodeOf(err) != api.EINVAL {
		t.Errorf("Again without repeat: got %v, want EINVAL", err)
	}
	tm.SetRepeat(5 * time.Millisecond)
	fired := 0
	tm.Start(func(h *loop.Timer) {
		fired++
		h.Stop()
	}, time.Hour, 5*time.Millisecond)
	if err := tm.Again(); err != nil {
		t.Fatalf("Again: %v", err)
	}
	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fired != 1 {
		t.Errorf("timer fired %d times after Again, want 1", fired)
	}
}

func TestTimer_RestartReplacesSchedule(t *testing.T) {
	l := newTestLoop(t)
	tm, _ := loop.NewTimer(l)
	var got string
	tm.Start(func(*loop.Timer) { got = "first" }, 50*time.Millisecond, 0)
	tm.Start(func(*loop.Timer) { got = "second" }, 5*time.Millisecond, 0)

	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "second" {
		t.Errorf("callback = %q, want the restarted one", got)
	}
}
