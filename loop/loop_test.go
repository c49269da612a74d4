// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// loop_test.go — Loop contract: run modes, lifetime accounting, stop/close
// semantics and the cross-thread submit path.
package loop_test

import (
	"errors"
	"testing"
	"time"

	"github.com/momentics/hioload-evloop/api"
	"github.com/momentics/hioload-evloop/fake"
	"github.com/momentics/hioload-evloop/loop"
)

func newTestLoop(t *testing.T) *loop.Loop {
	t.Helper()
	l, err := loop.New(loop.WithPoller(fake.NewPoller()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func newRealLoop(t *testing.T) *loop.Loop {
	t.Helper()
	l, err := loop.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

// guard fails the test and force-closes everything if the loop wedges.
func guard(t *testing.T, l *loop.Loop, d time.Duration) *loop.Timer {
	t.Helper()
	g, err := loop.NewTimer(l)
	if err != nil {
		t.Fatalf("NewTimer: %v", err)
	}
	g.Start(func(*loop.Timer) {
		t.Error("test timed out inside the loop")
		l.CloseAll()
	}, d, 0)
	g.Unref()
	return g
}

func TestLoop_RunWithoutWorkReturns(t *testing.T) {
	l := newTestLoop(t)
	alive, err := l.Run(api.RunDefault)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if alive {
		t.Error("empty loop reported alive")
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestLoop_ClosedLoopRejectsEverything(t *testing.T) {
	l := newTestLoop(t)
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Submit(func() {}); !errors.Is(err, api.ErrLoopClosed) {
		t.Errorf("Submit on closed loop: got %v, want ErrLoopClosed", err)
	}
	if _, err := loop.NewTimer(l); !errors.Is(err, api.ErrLoopClosed) {
		t.Errorf("handle creation on closed loop: got %v, want ErrLoopClosed", err)
	}
	if _, err := l.Run(api.RunDefault); !errors.Is(err, api.ErrLoopClosed) {
		t.Errorf("Run on closed loop: got %v, want ErrLoopClosed", err)
	}
	// Closing twice is a no-op.
	if err := l.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestLoop_CloseBusyWhileHandlesLive(t *testing.T) {
	l := newTestLoop(t)
	tm, err := loop.NewTimer(l)
	if err != nil {
		t.Fatalf("NewTimer: %v", err)
	}
	if err := l.Close(); !errors.Is(err, api.ErrLoopBusy) {
		t.Fatalf("Close with live handle: got %v, want ErrLoopBusy", err)
	}

	closed := false
	tm.Close(func() { closed = true })
	if closed {
		t.Fatal("close callback ran synchronously")
	}
	if err := l.Close(); !errors.Is(err, api.ErrLoopBusy) {
		t.Fatalf("Close with pending close phase: got %v, want ErrLoopBusy", err)
	}

	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !closed {
		t.Error("close callback never fired")
	}
	if n := l.HandleCount(); n != 0 {
		t.Errorf("HandleCount after drain = %d, want 0", n)
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close after drain: %v", err)
	}
}

func TestLoop_SubmitWakesBlockedRun(t *testing.T) {
	l := newTestLoop(t)
	tm, _ := loop.NewTimer(l)
	tm.Start(func(*loop.Timer) { t.Error("guard timer fired; submit never arrived") },
		5*time.Second, 0)

	ran := false
	go func() {
		time.Sleep(20 * time.Millisecond)
		l.Submit(func() {
			ran = true
			tm.Close(nil)
		})
	}()

	start := time.Now()
	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !ran {
		t.Fatal("submitted callback never ran")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("submit did not interrupt the poll")
	}
}

func TestLoop_RunNoWaitDrainsPendingWithoutBlocking(t *testing.T) {
	l := newTestLoop(t)
	ran := false
	if err := l.Submit(func() { ran = true }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	start := time.Now()
	if _, err := l.Run(api.RunNoWait); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !ran {
		t.Error("pending callback did not run")
	}
	if time.Since(start) > time.Second {
		t.Error("RunNoWait blocked")
	}
}

func TestLoop_StopExitsRunEarly(t *testing.T) {
	l := newTestLoop(t)
	tm, _ := loop.NewTimer(l)
	ticks := 0
	tm.Start(func(*loop.Timer) {
		ticks++
		if ticks == 3 {
			l.Stop()
		}
	}, time.Millisecond, time.Millisecond)

	alive, err := l.Run(api.RunDefault)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ticks != 3 {
		t.Errorf("ticks = %d, want 3", ticks)
	}
	if !alive {
		t.Error("stopped loop with a live timer reported dead")
	}

	tm.Close(nil)
	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("drain Run: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

// TestLoop_StopBeforeRunYieldsZeroIterations checks that a stop issued
// ahead of Run survives into it: Run exits before the first iteration, and
// the flag is consumed so the next Run proceeds normally.
func TestLoop_StopBeforeRunYieldsZeroIterations(t *testing.T) {
	l := newTestLoop(t)
	tm, _ := loop.NewTimer(l)
	fired := false
	tm.Start(func(*loop.Timer) { fired = true }, 0, 0)

	l.Stop()
	before := l.Iterations()
	alive, err := l.Run(api.RunDefault)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !alive {
		t.Error("pre-stopped loop with a due timer reported dead")
	}
	if fired {
		t.Error("timer fired despite stop issued before Run")
	}
	if got := l.Iterations(); got != before {
		t.Errorf("iterations advanced from %d to %d under pre-run stop", before, got)
	}

	if _, err := l.Run(api.RunOnce); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !fired {
		t.Error("timer did not fire once the stop was consumed")
	}
	tm.Close(nil)
	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("drain Run: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestLoop_UnrefedHandleDoesNotHoldRun(t *testing.T) {
	l := newTestLoop(t)
	tm, _ := loop.NewTimer(l)
	tm.Start(func(*loop.Timer) {}, 10*time.Second, 0)
	tm.Unref()

	start := time.Now()
	alive, err := l.Run(api.RunDefault)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if alive {
		t.Error("loop with only unrefed handles reported alive")
	}
	if time.Since(start) > time.Second {
		t.Error("Run waited on an unrefed timer")
	}
	if tm.Referenced() {
		t.Error("Unref did not clear the reference flag")
	}
}

func TestLoop_WalkAndCloseAll(t *testing.T) {
	l := newTestLoop(t)
	for i := 0; i < 3; i++ {
		if _, err := loop.NewTimer(l); err != nil {
			t.Fatalf("NewTimer: %v", err)
		}
	}
	visited := 0
	l.Walk(func(h *loop.Handle) { visited++ })
	if visited != 3 {
		t.Errorf("Walk visited %d handles, want 3", visited)
	}
	l.CloseAll()
	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := l.HandleCount(); n != 0 {
		t.Errorf("HandleCount after CloseAll = %d, want 0", n)
	}
}

func TestLoop_DoubleCloseSingleCallback(t *testing.T) {
	l := newTestLoop(t)
	tm, _ := loop.NewTimer(l)
	calls := 0
	tm.Close(func() { calls++ })
	tm.Close(func() { t.Error("second close callback registered") })
	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 {
		t.Errorf("close callback ran %d times, want 1", calls)
	}
}

func TestLoop_CloseFromCallbackIsDeferred(t *testing.T) {
	l := newTestLoop(t)
	tm, _ := loop.NewTimer(l)
	closedDuringCb := false
	cbRan := false
	tm.Start(func(h *loop.Timer) {
		h.Close(func() { cbRan = true })
		closedDuringCb = h.Closed()
	}, 0, 0)
	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if closedDuringCb {
		t.Error("handle observed Closed inside its own callback")
	}
	if !cbRan {
		t.Error("close callback never fired")
	}
}
