//go:build unix

// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// signal_test.go — Signal handle: delivery on the loop goroutine.
package loop_test

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/momentics/hioload-evloop/api"
	"github.com/momentics/hioload-evloop/loop"
)

func TestSignal_DeliveredOnLoop(t *testing.T) {
	l := newRealLoop(t)
	guard(t, l, 5*time.Second)

	s, err := loop.NewSignal(l)
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}
	var got os.Signal
	if err := s.Start(syscall.SIGUSR1, func(h *loop.Signal, sig os.Signal) {
		got = sig
		h.Close(nil)
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		syscall.Kill(os.Getpid(), syscall.SIGUSR1)
	}()

	if _, err := l.Run(api.RunDefault); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != syscall.SIGUSR1 {
		t.Errorf("delivered signal = %v, want SIGUSR1", got)
	}
}
