// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// singleslot_test.go — Allocator contract: busy slot, release cycle,
// suggested sizing.
package pool_test

import (
	"testing"

	"github.com/momentics/hioload-evloop/pool"
)

func TestSingleSlot_BusySlotYieldsZeroLength(t *testing.T) {
	s := pool.NewSingleSlot(1024)
	first := s.Acquire(1024)
	if len(first) != 1024 {
		t.Fatalf("first Acquire returned %d bytes, want 1024", len(first))
	}
	if second := s.Acquire(1024); len(second) != 0 {
		t.Errorf("second Acquire while busy returned %d bytes, want 0", len(second))
	}
	if !s.InUse() {
		t.Error("InUse = false while slab lent out")
	}

	s.Release()
	if s.InUse() {
		t.Error("InUse = true after Release")
	}
	if again := s.Acquire(1024); len(again) != 1024 {
		t.Errorf("Acquire after Release returned %d bytes, want 1024", len(again))
	}
}

func TestSingleSlot_ReleaseIdempotent(t *testing.T) {
	s := pool.NewSingleSlot(64)
	s.Acquire(64)
	s.Release()
	s.Release()
	if len(s.Acquire(64)) != 64 {
		t.Error("slot unusable after double Release")
	}
}

func TestSingleSlot_SuggestedTruncates(t *testing.T) {
	s := pool.NewSingleSlot(4096)
	buf := s.Acquire(128)
	if len(buf) != 128 {
		t.Errorf("Acquire(128) returned %d bytes", len(buf))
	}
	s.Release()
	if buf = s.Acquire(1 << 20); len(buf) != 4096 {
		t.Errorf("oversized suggestion returned %d bytes, want slab size 4096", len(buf))
	}
}

func TestSingleSlot_DefaultSize(t *testing.T) {
	s := pool.NewSingleSlot(0)
	if buf := s.Acquire(0); len(buf) != pool.DefaultBufferSize {
		t.Errorf("default slab = %d bytes, want %d", len(buf), pool.DefaultBufferSize)
	}
}

func TestElastic_AlwaysAllocates(t *testing.T) {
	e := pool.NewElastic(256)
	a := e.Acquire(256)
	b := e.Acquire(256)
	if len(a) != 256 || len(b) != 256 {
		t.Fatalf("Acquire sizes = %d, %d; want 256", len(a), len(b))
	}
	// LIFO release keeps the pairing with nested reads.
	e.Release()
	e.Release()
	if c := e.Acquire(64); len(c) != 64 {
		t.Errorf("Acquire(64) after releases = %d bytes", len(c))
	}
}

func TestElastic_ReleaseWithoutAcquire(t *testing.T) {
	e := pool.NewElastic(0)
	e.Release() // must not panic
	if buf := e.Acquire(0); len(buf) != pool.DefaultBufferSize {
		t.Errorf("default elastic buffer = %d, want %d", len(buf), pool.DefaultBufferSize)
	}
}
