// Author: momentics <momentics@gmail.com>
//
// Fake allocator recording acquire/release traffic.

package fake

import "sync"

// Allocator is a fake implementation of api.Allocator. It hands out a
// fresh slab per Acquire and counts the calls; SetExhausted simulates the
// single-slot allocator's busy state by returning zero-length buffers.
type Allocator struct {
	mu        sync.Mutex
	size      int
	exhausted bool
	acquires  int
	releases  int
}

// NewAllocator creates a fake allocator with the given slab size.
func NewAllocator(size int) *Allocator {
	return &Allocator{size: size}
}

// Acquire implements api.Allocator.Acquire.
func (a *Allocator) Acquire(suggested int) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acquires++
	if a.exhausted {
		return nil
	}
	n := a.size
	if n <= 0 {
		n = suggested
	}
	return make([]byte, n)
}

// Release implements api.Allocator.Release.
func (a *Allocator) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.releases++
}

// SetExhausted toggles zero-length acquisitions.
func (a *Allocator) SetExhausted(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.exhausted = v
}

// Counts reports the acquire and release totals.
func (a *Allocator) Counts() (acquires, releases int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.acquires, a.releases
}
