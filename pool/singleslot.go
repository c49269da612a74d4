// File: pool/singleslot.go
// Author: momentics <momentics@gmail.com>
//
// Single reusable read slab with an in-use flag. A busy slot yields a
// zero-length acquire, which the loop treats as "skip this read for now".

package pool

// DefaultBufferSize is the slab size used when none is configured.
const DefaultBufferSize = 64 * 1024

// SingleSlot is the default loop allocator: one slab, one read in flight.
// It is owned by the loop goroutine and is not safe for concurrent use.
type SingleSlot struct {
	slab  []byte
	inUse bool
}

// NewSingleSlot allocates the slot with the given slab size.
func NewSingleSlot(size int) *SingleSlot {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &SingleSlot{slab: make([]byte, size)}
}

// Acquire hands out the slab, or a zero-length slice while it is in use.
func (s *SingleSlot) Acquire(suggested int) []byte {
	if s.inUse {
		return nil
	}
	s.inUse = true
	if suggested > 0 && suggested < len(s.slab) {
		return s.slab[:suggested]
	}
	return s.slab
}

// Release marks the slab reusable. Idempotent.
func (s *SingleSlot) Release() {
	s.inUse = false
}

// InUse reports whether the slab is currently lent out.
func (s *SingleSlot) InUse() bool { return s.inUse }
