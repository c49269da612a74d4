// File: pool/elastic.go
// Author: momentics <momentics@gmail.com>

package pool

import "sync"

// Elastic is a sync.Pool backed allocator. Every Acquire succeeds, so reads
// within one iteration never observe a busy slot; memory is recycled through
// the pool instead of being bounded to one slab.
//
// Acquire/Release pair in LIFO order on the loop goroutine, mirroring how
// the loop consumes a read buffer before issuing the next read.
type Elastic struct {
	size int
	p    sync.Pool
	lent []*[]byte
}

// NewElastic builds an allocator handing out buffers of the given size.
func NewElastic(size int) *Elastic {
	if size <= 0 {
		size = DefaultBufferSize
	}
	e := &Elastic{size: size}
	e.p.New = func() any {
		buf := make([]byte, e.size)
		return &buf
	}
	return e
}

// Acquire returns a pooled buffer, never zero-length.
func (e *Elastic) Acquire(suggested int) []byte {
	bp := e.p.Get().(*[]byte)
	e.lent = append(e.lent, bp)
	buf := *bp
	if suggested > 0 && suggested < len(buf) {
		return buf[:suggested]
	}
	return buf
}

// Release returns the most recently acquired buffer to the pool.
func (e *Elastic) Release() {
	n := len(e.lent)
	if n == 0 {
		return
	}
	bp := e.lent[n-1]
	e.lent = e.lent[:n-1]
	e.p.Put(bp)
}
