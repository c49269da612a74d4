// File: api/alloc.go
// Author: momentics <momentics@gmail.com>
//
// Read-buffer allocation strategy. The strategy object is injected at loop
// construction time; there is no process-wide allocator state.

package api

// Allocator supplies the buffer used by one in-flight read. The loop calls
// Acquire right before reading from a ready descriptor and Release after the
// read callback has consumed the data.
//
// Acquire returning a zero-length slice means "no buffer available right
// now"; the read is skipped for this iteration and retried later. It is a
// backpressure signal, not an error.
type Allocator interface {
	Acquire(suggested int) []byte
	Release()
}
