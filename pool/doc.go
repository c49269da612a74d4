// Package pool
// Author: momentics <momentics@gmail.com>
//
// Read-buffer allocation strategies for the event loop. The default
// SingleSlot allocator bounds memory to exactly one read buffer per loop;
// Elastic trades that bound for read parallelism. Both satisfy api.Allocator
// and are injected at loop construction.
package pool
