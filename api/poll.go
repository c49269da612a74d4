// Package api
// Author: momentics
//
// Platform poller abstraction: readiness demultiplexing over raw descriptors,
// implemented by epoll (Linux) and kqueue (BSD/Darwin) reactors.

package api

// Poller is the platform I/O readiness backend driven by a single loop.
// All methods except Wake must be called from the loop goroutine.
type Poller interface {
	// Add registers fd for the given readiness events.
	Add(fd int, events Events) error

	// Mod replaces the interest set of an already registered fd.
	Mod(fd int, events Events) error

	// Del removes fd from the interest set. No further events are
	// delivered for it after Del returns.
	Del(fd int) error

	// Wait blocks up to timeoutMs (-1 = infinite, 0 = non-blocking) and
	// fills `into` with ready descriptors. An interrupted wait returns
	// (0, nil); any other failure is fatal to the owning loop.
	Wait(into []Ready, timeoutMs int) (n int, err error)

	// Wake interrupts a concurrent Wait. Safe to call from any goroutine.
	Wake() error

	// Close releases the poller and its wakeup descriptors.
	Close() error
}
