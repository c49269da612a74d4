// File: loop/async.go
// Author: momentics <momentics@gmail.com>
//
// The one sanctioned cross-thread primitive: an always-active handle whose
// Send interrupts the poll and queues its callback on the loop goroutine.

package loop

import (
	"sync/atomic"

	"github.com/momentics/hioload-evloop/api"
)

// Async wakes the loop from any goroutine. Multiple Sends before the
// callback runs coalesce into a single invocation.
type Async struct {
	Handle
	cb      func(*Async)
	pending atomic.Bool
}

// NewAsync creates the handle. Like every async handle it is active from
// birth; Unref it if it should not keep the loop running.
func NewAsync(l *Loop, cb func(*Async)) (*Async, error) {
	a := &Async{cb: cb}
	if err := a.Handle.init(l, api.KindAsync); err != nil {
		return nil, err
	}
	a.setActive(true)
	a.teardown = func() { a.setActive(false) }
	return a, nil
}

// Send schedules the callback on the loop goroutine. Safe from any
// goroutine.
func (a *Async) Send() error {
	if !a.pending.CompareAndSwap(false, true) {
		return nil
	}
	return a.loop.Submit(func() {
		a.pending.Store(false)
		if !a.closing && a.cb != nil {
			a.cb(a)
		}
	})
}
