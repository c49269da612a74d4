// File: loop/handle.go
// Author: momentics <momentics@gmail.com>
//
// Base handle state machine: Initialized -> Active <-> Inactive -> Closing
// -> Closed. Embedded by every concrete handle kind.

package loop

import "github.com/momentics/hioload-evloop/api"

// Handle is the common state of every loop-owned resource. A handle belongs
// to exactly one loop for its whole lifetime.
type Handle struct {
	loop    *Loop
	kind    api.HandleKind
	active  bool
	refed   bool
	closing bool
	closed  bool

	// Data is an opaque user slot, never touched by the engine.
	Data any

	closeCb   func()
	teardown  func()
	cancelCbs []func()
}

func (h *Handle) init(l *Loop, kind api.HandleKind) error {
	if l.closed {
		return api.ErrLoopClosed
	}
	h.loop = l
	h.kind = kind
	h.refed = true
	l.attach(h)
	return nil
}

// Loop returns the owning loop.
func (h *Handle) Loop() *Loop { return h.loop }

// Kind returns the handle's type tag.
func (h *Handle) Kind() api.HandleKind { return h.kind }

// Active reports whether the handle is eligible for event delivery.
func (h *Handle) Active() bool { return h.active && !h.closing }

// Closing reports whether Close has been requested (or completed).
func (h *Handle) Closing() bool { return h.closing }

// Closed reports whether the close callback has already run.
func (h *Handle) Closed() bool { return h.closed }

// Referenced reports whether this handle's liveness keeps the loop running.
func (h *Handle) Referenced() bool { return h.refed }

// Ref marks the handle as keeping the loop alive. Idempotent.
func (h *Handle) Ref() {
	h.mutate(func() { h.refed = true })
}

// Unref releases the handle's hold on the loop. Idempotent.
func (h *Handle) Unref() {
	h.mutate(func() { h.refed = false })
}

// SetReference sets the reference flag explicitly.
func (h *Handle) SetReference(on bool) {
	h.mutate(func() { h.refed = on })
}

// setActive flips the active flag, keeping the loop's live accounting exact.
func (h *Handle) setActive(on bool) {
	h.mutate(func() { h.active = on })
}

// live is the condition under which this handle keeps RunDefault spinning.
func (h *Handle) live() bool {
	return h.active && h.refed && !h.closing
}

// deferCancel queues a canceled-request callback for the close phase. These
// run right before the close callback, so a closing handle still completes
// every outstanding request first.
func (h *Handle) deferCancel(fn func()) {
	h.cancelCbs = append(h.cancelCbs, fn)
}

func (h *Handle) mutate(fn func()) {
	was := h.live()
	fn()
	if now := h.live(); now != was {
		if now {
			h.loop.activeRefs++
		} else {
			h.loop.activeRefs--
		}
	}
}

// Close requests asynchronous teardown. The handle deregisters immediately
// and accepts no further operations; cb fires in the close phase of a later
// iteration, never synchronously. Closing an already closing or closed
// handle is a no-op.
func (h *Handle) Close(cb func()) {
	if h.closing {
		return
	}
	if cb != nil {
		h.closeCb = cb
	}
	if h.teardown != nil {
		h.teardown()
	}
	h.mutate(func() { h.closing = true })
	h.loop.closing.Add(h)
}
