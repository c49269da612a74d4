//go:build unix

// File: loop/poll_unix.go
// Author: momentics <momentics@gmail.com>
//
// Poll handle: raw readiness notification for a caller-owned descriptor.

package loop

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-evloop/api"
)

// Poll watches an arbitrary file descriptor for readiness. The engine never
// reads or writes the descriptor; ownership stays with the caller.
type Poll struct {
	Handle
	fd int
	cb func(*Poll, api.Events, error)
}

// NewPoll wraps fd. The descriptor is switched to non-blocking mode.
func NewPoll(l *Loop, fd int) (*Poll, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, api.ErrnoError(err)
	}
	p := &Poll{fd: fd}
	if err := p.Handle.init(l, api.KindPoll); err != nil {
		return nil, err
	}
	p.teardown = func() { p.stopLocked() }
	return p, nil
}

// Fd returns the watched descriptor.
func (p *Poll) Fd() int { return p.fd }

// Start begins readiness delivery for the given event mask.
func (p *Poll) Start(events api.Events, cb func(*Poll, api.Events, error)) error {
	if p.closing {
		return api.ErrHandleClosed
	}
	p.cb = cb
	if p.active {
		return p.loop.modWatch(p.fd, events)
	}
	if err := p.loop.addWatch(p.fd, events, p.onEvents); err != nil {
		return err
	}
	p.setActive(true)
	return nil
}

// Stop halts readiness delivery without closing the descriptor.
func (p *Poll) Stop() error {
	if p.closing {
		return api.ErrHandleClosed
	}
	p.stopLocked()
	return nil
}

func (p *Poll) stopLocked() {
	if !p.active {
		return
	}
	_ = p.loop.delWatch(p.fd)
	p.setActive(false)
}

func (p *Poll) onEvents(ev api.Events) {
	if p.cb == nil || !p.Active() {
		return
	}
	if ev&api.EventError != 0 {
		p.cb(p, ev, api.NewCodeError(api.EBADF, nil))
		return
	}
	p.cb(p, ev, nil)
}
