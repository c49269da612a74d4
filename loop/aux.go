// File: loop/aux.go
// Author: momentics <momentics@gmail.com>
//
// Per-iteration hook handles. Idle and prepare handles run before the poll
// (an active idle handle forces a zero poll timeout), check handles run
// after readiness and timer dispatch.

package loop

import "github.com/momentics/hioload-evloop/api"

// Idle runs its callback once per iteration and keeps the poll from
// blocking while active.
type Idle struct {
	Handle
	cb func(*Idle)
}

// NewIdle creates an inactive idle handle.
func NewIdle(l *Loop) (*Idle, error) {
	i := &Idle{}
	if err := i.Handle.init(l, api.KindIdle); err != nil {
		return nil, err
	}
	i.teardown = func() { i.stopLocked() }
	return i, nil
}

// Start activates the hook.
func (i *Idle) Start(cb func(*Idle)) error {
	if i.closing {
		return api.ErrHandleClosed
	}
	i.cb = cb
	if !i.active {
		i.loop.idles = append(i.loop.idles, i)
		i.setActive(true)
	}
	return nil
}

// Stop deactivates the hook.
func (i *Idle) Stop() error {
	if i.closing {
		return api.ErrHandleClosed
	}
	i.stopLocked()
	return nil
}

func (i *Idle) stopLocked() {
	if !i.active {
		return
	}
	i.loop.idles = removeAux(i.loop.idles, i)
	i.setActive(false)
}

// Prepare runs immediately before the loop blocks in the poller.
type Prepare struct {
	Handle
	cb func(*Prepare)
}

// NewPrepare creates an inactive prepare handle.
func NewPrepare(l *Loop) (*Prepare, error) {
	p := &Prepare{}
	if err := p.Handle.init(l, api.KindPrepare); err != nil {
		return nil, err
	}
	p.teardown = func() { p.stopLocked() }
	return p, nil
}

// Start activates the hook.
func (p *Prepare) Start(cb func(*Prepare)) error {
	if p.closing {
		return api.ErrHandleClosed
	}
	p.cb = cb
	if !p.active {
		p.loop.prepares = append(p.loop.prepares, p)
		p.setActive(true)
	}
	return nil
}

// Stop deactivates the hook.
func (p *Prepare) Stop() error {
	if p.closing {
		return api.ErrHandleClosed
	}
	p.stopLocked()
	return nil
}

func (p *Prepare) stopLocked() {
	if !p.active {
		return
	}
	p.loop.prepares = removeAux(p.loop.prepares, p)
	p.setActive(false)
}

// Check runs after readiness, timer and pending dispatch each iteration.
type Check struct {
	Handle
	cb func(*Check)
}

// NewCheck creates an inactive check handle.
func NewCheck(l *Loop) (*Check, error) {
	c := &Check{}
	if err := c.Handle.init(l, api.KindCheck); err != nil {
		return nil, err
	}
	c.teardown = func() { c.stopLocked() }
	return c, nil
}

// Start activates the hook.
func (c *Check) Start(cb func(*Check)) error {
	if c.closing {
		return api.ErrHandleClosed
	}
	c.cb = cb
	if !c.active {
		c.loop.checks = append(c.loop.checks, c)
		c.setActive(true)
	}
	return nil
}

// Stop deactivates the hook.
func (c *Check) Stop() error {
	if c.closing {
		return api.ErrHandleClosed
	}
	c.stopLocked()
	return nil
}

func (c *Check) stopLocked() {
	if !c.active {
		return
	}
	c.loop.checks = removeAux(c.loop.checks, c)
	c.setActive(false)
}

func removeAux[T comparable](s []T, v T) []T {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
