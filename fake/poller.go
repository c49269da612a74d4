// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the poller and allocator
// interfaces without touching real descriptors.

package fake

import (
	"fmt"
	"sync"
	"time"

	"github.com/momentics/hioload-evloop/api"
)

// Poller is a fake implementation of api.Poller. Tests inject readiness
// with Inject; Wait delivers injected events for registered descriptors
// and honors timeouts against the wake signal.
type Poller struct {
	mu        sync.Mutex
	interests map[int]api.Events
	queued    []api.Ready
	wakeCh    chan struct{}
	waits     int
	waitError error
	closed    bool
}

// NewPoller creates a fake poller with an empty interest set.
func NewPoller() *Poller {
	return &Poller{
		interests: make(map[int]api.Events),
		wakeCh:    make(chan struct{}, 1),
	}
}

// Add implements api.Poller.Add.
func (p *Poller) Add(fd int, events api.Events) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.interests[fd]; ok {
		return fmt.Errorf("fake poller: fd %d already registered", fd)
	}
	p.interests[fd] = events
	return nil
}

// Mod implements api.Poller.Mod.
func (p *Poller) Mod(fd int, events api.Events) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.interests[fd]; !ok {
		return fmt.Errorf("fake poller: fd %d not registered", fd)
	}
	p.interests[fd] = events
	return nil
}

// Del implements api.Poller.Del.
func (p *Poller) Del(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.interests[fd]; !ok {
		return fmt.Errorf("fake poller: fd %d not registered", fd)
	}
	delete(p.interests, fd)
	return nil
}

// Wait implements api.Poller.Wait. Injected events for descriptors still
// in the interest set are delivered immediately; otherwise Wait sleeps up
// to timeoutMs or until Wake.
func (p *Poller) Wait(into []api.Ready, timeoutMs int) (int, error) {
	p.mu.Lock()
	p.waits++
	if p.waitError != nil {
		err := p.waitError
		p.mu.Unlock()
		return 0, err
	}
	n := p.takeLocked(into)
	p.mu.Unlock()
	if n > 0 || timeoutMs == 0 {
		return n, nil
	}

	var timer <-chan time.Time
	if timeoutMs > 0 {
		t := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
		defer t.Stop()
		timer = t.C
	}
	select {
	case <-p.wakeCh:
	case <-timer:
	}
	p.mu.Lock()
	n = p.takeLocked(into)
	p.mu.Unlock()
	return n, nil
}

func (p *Poller) takeLocked(into []api.Ready) int {
	n := 0
	kept := p.queued[:0]
	for _, r := range p.queued {
		if _, ok := p.interests[r.Fd]; !ok {
			continue
		}
		if n < len(into) {
			into[n] = r
			n++
		} else {
			kept = append(kept, r)
		}
	}
	p.queued = kept
	return n
}

// Wake implements api.Poller.Wake.
func (p *Poller) Wake() error {
	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
	return nil
}

// Close implements api.Poller.Close.
func (p *Poller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Inject queues a readiness event and interrupts a concurrent Wait.
// Events for unregistered descriptors are dropped at delivery time.
func (p *Poller) Inject(fd int, events api.Events) {
	p.mu.Lock()
	p.queued = append(p.queued, api.Ready{Fd: fd, Events: events})
	p.mu.Unlock()
	p.Wake()
}

// SetWaitError makes every subsequent Wait fail with err.
func (p *Poller) SetWaitError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waitError = err
}

// Registered reports the current interest set for fd.
func (p *Poller) Registered(fd int) (api.Events, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev, ok := p.interests[fd]
	return ev, ok
}

// Waits returns how many times Wait has been entered.
func (p *Poller) Waits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waits
}

// Closed reports whether Close was called.
func (p *Poller) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
