// File: loop/signal.go
// Author: momentics <momentics@gmail.com>

package loop

import (
	"os"
	"os/signal"

	"github.com/momentics/hioload-evloop/api"
)

// Signal delivers OS signals on the loop goroutine. The runtime's signal
// dispatch is bridged through the loop's submit queue, so the callback
// observes the same single-threaded world as every other handle.
type Signal struct {
	Handle
	cb   func(*Signal, os.Signal)
	ch   chan os.Signal
	done chan struct{}
}

// NewSignal creates an inactive signal handle.
func NewSignal(l *Loop) (*Signal, error) {
	s := &Signal{}
	if err := s.Handle.init(l, api.KindSignal); err != nil {
		return nil, err
	}
	s.teardown = func() { s.stopLocked() }
	return s, nil
}

// Start subscribes to sig. Restarting replaces the subscription.
func (s *Signal) Start(sig os.Signal, cb func(*Signal, os.Signal)) error {
	if s.closing {
		return api.ErrHandleClosed
	}
	s.stopLocked()
	s.cb = cb
	s.ch = make(chan os.Signal, 1)
	s.done = make(chan struct{})
	signal.Notify(s.ch, sig)
	go s.forward(s.ch, s.done)
	s.setActive(true)
	return nil
}

// Stop unsubscribes. The handle stays usable.
func (s *Signal) Stop() error {
	if s.closing {
		return api.ErrHandleClosed
	}
	s.stopLocked()
	return nil
}

func (s *Signal) stopLocked() {
	if s.ch == nil {
		return
	}
	signal.Stop(s.ch)
	close(s.done)
	s.ch = nil
	s.done = nil
	s.setActive(false)
}

func (s *Signal) forward(ch chan os.Signal, done chan struct{}) {
	for {
		select {
		case sig := <-ch:
			// Submit fails only when the loop is gone; drop the signal then.
			_ = s.loop.Submit(func() {
				if s.Active() && s.cb != nil {
					s.cb(s, sig)
				}
			})
		case <-done:
			return
		}
	}
}
