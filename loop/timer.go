// File: loop/timer.go
// Author: momentics <momentics@gmail.com>

package loop

import (
	"time"

	"github.com/momentics/hioload-evloop/api"
)

// Timer fires a callback after a timeout, optionally repeating. Equal
// deadlines fire in start order.
type Timer struct {
	Handle
	cb       func(*Timer)
	repeatMs int64
	entry    *timerEntry
}

// NewTimer creates an inactive timer bound to l.
func NewTimer(l *Loop) (*Timer, error) {
	t := &Timer{}
	if err := t.Handle.init(l, api.KindTimer); err != nil {
		return nil, err
	}
	t.teardown = func() { t.stopLocked() }
	return t, nil
}

// Start schedules the callback after timeout, then every repeat interval if
// repeat > 0. Restarting an active timer reschedules it.
func (t *Timer) Start(cb func(*Timer), timeout, repeat time.Duration) error {
	if t.closing {
		return api.ErrHandleClosed
	}
	t.stopLocked()
	t.cb = cb
	t.repeatMs = repeat.Milliseconds()
	t.loop.scheduleTimer(t, t.loop.nowMs+timeout.Milliseconds())
	t.setActive(true)
	return nil
}

// Stop cancels the pending expiration. The handle stays usable.
func (t *Timer) Stop() error {
	if t.closing {
		return api.ErrHandleClosed
	}
	t.stopLocked()
	return nil
}

// Again restarts the timer using the repeat interval. EINVAL when the timer
// has no repeat configured.
func (t *Timer) Again() error {
	if t.closing {
		return api.ErrHandleClosed
	}
	if t.repeatMs <= 0 {
		return api.NewCodeError(api.EINVAL, nil)
	}
	t.stopLocked()
	t.loop.scheduleTimer(t, t.loop.nowMs+t.repeatMs)
	t.setActive(true)
	return nil
}

// Repeat returns the configured repeat interval.
func (t *Timer) Repeat() time.Duration {
	return time.Duration(t.repeatMs) * time.Millisecond
}

// SetRepeat changes the repeat interval applied after the next expiration.
func (t *Timer) SetRepeat(repeat time.Duration) {
	t.repeatMs = repeat.Milliseconds()
}

func (t *Timer) stopLocked() {
	t.loop.unscheduleTimer(t)
	t.setActive(false)
}
