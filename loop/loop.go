// File: loop/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The reactor loop: owns the platform poller, the timer heap, the pending
// FIFO, the closing list and one read-buffer allocator.

package loop

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-evloop/api"
	"github.com/momentics/hioload-evloop/internal/executor"
	"github.com/momentics/hioload-evloop/pool"
	"github.com/momentics/hioload-evloop/reactor"
)

const readyBatch = 128

type watcher struct {
	fd     int
	events api.Events
	cb     func(api.Events)
}

// Loop is the central engine. All methods except Submit must be called from
// the goroutine driving Run.
type Loop struct {
	poller api.Poller
	alloc  api.Allocator

	mu        sync.Mutex // guards submitted and the closed flag for Submit
	submitted *queue.Queue

	pending *queue.Queue // loop-thread deferred callbacks, FIFO
	closing *queue.Queue // handles awaiting their close phase

	timers   timerHeap
	timerSeq uint64

	watchers map[int]*watcher
	handles  map[*Handle]struct{}

	activeRefs int
	requests   int

	idles    []*Idle
	prepares []*Prepare
	checks   []*Check

	exec     *executor.Executor
	execOnce sync.Once
	workers  int

	start time.Time
	nowMs int64

	readyBuf []api.Ready

	running  bool
	stopping bool
	closed   bool

	// atomics mirrored for cross-thread debug probes
	nHandles   atomic.Int64
	nRequests  atomic.Int64
	iterations atomic.Int64
}

type options struct {
	alloc   api.Allocator
	poller  api.Poller
	bufSize int
	workers int
}

// Option configures loop construction.
type Option func(*options)

// WithAllocator injects the read-buffer allocation strategy.
func WithAllocator(a api.Allocator) Option {
	return func(o *options) { o.alloc = a }
}

// WithBufferSize sets the slab size of the default single-slot allocator.
func WithBufferSize(size int) Option {
	return func(o *options) { o.bufSize = size }
}

// WithPoller injects the readiness backend, replacing the platform default.
func WithPoller(p api.Poller) Option {
	return func(o *options) { o.poller = p }
}

// WithWorkers sets the blocking-work pool size used by fs and dns requests.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// New creates an event loop. The caller goroutine that invokes Run becomes
// the loop thread.
func New(opts ...Option) (*Loop, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	p := o.poller
	if p == nil {
		var err error
		p, err = reactor.New()
		if err != nil {
			return nil, err
		}
	}
	a := o.alloc
	if a == nil {
		a = pool.NewSingleSlot(o.bufSize)
	}
	return &Loop{
		poller:    p,
		alloc:     a,
		submitted: queue.New(),
		pending:   queue.New(),
		closing:   queue.New(),
		watchers:  make(map[int]*watcher),
		handles:   make(map[*Handle]struct{}),
		workers:   o.workers,
		start:     time.Now(),
		readyBuf:  make([]api.Ready, readyBatch),
	}, nil
}

var (
	defaultMu   sync.Mutex
	defaultLoop *Loop
)

// Default returns the process-wide default loop, creating it on first use.
// The default loop is a convenience for single-loop programs; it is still
// owned by whichever goroutine runs it.
func Default() (*Loop, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLoop == nil || defaultLoop.closed {
		l, err := New()
		if err != nil {
			return nil, err
		}
		defaultLoop = l
	}
	return defaultLoop, nil
}

// Now returns the loop's cached monotonic time in milliseconds. It advances
// once per iteration, not per call.
func (l *Loop) Now() int64 { return l.nowMs }

// UpdateTime refreshes the cached time immediately.
func (l *Loop) UpdateTime() { l.nowMs = time.Since(l.start).Milliseconds() }

// Alive reports whether the loop still has work keeping RunDefault spinning.
func (l *Loop) Alive() bool {
	if l.closed {
		return false
	}
	return l.alive()
}

func (l *Loop) alive() bool {
	return l.activeRefs > 0 || l.requests > 0 || l.closing.Length() > 0
}

// HandleCount returns the number of live (not yet closed) handles.
// Safe from any goroutine.
func (l *Loop) HandleCount() int { return int(l.nHandles.Load()) }

// RequestCount returns the number of in-flight requests.
// Safe from any goroutine.
func (l *Loop) RequestCount() int { return int(l.nRequests.Load()) }

// Walk visits every live handle. The callback may close handles.
func (l *Loop) Walk(fn func(h *Handle)) {
	snapshot := make([]*Handle, 0, len(l.handles))
	for h := range l.handles {
		snapshot = append(snapshot, h)
	}
	for _, h := range snapshot {
		fn(h)
	}
}

// CloseAll requests closure of every live handle.
func (l *Loop) CloseAll() {
	l.Walk(func(h *Handle) { h.Close(nil) })
}

// Run drives iterations according to mode. It returns true if the loop is
// still alive (more work exists) and an error only when the platform poller
// itself fails, which aborts the run.
func (l *Loop) Run(mode api.RunMode) (bool, error) {
	if l.closed {
		return false, api.ErrLoopClosed
	}
	if l.running {
		return false, api.ErrLoopBusy
	}
	l.running = true
	defer func() {
		l.running = false
		l.stopping = false
	}()

	for !l.stopping && (l.alive() || l.hasImmediateWork()) {
		l.iterations.Add(1)
		l.UpdateTime()
		l.runIdles()
		l.runPrepares()

		timeout := l.pollTimeout(mode)
		if err := l.pollOnce(timeout); err != nil {
			return l.alive(), err
		}
		l.UpdateTime()

		l.runTimers()
		l.runPending()
		l.runChecks()
		l.runClosing()

		if l.stopping || mode != api.RunDefault {
			break
		}
	}
	return l.alive(), nil
}

// Stop requests a graceful exit once the current iteration's callbacks have
// finished. The method itself is unsynchronized: calling it directly from
// another goroutine races on the stop flag, so route cross-thread stops
// through Submit(l.Stop).
func (l *Loop) Stop() { l.stopping = true }

// Close tears the loop down. It fails with ErrLoopBusy while live handles
// or in-flight requests remain or Run is active; every operation afterwards
// reports ErrLoopClosed.
func (l *Loop) Close() error {
	if l.closed {
		return nil
	}
	if l.running || len(l.handles) > 0 || l.closing.Length() > 0 || l.requests > 0 {
		return api.ErrLoopBusy
	}
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	if l.exec != nil {
		l.exec.Close()
	}
	return l.poller.Close()
}

// Submit schedules fn onto the loop goroutine's pending phase. It is the
// only loop method safe to call from other goroutines; it interrupts a
// blocked poll.
func (l *Loop) Submit(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return api.ErrLoopClosed
	}
	l.submitted.Add(fn)
	l.mu.Unlock()
	return l.poller.Wake()
}

// hasImmediateWork reports queued callbacks that must run even when no
// handle keeps the loop alive.
func (l *Loop) hasImmediateWork() bool {
	l.mu.Lock()
	subs := l.submitted.Length()
	l.mu.Unlock()
	return subs > 0 || l.pending.Length() > 0
}

func (l *Loop) pollTimeout(mode api.RunMode) int {
	if mode == api.RunNoWait || l.stopping {
		return 0
	}
	if l.hasImmediateWork() || l.closing.Length() > 0 || len(l.idles) > 0 {
		return 0
	}
	if e, ok := l.timers.peek(); ok {
		ms := e.deadline - l.nowMs
		if ms < 0 {
			ms = 0
		}
		return int(ms)
	}
	if !l.alive() {
		return 0
	}
	return -1
}

func (l *Loop) pollOnce(timeout int) error {
	n, err := l.poller.Wait(l.readyBuf, timeout)
	if err != nil {
		return api.BackendFatal(err)
	}
	for i := 0; i < n; i++ {
		r := l.readyBuf[i]
		if w := l.watchers[r.Fd]; w != nil {
			w.cb(r.Events)
		}
	}
	return nil
}

func (l *Loop) runTimers() {
	for {
		e, ok := l.timers.peek()
		if !ok || e.deadline > l.nowMs {
			return
		}
		t := e.timer
		l.unscheduleTimer(t)
		if t.repeatMs > 0 {
			l.scheduleTimer(t, l.nowMs+t.repeatMs)
		} else {
			t.setActive(false)
		}
		if t.cb != nil {
			t.cb(t)
		}
	}
}

// runPending drains the callbacks queued as of phase entry; work deferred
// from within a pending callback waits for the next iteration.
func (l *Loop) runPending() {
	l.mu.Lock()
	for l.submitted.Length() > 0 {
		l.pending.Add(l.submitted.Remove())
	}
	l.mu.Unlock()
	n := l.pending.Length()
	for i := 0; i < n; i++ {
		fn := l.pending.Remove().(func())
		fn()
	}
}

func (l *Loop) runClosing() {
	n := l.closing.Length()
	for i := 0; i < n; i++ {
		h := l.closing.Remove().(*Handle)
		h.closed = true
		l.detach(h)
		for _, fn := range h.cancelCbs {
			fn()
		}
		h.cancelCbs = nil
		if h.closeCb != nil {
			cb := h.closeCb
			h.closeCb = nil
			cb()
		}
	}
}

func (l *Loop) runIdles() {
	for _, i := range append([]*Idle(nil), l.idles...) {
		if i.Active() && i.cb != nil {
			i.cb(i)
		}
	}
}

func (l *Loop) runPrepares() {
	for _, p := range append([]*Prepare(nil), l.prepares...) {
		if p.Active() && p.cb != nil {
			p.cb(p)
		}
	}
}

func (l *Loop) runChecks() {
	for _, c := range append([]*Check(nil), l.checks...) {
		if c.Active() && c.cb != nil {
			c.cb(c)
		}
	}
}

// defer_ queues fn into the current loop's pending phase (loop thread only).
func (l *Loop) defer_(fn func()) {
	l.pending.Add(fn)
}

func (l *Loop) attach(h *Handle) {
	l.handles[h] = struct{}{}
	l.nHandles.Add(1)
}

func (l *Loop) detach(h *Handle) {
	delete(l.handles, h)
	l.nHandles.Add(-1)
}

func (l *Loop) addRequest() {
	l.requests++
	l.nRequests.Add(1)
}

func (l *Loop) doneRequest() {
	l.requests--
	l.nRequests.Add(-1)
}

// executorLazy builds the blocking-work pool on first fs/dns request.
func (l *Loop) executorLazy() *executor.Executor {
	l.execOnce.Do(func() {
		l.exec = executor.New(l.workers)
	})
	return l.exec
}

func (l *Loop) addWatch(fd int, events api.Events, cb func(api.Events)) error {
	if _, dup := l.watchers[fd]; dup {
		return api.NewCodeError(api.EBUSY, nil)
	}
	if err := l.poller.Add(fd, events); err != nil {
		return err
	}
	l.watchers[fd] = &watcher{fd: fd, events: events, cb: cb}
	return nil
}

func (l *Loop) modWatch(fd int, events api.Events) error {
	w := l.watchers[fd]
	if w == nil {
		return api.NewCodeError(api.EBADF, nil)
	}
	if err := l.poller.Mod(fd, events); err != nil {
		return err
	}
	w.events = events
	return nil
}

func (l *Loop) delWatch(fd int) error {
	if _, ok := l.watchers[fd]; !ok {
		return nil
	}
	delete(l.watchers, fd)
	return l.poller.Del(fd)
}
