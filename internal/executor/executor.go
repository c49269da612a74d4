// File: internal/executor/executor.go
// Package executor runs blocking work (filesystem, name resolution) off the
// loop goroutine. Completions are handed back to the loop through its
// thread-safe submit queue, never invoked from a worker.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package executor

import (
	"errors"
	"sync"
	"sync/atomic"
)

// DefaultWorkers matches the conventional async-engine thread pool size.
const DefaultWorkers = 4

// ErrExecutorClosed indicates the executor has been shut down.
var ErrExecutorClosed = errors.New("executor is closed")

// TaskFunc is a unit of blocking work.
type TaskFunc func()

// Executor manages a fixed pool of worker goroutines draining one queue.
type Executor struct {
	tasks   chan TaskFunc
	closeCh chan struct{}
	closed  int32
	wg      sync.WaitGroup

	totalTasks     int64
	completedTasks int64
}

// New creates an Executor with the given number of workers.
// If numWorkers <= 0, DefaultWorkers is used.
func New(numWorkers int) *Executor {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	e := &Executor{
		tasks:   make(chan TaskFunc, numWorkers*16),
		closeCh: make(chan struct{}),
	}
	e.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go e.worker()
	}
	return e
}

// Submit enqueues a task, returning ErrExecutorClosed after Close.
func (e *Executor) Submit(task TaskFunc) error {
	if atomic.LoadInt32(&e.closed) == 1 {
		return ErrExecutorClosed
	}
	atomic.AddInt64(&e.totalTasks, 1)
	select {
	case e.tasks <- task:
		return nil
	case <-e.closeCh:
		return ErrExecutorClosed
	}
}

// Close stops the workers. Tasks still queued are dropped; in-flight tasks
// finish before Close returns.
func (e *Executor) Close() {
	if atomic.CompareAndSwapInt32(&e.closed, 0, 1) {
		close(e.closeCh)
		e.wg.Wait()
	}
}

// Stats returns basic executor metrics.
func (e *Executor) Stats() map[string]int64 {
	total := atomic.LoadInt64(&e.totalTasks)
	done := atomic.LoadInt64(&e.completedTasks)
	return map[string]int64{
		"total_tasks":     total,
		"completed_tasks": done,
		"pending_tasks":   total - done,
	}
}

func (e *Executor) worker() {
	defer e.wg.Done()
	for {
		select {
		case task := <-e.tasks:
			e.executeTask(task)
		case <-e.closeCh:
			return
		}
	}
}

// executeTask runs the task and updates statistics, recovering from panics.
func (e *Executor) executeTask(task TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			// swallow panic to keep worker alive
		}
		atomic.AddInt64(&e.completedTasks, 1)
	}()
	task()
}
