// File: loop/fsevent.go
// Author: momentics <momentics@gmail.com>
//
// Filesystem watcher handle over fsnotify. The watcher's own goroutine is
// bridged into the loop through the submit queue, so callbacks observe the
// usual single-threaded world.

package loop

import (
	"errors"

	"github.com/fsnotify/fsnotify"

	"github.com/momentics/hioload-evloop/api"
)

// FsEventOp classifies a filesystem notification.
type FsEventOp uint32

const (
	// FsEventRename covers creation, removal and renames of the watched path.
	FsEventRename FsEventOp = 1 << iota
	// FsEventChange covers content and metadata modification.
	FsEventChange
)

// FsEventCallback consumes one filesystem notification or watcher error.
type FsEventCallback func(path string, op FsEventOp, err error)

// FsEvent watches a filesystem path.
type FsEvent struct {
	Handle
	watcher *fsnotify.Watcher
	cb      FsEventCallback
	done    chan struct{}
}

// NewFsEvent creates an inactive watcher handle.
func NewFsEvent(l *Loop) (*FsEvent, error) {
	f := &FsEvent{}
	if err := f.Handle.init(l, api.KindFsEvent); err != nil {
		return nil, err
	}
	f.teardown = func() { f.stopLocked() }
	return f, nil
}

// Start begins watching path. Restarting replaces the watched path.
func (f *FsEvent) Start(path string, cb FsEventCallback) error {
	if f.closing {
		return api.ErrHandleClosed
	}
	f.stopLocked()
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return err
	}
	f.watcher = w
	f.cb = cb
	f.done = make(chan struct{})
	go f.forward(w, f.done)
	f.setActive(true)
	return nil
}

// Stop halts the watcher. The handle stays usable.
func (f *FsEvent) Stop() error {
	if f.closing {
		return api.ErrHandleClosed
	}
	f.stopLocked()
	return nil
}

func (f *FsEvent) stopLocked() {
	if f.watcher == nil {
		return
	}
	close(f.done)
	f.watcher.Close()
	f.watcher = nil
	f.done = nil
	f.setActive(false)
}

func mapOp(op fsnotify.Op) FsEventOp {
	var out FsEventOp
	if op.Has(fsnotify.Create) || op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
		out |= FsEventRename
	}
	if op.Has(fsnotify.Write) || op.Has(fsnotify.Chmod) {
		out |= FsEventChange
	}
	return out
}

func (f *FsEvent) forward(w *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			_ = f.loop.Submit(func() {
				if f.Active() && f.cb != nil {
					f.cb(ev.Name, mapOp(ev.Op), nil)
				}
			})
		case werr, ok := <-w.Errors:
			if !ok {
				return
			}
			if errors.Is(werr, fsnotify.ErrClosed) {
				return
			}
			_ = f.loop.Submit(func() {
				if f.Active() && f.cb != nil {
					f.cb("", 0, werr)
				}
			})
		case <-done:
			return
		}
	}
}
