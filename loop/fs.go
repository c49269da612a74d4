// File: loop/fs.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Asynchronous filesystem requests. The blocking syscall runs on the worker
// pool; the completion callback always runs on the loop goroutine.
// Cancellation is best-effort: work already running finishes and its
// completion still fires, carrying ECANCELED only when the cancel won.

package loop

import (
	"errors"
	"io"
	"os"
	"sync/atomic"

	"github.com/momentics/hioload-evloop/api"
)

// FsRequest tracks one in-flight filesystem operation.
type FsRequest struct {
	loop     *Loop
	canceled atomic.Bool
}

// Cancel requests best-effort cancellation. The completion callback still
// fires; if the work had already started it carries the real result.
func (r *FsRequest) Cancel() {
	r.canceled.Store(true)
}

// startFs accounts the request and ships work to the pool. deliver runs on
// the loop goroutine exactly once.
func startFs[T any](l *Loop, work func() (T, error), cb func(T, error)) *FsRequest {
	r := &FsRequest{loop: l}
	l.addRequest()
	finish := func(v T, err error) {
		// Loop gone before completion: the result is dropped, surfacing
		// only through the request count.
		_ = l.Submit(func() {
			l.doneRequest()
			if cb != nil {
				cb(v, err)
			}
		})
	}
	err := l.executorLazy().Submit(func() {
		var zero T
		if r.canceled.Load() {
			finish(zero, api.NewCodeError(api.ECANCELED, nil))
			return
		}
		v, werr := work()
		if werr != nil {
			finish(zero, fsError(werr))
			return
		}
		finish(v, nil)
	})
	if err != nil {
		var zero T
		l.defer_(func() {
			l.doneRequest()
			if cb != nil {
				cb(zero, api.NewCodeError(api.ECANCELED, err))
			}
		})
	}
	return r
}

// fsError maps a worker error onto the portable code space. io.EOF from
// positional reads becomes the EOF code rather than EUNKNOWN.
func fsError(err error) error {
	if errors.Is(err, io.EOF) {
		return api.NewCodeError(api.EOF, err)
	}
	return api.ErrnoError(err)
}

// FsStat stats path asynchronously.
func FsStat(l *Loop, path string, cb func(os.FileInfo, error)) *FsRequest {
	return startFs(l, func() (os.FileInfo, error) { return os.Stat(path) }, cb)
}

// FsOpen opens path asynchronously.
func FsOpen(l *Loop, path string, flag int, perm os.FileMode, cb func(*os.File, error)) *FsRequest {
	return startFs(l, func() (*os.File, error) { return os.OpenFile(path, flag, perm) }, cb)
}

// FsRead reads up to size bytes at off.
func FsRead(l *Loop, f *os.File, off int64, size int, cb func([]byte, error)) *FsRequest {
	return startFs(l, func() ([]byte, error) {
		buf := make([]byte, size)
		n, err := f.ReadAt(buf, off)
		if n > 0 {
			return buf[:n], nil
		}
		return nil, err
	}, cb)
}

// FsWrite writes data at off, reporting the byte count.
func FsWrite(l *Loop, f *os.File, off int64, data []byte, cb func(int, error)) *FsRequest {
	return startFs(l, func() (int, error) { return f.WriteAt(data, off) }, cb)
}

// FsClose closes f asynchronously.
func FsClose(l *Loop, f *os.File, cb func(error)) *FsRequest {
	return startFs(l, func() (struct{}, error) { return struct{}{}, f.Close() },
		func(_ struct{}, err error) {
			if cb != nil {
				cb(err)
			}
		})
}

// FsUnlink removes path.
func FsUnlink(l *Loop, path string, cb func(error)) *FsRequest {
	return startFs(l, func() (struct{}, error) { return struct{}{}, os.Remove(path) },
		func(_ struct{}, err error) {
			if cb != nil {
				cb(err)
			}
		})
}

// FsMkdir creates a directory at path.
func FsMkdir(l *Loop, path string, perm os.FileMode, cb func(error)) *FsRequest {
	return startFs(l, func() (struct{}, error) { return struct{}{}, os.Mkdir(path, perm) },
		func(_ struct{}, err error) {
			if cb != nil {
				cb(err)
			}
		})
}

// FsRename moves oldPath to newPath.
func FsRename(l *Loop, oldPath, newPath string, cb func(error)) *FsRequest {
	return startFs(l, func() (struct{}, error) { return struct{}{}, os.Rename(oldPath, newPath) },
		func(_ struct{}, err error) {
			if cb != nil {
				cb(err)
			}
		})
}

// FsReadDir lists a directory.
func FsReadDir(l *Loop, path string, cb func([]os.DirEntry, error)) *FsRequest {
	return startFs(l, func() ([]os.DirEntry, error) { return os.ReadDir(path) }, cb)
}
