//go:build unix

// File: loop/stream_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Shared duplex-stream machinery behind the TCP, Pipe and TTY handles:
// allocator-backed reads, a FIFO write-request queue drained in submission
// order, deferred shutdown and nonblocking connect completion.

package loop

import (
	"io"

	"github.com/eapache/queue"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-evloop/api"
)

// ReadCallback consumes one completed read. data is only valid for the
// duration of the call; err carries EOF or the failure code.
type ReadCallback func(data []byte, err error)

// writeRequest is one queued write: 1..n buffers, one callback after the
// aggregate payload is flushed.
type writeRequest struct {
	bufs [][]byte
	cb   func(error)
}

func (r *writeRequest) advance(n int) {
	for n > 0 && len(r.bufs) > 0 {
		if n < len(r.bufs[0]) {
			r.bufs[0] = r.bufs[0][n:]
			return
		}
		n -= len(r.bufs[0])
		r.bufs = r.bufs[1:]
	}
}

func (r *writeRequest) done() bool { return len(r.bufs) == 0 }

type stream struct {
	Handle
	fd         int
	registered bool
	reading    bool
	readCb     ReadCallback
	writes     *queue.Queue
	listening  bool
	connCb     func(error)
	connecting bool
	connectCb  func(error)
	shutCb     func(error)
	shutDone   bool
}

func (s *stream) initStream(l *Loop, kind api.HandleKind, fd int) error {
	s.fd = fd
	s.writes = queue.New()
	if err := s.Handle.init(l, kind); err != nil {
		return err
	}
	s.teardown = s.teardownStream
	return nil
}

// Fd exposes the underlying descriptor, or -1 before one exists.
func (s *stream) Fd() int { return s.fd }

// adoptFd takes ownership of an existing descriptor.
func (s *stream) adoptFd(fd int) error {
	if err := unix.SetNonblock(fd, true); err != nil {
		return api.ErrnoError(err)
	}
	unix.CloseOnExec(fd)
	s.fd = fd
	return nil
}

// ReadStart begins allocator-backed reads, delivering each chunk to cb.
func (s *stream) ReadStart(cb ReadCallback) error {
	if s.closing {
		return api.ErrHandleClosed
	}
	if s.fd < 0 {
		return api.NewCodeError(api.EBADF, nil)
	}
	s.readCb = cb
	s.reading = true
	return s.updateInterest()
}

// ReadStop halts read delivery. Idempotent.
func (s *stream) ReadStop() error {
	if s.closing {
		return api.ErrHandleClosed
	}
	s.reading = false
	return s.updateInterest()
}

// Write queues bufs for transmission. cb fires exactly once, after every
// buffer of this request has been flushed, or with the failure code.
// Requests on one stream complete in submission order.
func (s *stream) Write(bufs [][]byte, cb func(error)) error {
	if s.closing {
		return api.ErrHandleClosed
	}
	if s.fd < 0 {
		return api.NewCodeError(api.EBADF, nil)
	}
	if s.shutCb != nil || s.shutDone {
		return api.NewCodeError(api.EPIPE, nil)
	}
	req := &writeRequest{bufs: append([][]byte(nil), bufs...), cb: cb}
	s.writes.Add(req)
	s.loop.addRequest()
	return s.updateInterest()
}

// Shutdown closes the write side once queued writes have drained.
func (s *stream) Shutdown(cb func(error)) error {
	if s.closing {
		return api.ErrHandleClosed
	}
	if s.shutCb != nil || s.shutDone {
		return api.NewCodeError(api.EINVAL, nil)
	}
	s.shutCb = cb
	s.loop.addRequest()
	if s.writes.Length() == 0 {
		s.finishShutdown()
		return nil
	}
	return s.updateInterest()
}

// wantedInterest derives the poller mask from pending work.
func (s *stream) wantedInterest() api.Events {
	var ev api.Events
	if s.reading || s.listening {
		ev |= api.EventRead
	}
	if s.connecting || s.writes.Length() > 0 {
		ev |= api.EventWrite
	}
	return ev
}

func (s *stream) updateInterest() error {
	wanted := s.wantedInterest()
	switch {
	case wanted != 0 && !s.registered:
		if err := s.loop.addWatch(s.fd, wanted, s.onEvents); err != nil {
			return err
		}
		s.registered = true
	case wanted != 0:
		if err := s.loop.modWatch(s.fd, wanted); err != nil {
			return err
		}
	case s.registered:
		if err := s.loop.delWatch(s.fd); err != nil {
			return err
		}
		s.registered = false
	}
	s.setActive(wanted != 0)
	return nil
}

func (s *stream) onEvents(ev api.Events) {
	if s.closing {
		return
	}
	if s.connecting && (ev.Writable() || ev&(api.EventError|api.EventHangup) != 0) {
		s.finishConnect()
		return
	}
	if ev.Readable() {
		if s.listening {
			if s.connCb != nil {
				s.connCb(nil)
			}
		} else if s.reading {
			s.doRead()
		}
	}
	if s.closing {
		return
	}
	if ev.Writable() && s.writes.Length() > 0 {
		s.drainWrites()
	}
}

// doRead performs one allocator-backed read. A busy allocator slot skips the
// read; level-triggered polling re-reports the descriptor next iteration.
func (s *stream) doRead() {
	buf := s.loop.alloc.Acquire(poolSuggestedSize)
	if len(buf) == 0 {
		return
	}
	n, err := unix.Read(s.fd, buf)
	switch {
	case err == unix.EAGAIN || err == unix.EINTR:
		s.loop.alloc.Release()
	case err != nil:
		s.loop.alloc.Release()
		s.reading = false
		_ = s.updateInterest()
		s.readCb(nil, api.ErrnoError(err))
	case n == 0:
		s.loop.alloc.Release()
		s.reading = false
		_ = s.updateInterest()
		s.readCb(nil, api.NewCodeError(api.EOF, io.EOF))
	default:
		s.readCb(buf[:n], nil)
		s.loop.alloc.Release()
	}
}

func (s *stream) drainWrites() {
	for s.writes.Length() > 0 {
		req := s.writes.Peek().(*writeRequest)
		n, err := unix.Writev(s.fd, req.bufs)
		if err == unix.EAGAIN || err == unix.EINTR {
			return
		}
		if err != nil {
			s.failWrites(api.CodeFromErrno(err), err)
			return
		}
		req.advance(n)
		if !req.done() {
			return
		}
		s.writes.Remove()
		s.loop.doneRequest()
		if req.cb != nil {
			req.cb(nil)
		}
		if s.closing {
			return
		}
	}
	if s.shutCb != nil {
		s.finishShutdown()
	}
	_ = s.updateInterest()
}

// failWrites completes every queued write request with the same code; a
// stream error is terminal for the whole queue.
func (s *stream) failWrites(code api.Code, cause error) {
	for s.writes.Length() > 0 {
		req := s.writes.Remove().(*writeRequest)
		s.loop.doneRequest()
		if req.cb != nil {
			req.cb(api.NewCodeError(code, cause))
		}
	}
	if s.shutCb != nil {
		cb := s.shutCb
		s.shutCb = nil
		s.loop.doneRequest()
		cb(api.NewCodeError(code, cause))
	}
	if !s.closing {
		_ = s.updateInterest()
	}
}

func (s *stream) finishShutdown() {
	cb := s.shutCb
	s.shutCb = nil
	s.shutDone = true
	err := unix.Shutdown(s.fd, unix.SHUT_WR)
	s.loop.doneRequest()
	if cb != nil {
		if err != nil {
			cb(api.ErrnoError(err))
		} else {
			cb(nil)
		}
	}
}

// startConnect registers for writability to learn the connect outcome.
func (s *stream) startConnect(cb func(error)) error {
	s.connecting = true
	s.connectCb = cb
	s.loop.addRequest()
	return s.updateInterest()
}

func (s *stream) finishConnect() {
	s.connecting = false
	cb := s.connectCb
	s.connectCb = nil
	s.loop.doneRequest()

	var err error
	soerr, gerr := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if gerr != nil {
		err = api.ErrnoError(gerr)
	} else if soerr != 0 {
		err = api.ErrnoError(unix.Errno(soerr))
	}
	_ = s.updateInterest()
	if cb != nil {
		cb(err)
	}
}

// teardownStream cancels in-flight requests, deregisters and closes the fd.
// Request callbacks fire with ECANCELED in the close phase, immediately
// before the close callback, never synchronously.
func (s *stream) teardownStream() {
	if s.registered {
		_ = s.loop.delWatch(s.fd)
		s.registered = false
	}
	for s.writes.Length() > 0 {
		req := s.writes.Remove().(*writeRequest)
		s.loop.doneRequest()
		if req.cb != nil {
			cb := req.cb
			s.deferCancel(func() { cb(api.NewCodeError(api.ECANCELED, nil)) })
		}
	}
	if s.connecting {
		s.connecting = false
		s.loop.doneRequest()
		if cb := s.connectCb; cb != nil {
			s.connectCb = nil
			s.deferCancel(func() { cb(api.NewCodeError(api.ECANCELED, nil)) })
		}
	}
	if s.shutCb != nil {
		cb := s.shutCb
		s.shutCb = nil
		s.loop.doneRequest()
		s.deferCancel(func() { cb(api.NewCodeError(api.ECANCELED, nil)) })
	}
	s.reading = false
	s.listening = false
	s.setActive(false)
	if s.fd >= 0 {
		_ = unix.Close(s.fd)
		s.fd = -1
	}
}

const poolSuggestedSize = 64 * 1024
