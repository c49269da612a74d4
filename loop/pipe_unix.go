//go:build unix

// File: loop/pipe_unix.go
// Author: momentics <momentics@gmail.com>
//
// Pipe handle: local IPC streams over AF_UNIX sockets, plus adoption of
// inherited pipe/fifo descriptors.

package loop

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-evloop/api"
)

// Pipe is a local stream handle addressed by filesystem path.
type Pipe struct {
	stream
}

// NewPipe creates a pipe handle without an underlying descriptor yet.
func NewPipe(l *Loop) (*Pipe, error) {
	p := &Pipe{}
	if err := p.initStream(l, api.KindPipe, -1); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pipe) ensureSocket() error {
	if p.fd >= 0 {
		return nil
	}
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return api.ErrnoError(err)
	}
	if err := p.adoptFd(fd); err != nil {
		unix.Close(fd)
		return err
	}
	return nil
}

// Bind claims the given filesystem name for listening.
func (p *Pipe) Bind(name string) error {
	if p.closing {
		return api.ErrHandleClosed
	}
	if err := p.ensureSocket(); err != nil {
		return err
	}
	if err := unix.Bind(p.fd, &unix.SockaddrUnix{Name: name}); err != nil {
		return api.ErrnoError(err)
	}
	return nil
}

// Listen starts accepting; see TCP.Listen for the callback contract.
func (p *Pipe) Listen(backlog int, cb func(error)) error {
	if p.closing {
		return api.ErrHandleClosed
	}
	if p.fd < 0 {
		return api.NewCodeError(api.EBADF, nil)
	}
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}
	if err := unix.Listen(p.fd, backlog); err != nil {
		return api.ErrnoError(err)
	}
	p.listening = true
	p.connCb = cb
	return p.updateInterest()
}

// Accept takes one pending connection off the listen queue.
func (p *Pipe) Accept() (*Pipe, error) {
	nfd, _, err := unix.Accept(p.fd)
	if err != nil {
		return nil, api.ErrnoError(err)
	}
	client, err := NewPipe(p.loop)
	if err != nil {
		unix.Close(nfd)
		return nil, err
	}
	if err := client.adoptFd(nfd); err != nil {
		unix.Close(nfd)
		client.Close(nil)
		return nil, err
	}
	return client, nil
}

// Connect dials the given name. AF_UNIX connects normally complete
// immediately; the callback still fires asynchronously.
func (p *Pipe) Connect(name string, cb func(error)) error {
	if p.closing {
		return api.ErrHandleClosed
	}
	if p.connecting {
		return api.NewCodeError(api.EBUSY, nil)
	}
	if err := p.ensureSocket(); err != nil {
		return err
	}
	cerr := unix.Connect(p.fd, &unix.SockaddrUnix{Name: name})
	switch cerr {
	case nil:
		p.loop.defer_(func() {
			if !p.closing && cb != nil {
				cb(nil)
			}
		})
		return nil
	case unix.EINPROGRESS, unix.EAGAIN:
		return p.startConnect(cb)
	default:
		p.loop.defer_(func() {
			if !p.closing && cb != nil {
				cb(api.ErrnoError(cerr))
			}
		})
		return nil
	}
}

// Open adopts an existing pipe-like descriptor (fifo, socketpair end or
// inherited stdio pipe).
func (p *Pipe) Open(fd int) error {
	if p.closing {
		return api.ErrHandleClosed
	}
	if p.fd >= 0 {
		return api.NewCodeError(api.EBUSY, nil)
	}
	if kind := GuessKind(fd); kind != api.KindPipe {
		return api.ErrInvalidDescriptorKind
	}
	return p.adoptFd(fd)
}
