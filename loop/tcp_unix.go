//go:build unix

// File: loop/tcp_unix.go
// Author: momentics <momentics@gmail.com>

package loop

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-evloop/api"
	"github.com/momentics/hioload-evloop/sockaddr"
)

// TCP is a stream socket handle. The socket itself is created lazily on the
// first Bind or Connect, once the address family is known.
type TCP struct {
	stream
}

// NewTCP creates a TCP handle without an underlying socket yet.
func NewTCP(l *Loop) (*TCP, error) {
	t := &TCP{}
	if err := t.initStream(l, api.KindTCP, -1); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *TCP) ensureSocket(family int) error {
	if t.fd >= 0 {
		return nil
	}
	fd, err := unix.Socket(family, unix.SOCK_STREAM, 0)
	if err != nil {
		return api.ErrnoError(err)
	}
	if err := t.adoptFd(fd); err != nil {
		unix.Close(fd)
		return err
	}
	return nil
}

// Bind assigns the local address, creating the socket if needed.
func (t *TCP) Bind(addr sockaddr.Addr) error {
	if t.closing {
		return api.ErrHandleClosed
	}
	if err := t.ensureSocket(sockaddr.Family(addr)); err != nil {
		return err
	}
	if err := unix.SetsockoptInt(t.fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return api.ErrnoError(err)
	}
	sa, err := sockaddr.ToSockaddr(addr)
	if err != nil {
		return err
	}
	if err := unix.Bind(t.fd, sa); err != nil {
		return api.ErrnoError(err)
	}
	return nil
}

// Listen starts accepting. cb fires on the loop goroutine whenever incoming
// connections are pending; call Accept until it reports EAGAIN.
func (t *TCP) Listen(backlog int, cb func(error)) error {
	if t.closing {
		return api.ErrHandleClosed
	}
	if t.fd < 0 {
		return api.NewCodeError(api.EBADF, nil)
	}
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}
	if err := unix.Listen(t.fd, backlog); err != nil {
		return api.ErrnoError(err)
	}
	t.listening = true
	t.connCb = cb
	return t.updateInterest()
}

// Accept takes one pending connection off the listen queue.
func (t *TCP) Accept() (*TCP, error) {
	nfd, _, err := unix.Accept(t.fd)
	if err != nil {
		return nil, api.ErrnoError(err)
	}
	client, err := NewTCP(t.loop)
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

// Connect starts a nonblocking connect; cb receives the outcome (for
// example ECONNREFUSED) asynchronously.
func (t *TCP) Connect(addr sockaddr.Addr, cb func(error)) error {
	if t.closing {
		return api.ErrHandleClosed
	}
	if t.connecting {
		return api.NewCodeError(api.EBUSY, nil)
	}
	if err := t.ensureSocket(sockaddr.Family(addr)); err != nil {
		return err
	}
	sa, err := sockaddr.ToSockaddr(addr)
	if err != nil {
		return err
	}
	cerr := unix.Connect(t.fd, sa)
	switch cerr {
	case nil:
		t.loop.defer_(func() {
			if !t.closing && cb != nil {
				cb(nil)
			}
		})
		return nil
	case unix.EINPROGRESS:
		return t.startConnect(cb)
	default:
		return api.ErrnoError(cerr)
	}
}

// NoDelay toggles TCP_NODELAY.
func (t *TCP) NoDelay(on bool) error {
	return setSockoptBool(t.fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, on)
}

// KeepAlive toggles SO_KEEPALIVE with an optional idle delay.
func (t *TCP) KeepAlive(on bool, delay time.Duration) error {
	if err := setSockoptBool(t.fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, on); err != nil {
		return err
	}
	if on && delay > 0 {
		return setKeepAliveIdle(t.fd, int(delay.Seconds()))
	}
	return nil
}

// SockName returns the locally bound address.
func (t *TCP) SockName() (sockaddr.Addr, error) {
	sa, err := unix.Getsockname(t.fd)
	if err != nil {
		return sockaddr.Addr{}, api.ErrnoError(err)
	}
	return sockaddr.FromSockaddr(sa)
}

// PeerName returns the remote address of a connected socket.
func (t *TCP) PeerName() (sockaddr.Addr, error) {
	sa, err := unix.Getpeername(t.fd)
	if err != nil {
		return sockaddr.Addr{}, api.ErrnoError(err)
	}
	return sockaddr.FromSockaddr(sa)
}

func setSockoptBool(fd, level, opt int, on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := unix.SetsockoptInt(fd, level, opt, v); err != nil {
		return api.ErrnoError(err)
	}
	return nil
}
