//go:build unix

// File: loop/udp_unix.go
// Author: momentics <momentics@gmail.com>

package loop

import (
	"github.com/eapache/queue"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-evloop/api"
	"github.com/momentics/hioload-evloop/sockaddr"
)

// RecvCallback consumes one received datagram. data is only valid for the
// duration of the call.
type RecvCallback func(data []byte, from sockaddr.Addr, err error)

// sendRequest is one queued datagram; the payload buffers are sent as a
// single message and acknowledged with one callback.
type sendRequest struct {
	payload []byte
	to      unix.Sockaddr
	cb      func(error)
}

// UDP is a datagram socket handle.
type UDP struct {
	Handle
	fd         int
	registered bool
	receiving  bool
	recvCb     RecvCallback
	sends      *queue.Queue
}

// NewUDP creates a UDP handle without an underlying socket yet.
func NewUDP(l *Loop) (*UDP, error) {
	u := &UDP{fd: -1, sends: queue.New()}
	if err := u.Handle.init(l, api.KindUDP); err != nil {
		return nil, err
	}
	u.teardown = u.teardownUDP
	return u, nil
}

// Fd exposes the underlying descriptor, or -1 before one exists.
func (u *UDP) Fd() int { return u.fd }

func (u *UDP) ensureSocket(family int) error {
	if u.fd >= 0 {
		return nil
	}
	fd, err := unix.Socket(family, unix.SOCK_DGRAM, 0)
	if err != nil {
		return api.ErrnoError(err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return api.ErrnoError(err)
	}
	unix.CloseOnExec(fd)
	u.fd = fd
	return nil
}

// Bind assigns the local address, creating the socket if needed.
func (u *UDP) Bind(addr sockaddr.Addr) error {
	if u.closing {
		return api.ErrHandleClosed
	}
	if err := u.ensureSocket(sockaddr.Family(addr)); err != nil {
		return err
	}
	if err := unix.SetsockoptInt(u.fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return api.ErrnoError(err)
	}
	sa, err := sockaddr.ToSockaddr(addr)
	if err != nil {
		return err
	}
	if err := unix.Bind(u.fd, sa); err != nil {
		return api.ErrnoError(err)
	}
	return nil
}

// RecvStart begins datagram delivery.
func (u *UDP) RecvStart(cb RecvCallback) error {
	if u.closing {
		return api.ErrHandleClosed
	}
	if u.fd < 0 {
		return api.NewCodeError(api.EBADF, nil)
	}
	u.recvCb = cb
	u.receiving = true
	return u.updateInterest()
}

// RecvStop halts datagram delivery. Idempotent.
func (u *UDP) RecvStop() error {
	if u.closing {
		return api.ErrHandleClosed
	}
	u.receiving = false
	return u.updateInterest()
}

// Send queues one datagram built from bufs. The callback fires once, after
// the whole message is handed to the kernel. Sends complete in order.
func (u *UDP) Send(bufs [][]byte, addr sockaddr.Addr, cb func(error)) error {
	if u.closing {
		return api.ErrHandleClosed
	}
	if err := u.ensureSocket(sockaddr.Family(addr)); err != nil {
		return err
	}
	sa, err := sockaddr.ToSockaddr(addr)
	if err != nil {
		return err
	}
	size := 0
	for _, b := range bufs {
		size += len(b)
	}
	payload := make([]byte, 0, size)
	for _, b := range bufs {
		payload = append(payload, b...)
	}
	u.sends.Add(&sendRequest{payload: payload, to: sa, cb: cb})
	u.loop.addRequest()
	return u.updateInterest()
}

// SetBroadcast toggles SO_BROADCAST.
func (u *UDP) SetBroadcast(on bool) error {
	return setSockoptBool(u.fd, unix.SOL_SOCKET, unix.SO_BROADCAST, on)
}

// SetTTL sets the unicast time-to-live.
func (u *UDP) SetTTL(ttl int) error {
	if ttl < 1 || ttl > 255 {
		return api.NewCodeError(api.EINVAL, nil)
	}
	if err := unix.SetsockoptInt(u.fd, unix.IPPROTO_IP, unix.IP_TTL, ttl); err != nil {
		return api.ErrnoError(err)
	}
	return nil
}

// SockName returns the locally bound address.
func (u *UDP) SockName() (sockaddr.Addr, error) {
	sa, err := unix.Getsockname(u.fd)
	if err != nil {
		return sockaddr.Addr{}, api.ErrnoError(err)
	}
	return sockaddr.FromSockaddr(sa)
}

func (u *UDP) wantedInterest() api.Events {
	var ev api.Events
	if u.receiving {
		ev |= api.EventRead
	}
	if u.sends.Length() > 0 {
		ev |= api.EventWrite
	}
	return ev
}

func (u *UDP) updateInterest() error {
	wanted := u.wantedInterest()
	switch {
	case wanted != 0 && !u.registered:
		if err := u.loop.addWatch(u.fd, wanted, u.onEvents); err != nil {
			return err
		}
		u.registered = true
	case wanted != 0:
		if err := u.loop.modWatch(u.fd, wanted); err != nil {
			return err
		}
	case u.registered:
		if err := u.loop.delWatch(u.fd); err != nil {
			return err
		}
		u.registered = false
	}
	u.setActive(wanted != 0)
	return nil
}

func (u *UDP) onEvents(ev api.Events) {
	if u.closing {
		return
	}
	if ev.Readable() && u.receiving {
		u.doRecv()
	}
	if u.closing {
		return
	}
	if ev.Writable() && u.sends.Length() > 0 {
		u.drainSends()
	}
}

func (u *UDP) doRecv() {
	buf := u.loop.alloc.Acquire(poolSuggestedSize)
	if len(buf) == 0 {
		return
	}
	n, sa, err := unix.Recvfrom(u.fd, buf, 0)
	if err == unix.EAGAIN || err == unix.EINTR {
		u.loop.alloc.Release()
		return
	}
	if err != nil {
		u.loop.alloc.Release()
		u.recvCb(nil, sockaddr.Addr{}, api.ErrnoError(err))
		return
	}
	from, aerr := sockaddr.FromSockaddr(sa)
	if aerr != nil {
		u.loop.alloc.Release()
		u.recvCb(nil, sockaddr.Addr{}, aerr)
		return
	}
	u.recvCb(buf[:n], from, nil)
	u.loop.alloc.Release()
}

func (u *UDP) drainSends() {
	for u.sends.Length() > 0 {
		req := u.sends.Peek().(*sendRequest)
		err := unix.Sendto(u.fd, req.payload, 0, req.to)
		if err == unix.EAGAIN || err == unix.EINTR {
			return
		}
		u.sends.Remove()
		u.loop.doneRequest()
		if req.cb != nil {
			if err != nil {
				req.cb(api.ErrnoError(err))
			} else {
				req.cb(nil)
			}
		}
		if u.closing {
			return
		}
	}
	_ = u.updateInterest()
}

func (u *UDP) teardownUDP() {
	if u.registered {
		_ = u.loop.delWatch(u.fd)
		u.registered = false
	}
	for u.sends.Length() > 0 {
		req := u.sends.Remove().(*sendRequest)
		u.loop.doneRequest()
		if req.cb != nil {
			cb := req.cb
			u.deferCancel(func() { cb(api.NewCodeError(api.ECANCELED, nil)) })
		}
	}
	u.receiving = false
	u.setActive(false)
	if u.fd >= 0 {
		_ = unix.Close(u.fd)
		u.fd = -1
	}
}
