//go:build linux

// File: reactor/epoll_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7) poller with an eventfd-based wakeup channel.

package reactor

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-evloop/api"
)

type epollPoller struct {
	epfd   int
	wakeFd int
	events []unix.EpollEvent
	wbuf   [8]byte
}

// New constructs the platform poller for Linux.
func New() (api.Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	wakeFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	p := &epollPoller{epfd: epfd, wakeFd: wakeFd}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakeFd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFd, &ev); err != nil {
		unix.Close(wakeFd)
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll ctl add wakeup: %w", err)
	}
	return p, nil
}

func epollMask(events api.Events) uint32 {
	var mask uint32 = unix.EPOLLRDHUP
	if events&api.EventRead != 0 {
		mask |= unix.EPOLLIN
	}
	if events&api.EventWrite != 0 {
		mask |= unix.EPOLLOUT
	}
	return mask
}

func (p *epollPoller) ctl(op, fd int, events api.Events) error {
	ev := unix.EpollEvent{Events: epollMask(events), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, op, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl: %w", err)
	}
	return nil
}

func (p *epollPoller) Add(fd int, events api.Events) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, events)
}

func (p *epollPoller) Mod(fd int, events api.Events) error {
	return p.ctl(unix.EPOLL_CTL_MOD, fd, events)
}

func (p *epollPoller) Del(fd int) error {
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del: %w", err)
	}
	return nil
}

func (p *epollPoller) Wait(into []api.Ready, timeoutMs int) (int, error) {
	if cap(p.events) < len(into) {
		p.events = make([]unix.EpollEvent, len(into))
	}
	raw := p.events[:len(into)]
	n, err := unix.EpollWait(p.epfd, raw, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}
	out := 0
	for i := 0; i < n; i++ {
		fd := int(raw[i].Fd)
		if fd == p.wakeFd {
			p.drainWake()
			continue
		}
		var events api.Events
		if raw[i].Events&(unix.EPOLLIN|unix.EPOLLPRI) != 0 {
			events |= api.EventRead
		}
		if raw[i].Events&unix.EPOLLOUT != 0 {
			events |= api.EventWrite
		}
		if raw[i].Events&unix.EPOLLERR != 0 {
			events |= api.EventError
		}
		if raw[i].Events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
			events |= api.EventHangup
		}
		into[out] = api.Ready{Fd: fd, Events: events}
		out++
	}
	return out, nil
}

func (p *epollPoller) drainWake() {
	// Reset the eventfd counter; EAGAIN means another drain won the race.
	_, _ = unix.Read(p.wakeFd, p.wbuf[:])
}

func (p *epollPoller) Wake() error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(p.wakeFd, buf[:])
	if err == unix.EAGAIN {
		// Counter saturated: a wakeup is already pending.
		return nil
	}
	return err
}

func (p *epollPoller) Close() error {
	err := unix.Close(p.wakeFd)
	if cerr := unix.Close(p.epfd); err == nil {
		err = cerr
	}
	return err
}
