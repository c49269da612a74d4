//go:build darwin || freebsd || netbsd || openbsd || dragonfly

// File: reactor/kqueue_bsd.go
// Author: momentics <momentics@gmail.com>
//
// kqueue(2) poller for BSD-like platforms with a self-pipe wakeup channel.

package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-evloop/api"
)

type kqueuePoller struct {
	kq       int
	wakeRead int
	wakeWrit int
	interest map[int]api.Events
	events   []unix.Kevent_t
	dbuf     [64]byte
}

// New constructs the platform poller for kqueue systems.
func New() (api.Poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("kqueue: %w", err)
	}
	unix.CloseOnExec(kq)
	var pfds [2]int
	if err := unix.Pipe(pfds[:]); err != nil {
		unix.Close(kq)
		return nil, fmt.Errorf("wakeup pipe: %w", err)
	}
	for _, fd := range pfds {
		unix.SetNonblock(fd, true)
		unix.CloseOnExec(fd)
	}
	p := &kqueuePoller{
		kq:       kq,
		wakeRead: pfds[0],
		wakeWrit: pfds[1],
		interest: make(map[int]api.Events),
	}
	var kev unix.Kevent_t
	unix.SetKevent(&kev, p.wakeRead, unix.EVFILT_READ, unix.EV_ADD)
	if _, err := unix.Kevent(kq, []unix.Kevent_t{kev}, nil, nil); err != nil {
		p.Close()
		return nil, fmt.Errorf("kevent add wakeup: %w", err)
	}
	return p, nil
}

// apply reconciles the registered filter set of fd with the wanted mask.
func (p *kqueuePoller) apply(fd int, want api.Events) error {
	have := p.interest[fd]
	changes := make([]unix.Kevent_t, 0, 2)
	add := func(filter int, on bool) {
		var kev unix.Kevent_t
		flags := unix.EV_DELETE
		if on {
			flags = unix.EV_ADD
		}
		unix.SetKevent(&kev, fd, filter, flags)
		changes = append(changes, kev)
	}
	if want&api.EventRead != have&api.EventRead {
		add(unix.EVFILT_READ, want&api.EventRead != 0)
	}
	if want&api.EventWrite != have&api.EventWrite {
		add(unix.EVFILT_WRITE, want&api.EventWrite != 0)
	}
	if len(changes) == 0 {
		return nil
	}
	if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
		return fmt.Errorf("kevent change: %w", err)
	}
	if want == 0 {
		delete(p.interest, fd)
	} else {
		p.interest[fd] = want
	}
	return nil
}

func (p *kqueuePoller) Add(fd int, events api.Events) error { return p.apply(fd, events) }
func (p *kqueuePoller) Mod(fd int, events api.Events) error { return p.apply(fd, events) }
func (p *kqueuePoller) Del(fd int) error                    { return p.apply(fd, 0) }

func (p *kqueuePoller) Wait(into []api.Ready, timeoutMs int) (int, error) {
	if cap(p.events) < len(into) {
		p.events = make([]unix.Kevent_t, len(into))
	}
	raw := p.events[:len(into)]
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMs) * 1e6)
		ts = &t
	}
	n, err := unix.Kevent(p.kq, nil, raw, ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("kevent wait: %w", err)
	}
	out := 0
	for i := 0; i < n; i++ {
		fd := int(raw[i].Ident)
		if fd == p.wakeRead {
			p.drainWake()
			continue
		}
		var events api.Events
		switch raw[i].Filter {
		case unix.EVFILT_READ:
			events |= api.EventRead
		case unix.EVFILT_WRITE:
			events |= api.EventWrite
		}
		if raw[i].Flags&unix.EV_EOF != 0 {
			events |= api.EventHangup
		}
		if raw[i].Flags&unix.EV_ERROR != 0 {
			events |= api.EventError
		}
		into[out] = api.Ready{Fd: fd, Events: events}
		out++
	}
	return out, nil
}

func (p *kqueuePoller) drainWake() {
	for {
		if _, err := unix.Read(p.wakeRead, p.dbuf[:]); err != nil {
			return
		}
	}
}

func (p *kqueuePoller) Wake() error {
	_, err := unix.Write(p.wakeWrit, []byte{0})
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (p *kqueuePoller) Close() error {
	unix.Close(p.wakeRead)
	unix.Close(p.wakeWrit)
	return unix.Close(p.kq)
}
