//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

// File: loop/tty_unix.go
// Author: momentics <momentics@gmail.com>

package loop

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-evloop/api"
)

// TTYMode selects the terminal discipline applied by SetMode.
type TTYMode int

const (
	// TTYNormal restores canonical, echoing input.
	TTYNormal TTYMode = iota
	// TTYRaw disables echo and line buffering.
	TTYRaw
)

// TTY is a terminal stream handle over an adopted descriptor.
type TTY struct {
	stream
	orig    *unix.Termios
	rawMode bool
}

// NewTTY adopts a terminal descriptor (typically 0, 1 or 2). A descriptor
// that is not a terminal is rejected with ErrInvalidDescriptorKind.
func NewTTY(l *Loop, fd int) (*TTY, error) {
	orig, err := getTermios(fd)
	if err != nil {
		return nil, api.ErrInvalidDescriptorKind
	}
	t := &TTY{orig: orig}
	if err := t.initStream(l, api.KindTTY, -1); err != nil {
		return nil, err
	}
	if err := t.adoptFd(fd); err != nil {
		t.Close(nil)
		return nil, err
	}
	inner := t.teardown
	t.teardown = func() {
		t.restoreMode()
		inner()
	}
	return t, nil
}

// SetMode switches between normal and raw discipline. The original settings
// are restored on handle close.
func (t *TTY) SetMode(mode TTYMode) error {
	if t.closing {
		return api.ErrHandleClosed
	}
	switch mode {
	case TTYNormal:
		t.restoreMode()
		return nil
	case TTYRaw:
		raw := *t.orig
		makeRaw(&raw)
		if err := setTermios(t.fd, &raw); err != nil {
			return api.ErrnoError(err)
		}
		t.rawMode = true
		return nil
	default:
		return api.NewCodeError(api.EINVAL, nil)
	}
}

// Winsize returns the terminal dimensions in character cells.
func (t *TTY) Winsize() (width, height int, err error) {
	ws, werr := unix.IoctlGetWinsize(t.fd, unix.TIOCGWINSZ)
	if werr != nil {
		return 0, 0, api.ErrnoError(werr)
	}
	return int(ws.Col), int(ws.Row), nil
}

func (t *TTY) restoreMode() {
	if !t.rawMode || t.fd < 0 {
		return
	}
	_ = setTermios(t.fd, t.orig)
	t.rawMode = false
}

func makeRaw(tio *unix.Termios) {
	tio.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	tio.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	tio.Cflag &^= unix.CSIZE | unix.PARENB
	tio.Cflag |= unix.CS8
	tio.Cc[unix.VMIN] = 1
	tio.Cc[unix.VTIME] = 0
}
