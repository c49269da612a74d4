//go:build unix

// File: loop/adopt_unix.go
// Author: momentics <momentics@gmail.com>
//
// Descriptor kind detection and adoption of descriptors created outside
// the loop (inherited sockets, socketpairs, stdio).

package loop

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-evloop/api"
)

// GuessKind classifies an open descriptor by its stat type and, for
// sockets, the socket domain and type. Unclassifiable descriptors report
// KindUnknown.
func GuessKind(fd int) api.HandleKind {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return api.KindUnknown
	}
	switch st.Mode & unix.S_IFMT {
	case unix.S_IFSOCK:
		sa, err := unix.Getsockname(fd)
		if err != nil {
			return api.KindUnknown
		}
		if _, ok := sa.(*unix.SockaddrUnix); ok {
			return api.KindPipe
		}
		soType, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TYPE)
		if err != nil {
			return api.KindUnknown
		}
		switch soType {
		case unix.SOCK_STREAM:
			return api.KindTCP
		case unix.SOCK_DGRAM:
			return api.KindUDP
		}
		return api.KindUnknown
	case unix.S_IFIFO:
		return api.KindPipe
	case unix.S_IFCHR:
		if _, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ); err == nil {
			return api.KindTTY
		}
		return api.KindFile
	case unix.S_IFREG, unix.S_IFDIR:
		return api.KindFile
	}
	return api.KindUnknown
}

// Open adopts an existing connected or unbound stream socket. The
// descriptor must classify as a TCP socket.
func (t *TCP) Open(fd int) error {
	if t.closing {
		return api.ErrHandleClosed
	}
	if t.fd >= 0 {
		return api.NewCodeError(api.EBUSY, nil)
	}
	if kind := GuessKind(fd); kind != api.KindTCP {
		return api.ErrInvalidDescriptorKind
	}
	return t.adoptFd(fd)
}

// Open adopts an existing datagram socket.
func (u *UDP) Open(fd int) error {
	if u.closing {
		return api.ErrHandleClosed
	}
	if u.fd >= 0 {
		return api.NewCodeError(api.EBUSY, nil)
	}
	if kind := GuessKind(fd); kind != api.KindUDP {
		return api.ErrInvalidDescriptorKind
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return api.ErrnoError(err)
	}
	unix.CloseOnExec(fd)
	u.fd = fd
	return nil
}
