//go:build darwin || freebsd || netbsd || openbsd || dragonfly

// File: loop/termios_bsd.go
// Author: momentics <momentics@gmail.com>

package loop

import "golang.org/x/sys/unix"

func getTermios(fd int) (*unix.Termios, error) {
	return unix.IoctlGetTermios(fd, unix.TIOCGETA)
}

func setTermios(fd int, tio *unix.Termios) error {
	return unix.IoctlSetTermios(fd, unix.TIOCSETA, tio)
}
