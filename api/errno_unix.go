//go:build unix

// File: api/errno_unix.go
// Author: momentics <momentics@gmail.com>
//
// Errno-to-result-code mapping for POSIX-like platforms.

package api

import (
	"errors"

	"golang.org/x/sys/unix"
)

// CodeFromErrno maps an OS errno onto the engine's result codes.
func CodeFromErrno(errno error) Code {
	var en unix.Errno
	if !errors.As(errno, &en) {
		return EUNKNOWN
	}
	switch en {
	case unix.ECONNREFUSED:
		return ECONNREFUSED
	case unix.ECONNRESET:
		return ECONNRESET
	case unix.ENOBUFS:
		return ENOBUFS
	case unix.EBADF:
		return EBADF
	case unix.EINVAL:
		return EINVAL
	case unix.EBUSY:
		return EBUSY
	case unix.EAGAIN:
		return EAGAIN
	case unix.EPIPE:
		return EPIPE
	case unix.ETIMEDOUT:
		return ETIMEDOUT
	case unix.ENOENT:
		return ENOENT
	case unix.EACCES:
		return EACCES
	case unix.ECANCELED:
		return ECANCELED
	default:
		return EUNKNOWN
	}
}

// ErrnoError wraps errno into a CodeError in one step.
func ErrnoError(errno error) *CodeError {
	return &CodeError{Code: CodeFromErrno(errno), Err: errno}
}
