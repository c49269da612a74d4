// Package api
// Author: momentics <momentics@gmail.com>
//
// Error taxonomy of the event-loop engine. Synchronous setup failures are
// returned directly; I/O outcomes are delivered through the completion
// callback as a CodeError, on the same channel as success.

package api

import (
	"errors"
	"fmt"
)

// Synchronous sentinel errors.
var (
	// ErrLoopClosed is returned by every operation on a closed loop.
	ErrLoopClosed = errors.New("loop is closed")
	// ErrLoopBusy is returned when closing a loop that still owns live
	// handles, or when Run is entered reentrantly.
	ErrLoopBusy = errors.New("loop is busy")
	// ErrHandleClosed is returned by operations on a closing or closed handle.
	ErrHandleClosed = errors.New("handle is closed")
	// ErrInvalidDescriptorKind is returned when a descriptor is adopted as
	// an incompatible handle kind.
	ErrInvalidDescriptorKind = errors.New("descriptor kind mismatch")
	// ErrBackendFatal wraps a poller failure that aborts the loop run.
	ErrBackendFatal = errors.New("backend poll failure")
)

// BackendFatal tags err as fatal to the loop run.
func BackendFatal(err error) error {
	return fmt.Errorf("%w: %v", ErrBackendFatal, err)
}

// Code is a per-operation result code delivered through callbacks.
type Code int

const (
	OK Code = iota
	EOF
	ECANCELED
	ECONNREFUSED
	ECONNRESET
	ENOBUFS
	EBADF
	EINVAL
	EBUSY
	EAGAIN
	EPIPE
	ETIMEDOUT
	ENOENT
	EACCES
	EUNKNOWN
)

func (c Code) String() string {
	switch c {
	case OK:
		return "ok"
	case EOF:
		return "end of file"
	case ECANCELED:
		return "operation canceled"
	case ECONNREFUSED:
		return "connection refused"
	case ECONNRESET:
		return "connection reset by peer"
	case ENOBUFS:
		return "no buffer space available"
	case EBADF:
		return "bad file descriptor"
	case EINVAL:
		return "invalid argument"
	case EBUSY:
		return "resource busy"
	case EAGAIN:
		return "resource temporarily unavailable"
	case EPIPE:
		return "broken pipe"
	case ETIMEDOUT:
		return "operation timed out"
	case ENOENT:
		return "no such file or directory"
	case EACCES:
		return "permission denied"
	default:
		return "unknown error"
	}
}

// CodeError couples a result Code with its originating error, if any.
type CodeError struct {
	Code Code
	Err  error
}

func (e *CodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code.String()
}

func (e *CodeError) Unwrap() error { return e.Err }

// NewCodeError builds a callback-delivered operation error.
func NewCodeError(code Code, err error) *CodeError {
	return &CodeError{Code: code, Err: err}
}

// CodeOf extracts the result Code from a callback error. A nil error is OK;
// a non-CodeError is EUNKNOWN.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return EUNKNOWN
}

