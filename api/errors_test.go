// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// errors_test.go — Error taxonomy: code extraction and wrapping.
package api_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/momentics/hioload-evloop/api"
)

func TestCodeOf(t *testing.T) {
	if got := api.CodeOf(nil); got != api.OK {
		t.Errorf("CodeOf(nil) = %v, want OK", got)
	}
	if got := api.CodeOf(errors.New("plain")); got != api.EUNKNOWN {
		t.Errorf("CodeOf(plain) = %v, want EUNKNOWN", got)
	}
	ce := api.NewCodeError(api.ECONNREFUSED, errors.New("refused"))
	if got := api.CodeOf(ce); got != api.ECONNREFUSED {
		t.Errorf("CodeOf(CodeError) = %v, want ECONNREFUSED", got)
	}
	wrapped := fmt.Errorf("dial 127.0.0.1: %w", ce)
	if got := api.CodeOf(wrapped); got != api.ECONNREFUSED {
		t.Errorf("CodeOf(wrapped) = %v, want ECONNREFUSED", got)
	}
}

func TestCodeError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	ce := api.NewCodeError(api.EINVAL, cause)
	if !errors.Is(ce, cause) {
		t.Error("CodeError does not unwrap to its cause")
	}
	if ce.Error() == "" {
		t.Error("empty error string")
	}
	bare := api.NewCodeError(api.EOF, nil)
	if bare.Error() != api.EOF.String() {
		t.Errorf("bare CodeError string = %q", bare.Error())
	}
}

func TestBackendFatal(t *testing.T) {
	err := api.BackendFatal(errors.New("epoll_wait: EBADF"))
	if !errors.Is(err, api.ErrBackendFatal) {
		t.Error("BackendFatal result does not match ErrBackendFatal")
	}
}

func TestCodeStrings(t *testing.T) {
	for c := api.OK; c <= api.EUNKNOWN; c++ {
		if c.String() == "" {
			t.Errorf("code %d has empty string", int(c))
		}
	}
}
