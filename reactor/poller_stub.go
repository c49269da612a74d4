//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

// File: reactor/poller_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub factory for platforms without a readiness backend.

package reactor

import (
	"errors"

	"github.com/momentics/hioload-evloop/api"
)

// ErrUnsupportedPlatform is returned where no poller implementation exists.
var ErrUnsupportedPlatform = errors.New("reactor: no poller for this platform")

// New reports the lack of a platform poller.
func New() (api.Poller, error) {
	return nil, ErrUnsupportedPlatform
}
