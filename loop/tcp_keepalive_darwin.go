//go:build darwin

// File: loop/tcp_keepalive_darwin.go
// Author: momentics <momentics@gmail.com>

package loop

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-evloop/api"
)

func setKeepAliveIdle(fd, secs int) error {
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPALIVE, secs); err != nil {
		return api.ErrnoError(err)
	}
	return nil
}
