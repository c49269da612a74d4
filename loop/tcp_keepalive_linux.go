//go:build linux

// File: loop/tcp_keepalive_linux.go
// Author: momentics <momentics@gmail.com>

package loop

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-evloop/api"
)

func setKeepAliveIdle(fd, secs int) error {
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, secs); err != nil {
		return api.ErrnoError(err)
	}
	return nil
}
