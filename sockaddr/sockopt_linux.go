//go:build linux

// File: sockaddr/sockopt_linux.go
// Author: momentics <momentics@gmail.com>
//
// Socket buffer-size normalization. The Linux kernel doubles the value set
// through SO_SNDBUF/SO_RCVBUF, so the requested size is halved here to make
// the observable behavior match other platforms.

package sockaddr

func normalizeBufferSize(size int) int {
	return size / 2
}
