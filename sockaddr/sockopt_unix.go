//go:build unix

// File: sockaddr/sockopt_unix.go
// Author: momentics <momentics@gmail.com>

package sockaddr

import "golang.org/x/sys/unix"

// SetSendBufferSize sets SO_SNDBUF with platform normalization applied.
func SetSendBufferSize(fd, size int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, normalizeBufferSize(size))
}

// SendBufferSize reads back SO_SNDBUF.
func SendBufferSize(fd int) (int, error) {
	return unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF)
}

// SetRecvBufferSize sets SO_RCVBUF with platform normalization applied.
func SetRecvBufferSize(fd, size int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, normalizeBufferSize(size))
}

// RecvBufferSize reads back SO_RCVBUF.
func RecvBufferSize(fd int) (int, error) {
	return unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF)
}
