//go:build unix && !linux

// File: sockaddr/sockopt_other.go
// Author: momentics <momentics@gmail.com>

package sockaddr

func normalizeBufferSize(size int) int {
	return size
}
