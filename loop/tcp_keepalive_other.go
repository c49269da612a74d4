//go:build unix && !linux && !darwin

// File: loop/tcp_keepalive_other.go
// Author: momentics <momentics@gmail.com>

package loop

// Idle tuning is not portable here; SO_KEEPALIVE alone applies.
func setKeepAliveIdle(fd, secs int) error { return nil }
