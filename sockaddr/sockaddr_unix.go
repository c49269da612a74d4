//go:build unix

// File: sockaddr/sockaddr_unix.go
// Author: momentics <momentics@gmail.com>
//
// Conversions between Addr and the kernel sockaddr forms.

package sockaddr

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-evloop/api"
)

// ToSockaddr converts Addr into the form accepted by connect/bind/sendto.
// The scope id maps onto sin6_scope_id; the flow label stays an engine-level
// attribute because x/sys sockaddrs do not expose sin6_flowinfo.
func ToSockaddr(a Addr) (unix.Sockaddr, error) {
	if a.Is6() {
		sa := &unix.SockaddrInet6{Port: a.Port}
		copy(sa.Addr[:], a.IP.To16())
		if extra, ok := a.Extra(); ok {
			sa.ZoneId = extra.ScopeID
		}
		return sa, nil
	}
	v4 := a.IP.To4()
	if v4 == nil {
		return nil, api.NewCodeError(api.EINVAL, fmt.Errorf("address %s has no family", a.IP))
	}
	sa := &unix.SockaddrInet4{Port: a.Port}
	copy(sa.Addr[:], v4)
	return sa, nil
}

// FromSockaddr converts a kernel sockaddr (as returned by accept/recvfrom/
// getsockname) back into an Addr.
func FromSockaddr(sa unix.Sockaddr) (Addr, error) {
	switch s := sa.(type) {
	case *unix.SockaddrInet4:
		return New4(net.IP(s.Addr[:]), s.Port)
	case *unix.SockaddrInet6:
		return New6(net.IP(s.Addr[:]), s.Port, IPv6Extra{ScopeID: s.ZoneId})
	default:
		return Addr{}, api.NewCodeError(api.EINVAL, fmt.Errorf("unsupported sockaddr %T", sa))
	}
}

// Family returns the AF_* constant for the address.
func Family(a Addr) int {
	if a.Is6() {
		return unix.AF_INET6
	}
	return unix.AF_INET
}
