// File: sockaddr/addr.go
// Author: momentics <momentics@gmail.com>
//
// Tagged IPv4/IPv6 address model. The IPv6-only flow label and scope id are
// carried as an optional extension rather than widened into a superset
// struct, so an IPv4 address cannot accidentally carry them.

package sockaddr

import (
	"fmt"
	"net"

	"github.com/momentics/hioload-evloop/api"
)

// IPv6Extra holds the address fields that exist only for IPv6.
type IPv6Extra struct {
	FlowLabel uint32
	ScopeID   uint32
}

// Addr is an IP endpoint. Is6 discriminates the variant; extra is non-nil
// only for IPv6 addresses.
type Addr struct {
	IP    net.IP
	Port  int
	extra *IPv6Extra
}

// New4 builds an IPv4 endpoint.
func New4(ip net.IP, port int) (Addr, error) {
	v4 := ip.To4()
	if v4 == nil {
		return Addr{}, api.NewCodeError(api.EINVAL, fmt.Errorf("not an IPv4 address: %s", ip))
	}
	return Addr{IP: v4, Port: port}, nil
}

// New6 builds an IPv6 endpoint with its extension fields.
func New6(ip net.IP, port int, extra IPv6Extra) (Addr, error) {
	if ip.To4() != nil || ip.To16() == nil {
		return Addr{}, api.NewCodeError(api.EINVAL, fmt.Errorf("not an IPv6 address: %s", ip))
	}
	e := extra
	return Addr{IP: ip.To16(), Port: port, extra: &e}, nil
}

// Parse builds an Addr from a textual IP, detecting the family.
func Parse(host string, port int) (Addr, error) {
	ip := net.ParseIP(host)
	if ip == nil {
		return Addr{}, api.NewCodeError(api.EINVAL, fmt.Errorf("invalid IP literal: %q", host))
	}
	if v4 := ip.To4(); v4 != nil {
		return Addr{IP: v4, Port: port}, nil
	}
	return Addr{IP: ip.To16(), Port: port, extra: &IPv6Extra{}}, nil
}

// Is6 reports whether the address is IPv6.
func (a *Addr) Is6() bool { return a.extra != nil }

// Extra returns the IPv6 extension fields. ok is false for IPv4.
func (a *Addr) Extra() (IPv6Extra, bool) {
	if a.extra == nil {
		return IPv6Extra{}, false
	}
	return *a.extra, true
}

// SetExtra replaces the IPv6 extension fields. EINVAL for IPv4 addresses.
func (a *Addr) SetExtra(extra IPv6Extra) error {
	if a.extra == nil {
		return api.NewCodeError(api.EINVAL, fmt.Errorf("flow label/scope id on IPv4 address"))
	}
	*a.extra = extra
	return nil
}

func (a Addr) String() string {
	if a.Is6() {
		return fmt.Sprintf("[%s]:%d", a.IP, a.Port)
	}
	return fmt.Sprintf("%s:%d", a.IP, a.Port)
}
