// File: sockaddr/ifaddr.go
// Author: momentics <momentics@gmail.com>

package sockaddr

import "net"

// InterfaceAddress is one address assigned to a network interface,
// paired with its netmask.
type InterfaceAddress struct {
	Name     string
	Hardware net.HardwareAddr
	Internal bool
	Address  net.IP
	Netmask  net.IPMask
}

// InterfaceAddresses enumerates the address+netmask pairs of every
// up network interface.
func InterfaceAddresses() ([]InterfaceAddress, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var out []InterfaceAddress
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			return nil, err
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			out = append(out, InterfaceAddress{
				Name:     iface.Name,
				Hardware: iface.HardwareAddr,
				Internal: iface.Flags&net.FlagLoopback != 0,
				Address:  ipnet.IP,
				Netmask:  ipnet.Mask,
			})
		}
	}
	return out, nil
}
