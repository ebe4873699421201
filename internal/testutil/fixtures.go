package testutil

import (
	psnet "github.com/shirou/gopsutil/v3/net"
)

// NewInterfaceStat returns an administratively up interface with no
// addresses, suitable for collector fixtures. Override fields with opts.
func NewInterfaceStat(name string, opts ...func(*psnet.InterfaceStat)) psnet.InterfaceStat {
	s := psnet.InterfaceStat{
		Name:  name,
		MTU:   1500,
		Flags: []string{"up", "broadcast", "multicast", "running"},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithAddrs sets the interface's bound addresses (CIDR or bare).
func WithAddrs(addrs ...string) func(*psnet.InterfaceStat) {
	return func(s *psnet.InterfaceStat) {
		s.Addrs = make(psnet.InterfaceAddrList, 0, len(addrs))
		for _, a := range addrs {
			s.Addrs = append(s.Addrs, psnet.InterfaceAddr{Addr: a})
		}
	}
}

// WithMAC sets the interface's hardware address.
func WithMAC(mac string) func(*psnet.InterfaceStat) {
	return func(s *psnet.InterfaceStat) { s.HardwareAddr = mac }
}

// WithFlags replaces the interface flags.
func WithFlags(flags ...string) func(*psnet.InterfaceStat) {
	return func(s *psnet.InterfaceStat) { s.Flags = flags }
}

// WithMTU sets the interface MTU.
func WithMTU(mtu int) func(*psnet.InterfaceStat) {
	return func(s *psnet.InterfaceStat) { s.MTU = mtu }
}
