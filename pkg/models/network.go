package models

// MaxInterfaces caps how many interfaces a snapshot reports.
const MaxInterfaces = 8

// InterfaceRecord is a point-in-time snapshot of one network interface.
// Records are rebuilt on every query and never mutated afterwards.
type InterfaceRecord struct {
	ID      int              `json:"id" example:"1"`
	Name    string           `json:"name" example:"eth0"`
	IPv4    Optional[string] `json:"ipv4" swaggertype:"string" example:"192.168.1.10"`
	Netmask Optional[string] `json:"netmask" swaggertype:"string" example:"255.255.255.0"`
	IPv6    Optional[string] `json:"ipv6" swaggertype:"string" example:"fe80::1"`
	MAC     Optional[string] `json:"mac" swaggertype:"string" example:"aa:bb:cc:dd:ee:ff"`
	IsUp    bool             `json:"is_up"`

	SpeedMbps Optional[int] `json:"speed_mbps" swaggertype:"integer" example:"1000"`
	MTU       Optional[int] `json:"mtu" swaggertype:"integer" example:"1500"`

	BytesSent   Optional[string] `json:"bytes_sent" swaggertype:"string" example:"1.50 KB"`
	BytesRecv   Optional[string] `json:"bytes_recv" swaggertype:"string" example:"12.03 MB"`
	PacketsSent uint64           `json:"packets_sent"`
	PacketsRecv uint64           `json:"packets_recv"`
	ErrorsIn    uint64           `json:"errors_in"`
	ErrorsOut   uint64           `json:"errors_out"`
	DropsIn     uint64           `json:"drops_in"`
	DropsOut    uint64           `json:"drops_out"`
}
