package models

// HostStatus is the liveness tag of a discovered host.
type HostStatus string

// HostStatusUp is the only status a sweep ever records.
const HostStatusUp HostStatus = "up"

// UnknownHostname stands in for a host whose reverse lookup failed.
const UnknownHostname = "unknown"

// DiscoveredHost is a host that answered an ICMP echo during a sweep.
type DiscoveredHost struct {
	IP       string     `json:"ip" example:"192.168.1.20"`
	Hostname string     `json:"hostname" example:"printer.lan"`
	Status   HostStatus `json:"status" example:"up"`
}

// ScanStatus tracks the lifecycle of a recorded sweep.
type ScanStatus string

const (
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
	// ScanStatusCancelled marks a sweep whose context ended before every host was probed.
	ScanStatusCancelled ScanStatus = "cancelled"
	ScanStatusFailed    ScanStatus = "failed"
)

// ScanRecord summarizes one subnet sweep for the history view.
type ScanRecord struct {
	ID        string     `json:"id" example:"a1b2c3d4-e5f6-7890-abcd-ef1234567890"`
	Prefix    string     `json:"prefix" example:"192.168.1"`
	StartedAt string     `json:"started_at" example:"2026-01-15T10:30:00Z"`
	EndedAt   string     `json:"ended_at,omitempty" example:"2026-01-15T10:30:06Z"`
	Status    ScanStatus `json:"status" example:"completed"`
	Probed    int        `json:"probed" example:"254"`
	Found     int        `json:"found" example:"8"`
}
