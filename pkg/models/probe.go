package models

// ProbeErrorKind classifies why a ping did not succeed.
type ProbeErrorKind string

const (
	ProbeUnreachable ProbeErrorKind = "unreachable"
	ProbeTimeout     ProbeErrorKind = "timeout"
	ProbeLaunch      ProbeErrorKind = "launch"
	ProbeCancelled   ProbeErrorKind = "cancelled" // caller went away first
)

// ProbeError describes a failed ping in a form safe to hand to clients.
type ProbeError struct {
	Kind    ProbeErrorKind `json:"kind"`
	Message string         `json:"message"`
}

func (e *ProbeError) Error() string { return e.Message }

// PingResult is the outcome of one ping invocation.
type PingResult struct {
	Host    string      `json:"host" example:"192.168.1.1"`
	Success bool        `json:"success"`
	Output  string      `json:"output"`
	Error   *ProbeError `json:"error,omitempty"`
}
