package probe

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"
)

// ErrUnreachable reports that the ping ran to completion without a reply.
var ErrUnreachable = errors.New("host unreachable")

// Backend performs ICMP echo exchanges.
type Backend interface {
	// Ping sends count echoes to host and returns the transcript. A run
	// without replies returns the transcript together with ErrUnreachable.
	Ping(ctx context.Context, host string, count int) (string, error)

	// Echo sends one echo to ip and reports whether a reply arrived within wait.
	Echo(ctx context.Context, ip string, wait time.Duration) (bool, error)
}

// Backend names accepted by NewBackend.
const (
	BackendExec = "exec"
	BackendICMP = "icmp"
)

// NewBackend returns the backend registered under name.
func NewBackend(name string) (Backend, error) {
	switch name {
	case "", BackendExec:
		return NewExecBackend(ExecRunner{WaitDelay: time.Second}, runtime.GOOS), nil
	case BackendICMP:
		return NewICMPBackend(runtime.GOOS == "windows"), nil
	default:
		return nil, fmt.Errorf("unknown probe backend %q (want %q or %q)", name, BackendExec, BackendICMP)
	}
}
