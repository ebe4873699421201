package probe

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ExecBackend shells out to the platform ping utility with an argument
// vector; no shell is involved.
type ExecBackend struct {
	runner CommandRunner
	goos   string
	binary string
}

// Compile-time interface guard.
var _ Backend = (*ExecBackend)(nil)

// NewExecBackend builds argument vectors for goos and runs them through runner.
func NewExecBackend(runner CommandRunner, goos string) *ExecBackend {
	return &ExecBackend{runner: runner, goos: goos, binary: DefaultBinary}
}

func (b *ExecBackend) Ping(ctx context.Context, host string, count int) (string, error) {
	out, err := b.runner.CombinedOutput(ctx, b.binary, pingArgs(b.goos, count, host)...)
	if err == nil {
		return string(out), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if code, ok := exitCode(err); ok {
		return string(out), fmt.Errorf("%w: exit status %d", ErrUnreachable, code)
	}
	return "", fmt.Errorf("run %s: %w", b.binary, err)
}

func (b *ExecBackend) Echo(ctx context.Context, ip string, wait time.Duration) (bool, error) {
	err := b.runner.Run(ctx, b.binary, echoArgs(b.goos, wait, ip)...)
	if err == nil {
		return true, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if _, ok := exitCode(err); ok {
		return false, nil
	}
	return false, fmt.Errorf("run %s: %w", b.binary, err)
}

// exitCode extracts the exit status of a process that ran and exited.
func exitCode(err error) (int, bool) {
	var exited interface{ ExitCode() int }
	if errors.As(err, &exited) {
		return exited.ExitCode(), true
	}
	return 0, false
}
