package probe

import (
	"context"
	"math"
	"os/exec"
	"strconv"
	"time"
)

// DefaultBinary is the ping utility looked up on PATH.
const DefaultBinary = "ping"

// CommandRunner starts external programs. Implementations must kill the
// process once ctx is done rather than merely stop waiting for it.
type CommandRunner interface {
	// CombinedOutput runs the program and returns stdout and stderr interleaved.
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)

	// Run runs the program with its output discarded.
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct {
	// WaitDelay bounds how long to wait for output pipes after the process
	// has been killed.
	WaitDelay time.Duration
}

// Compile-time interface guard.
var _ CommandRunner = ExecRunner{}

func (r ExecRunner) command(ctx context.Context, name string, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = r.WaitDelay
	return cmd
}

func (r ExecRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return r.command(ctx, name, args).CombinedOutput()
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	return r.command(ctx, name, args).Run()
}

// pingArgs builds the argument vector for a count-limited ping.
func pingArgs(goos string, count int, host string) []string {
	flag := "-c"
	if goos == "windows" {
		flag = "-n"
	}
	return []string{flag, strconv.Itoa(count), host}
}

// echoArgs builds the argument vector for a single echo with a reply wait.
// Windows and macOS take the wait in milliseconds, other Unixes in whole seconds.
func echoArgs(goos string, wait time.Duration, ip string) []string {
	switch goos {
	case "windows":
		return []string{"-n", "1", "-w", strconv.FormatInt(max(wait.Milliseconds(), 1), 10), ip}
	case "darwin":
		return []string{"-c", "1", "-W", strconv.FormatInt(max(wait.Milliseconds(), 1), 10), ip}
	default:
		secs := int64(math.Ceil(wait.Seconds()))
		return []string{"-c", "1", "-W", strconv.FormatInt(max(secs, 1), 10), ip}
	}
}
