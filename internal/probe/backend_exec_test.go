package probe

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"
)

// exitStatus mimics *exec.ExitError for a process that exited non-zero.
type exitStatus int

func (e exitStatus) Error() string { return fmt.Sprintf("exit status %d", int(e)) }
func (e exitStatus) ExitCode() int { return int(e) }

// fakeRunner records invocations and replays a canned outcome.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string

	output []byte
	err    error
	block  bool // wait for ctx before returning
}

var _ CommandRunner = (*fakeRunner)(nil)

func (f *fakeRunner) record(name string, args []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))
}

func (f *fakeRunner) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.record(name, args)
	if f.block {
		<-ctx.Done()
		return []byte("partial"), errors.New("signal: killed")
	}
	return f.output, f.err
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	_, err := f.CombinedOutput(ctx, name, args...)
	return err
}

func TestExecBackend_Ping(t *testing.T) {
	tests := []struct {
		name       string
		runner     *fakeRunner
		wantOutput string
		wantErr    error
		wantLaunch bool
	}{
		{
			name:       "success",
			runner:     &fakeRunner{output: []byte("4 packets transmitted, 4 received")},
			wantOutput: "4 packets transmitted, 4 received",
		},
		{
			name:       "non-zero exit keeps output",
			runner:     &fakeRunner{output: []byte("100% packet loss"), err: exitStatus(1)},
			wantOutput: "100% packet loss",
			wantErr:    ErrUnreachable,
		},
		{
			name:       "launch failure",
			runner:     &fakeRunner{err: errors.New(`exec: "ping": executable file not found in $PATH`)},
			wantLaunch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewExecBackend(tt.runner, "linux")
			out, err := b.Ping(context.Background(), "10.0.0.1", 4)
			if out != tt.wantOutput {
				t.Errorf("output = %q, want %q", out, tt.wantOutput)
			}
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
			case tt.wantLaunch:
				if err == nil || errors.Is(err, ErrUnreachable) {
					t.Errorf("err = %v, want launch failure", err)
				}
			default:
				if err != nil {
					t.Errorf("err = %v, want nil", err)
				}
			}

			calls := tt.runner.Calls()
			if len(calls) != 1 {
				t.Fatalf("calls = %d, want 1 (no retries)", len(calls))
			}
			want := []string{"ping", "-c", "4", "10.0.0.1"}
			if !slices.Equal(calls[0], want) {
				t.Errorf("argv = %v, want %v", calls[0], want)
			}
		})
	}
}

func TestExecBackend_PingDeadline(t *testing.T) {
	b := NewExecBackend(&fakeRunner{block: true}, "linux")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out, err := b.Ping(ctx, "10.0.0.1", 4)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if out != "" {
		t.Errorf("output = %q, want empty on timeout", out)
	}
}

func TestExecBackend_Echo(t *testing.T) {
	tests := []struct {
		name    string
		runner  *fakeRunner
		wantUp  bool
		wantErr bool
	}{
		{"reply", &fakeRunner{}, true, false},
		{"no reply", &fakeRunner{err: exitStatus(1)}, false, false},
		{"launch failure", &fakeRunner{err: errors.New("permission denied")}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewExecBackend(tt.runner, "windows")
			up, err := b.Echo(context.Background(), "10.0.0.9", time.Second)
			if up != tt.wantUp {
				t.Errorf("up = %v, want %v", up, tt.wantUp)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			want := []string{"ping", "-n", "1", "-w", "1000", "10.0.0.9"}
			if calls := tt.runner.Calls(); !slices.Equal(calls[0], want) {
				t.Errorf("argv = %v, want %v", calls[0], want)
			}
		})
	}
}

func TestNewBackend(t *testing.T) {
	for _, name := range []string{"", BackendExec, BackendICMP} {
		if _, err := NewBackend(name); err != nil {
			t.Errorf("NewBackend(%q) error = %v", name, err)
		}
	}
	if _, err := NewBackend("carrier-pigeon"); err == nil {
		t.Error("NewBackend(unknown) expected error")
	}
}
