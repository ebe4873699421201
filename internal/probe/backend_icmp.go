package probe

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// ICMPBackend pings in-process with pro-bing, for hosts that ship no ping
// binary. Unprivileged mode needs net.ipv4.ping_group_range on Linux.
type ICMPBackend struct {
	privileged bool
	interval   time.Duration
}

// Compile-time interface guard.
var _ Backend = (*ICMPBackend)(nil)

// NewICMPBackend creates a pro-bing backend. Windows requires privileged mode.
func NewICMPBackend(privileged bool) *ICMPBackend {
	return &ICMPBackend{privileged: privileged, interval: time.Second}
}

func (b *ICMPBackend) Ping(ctx context.Context, host string, count int) (string, error) {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		// Mirrors the ping utility, which exits non-zero for unknown hosts.
		return fmt.Sprintf("ping: %s: %v\n", host, err), fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	pinger.Count = count
	pinger.Interval = b.interval
	pinger.Timeout = time.Duration(count)*b.interval + time.Second
	pinger.SetPrivileged(b.privileged)

	var (
		mu    sync.Mutex
		lines []string
	)
	pinger.OnRecv = func(pkt *probing.Packet) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, fmt.Sprintf("%d bytes from %s: icmp_seq=%d ttl=%d time=%v",
			pkt.Nbytes, pkt.IPAddr, pkt.Seq, pkt.TTL, pkt.Rtt))
	}

	if err := run(ctx, pinger); err != nil {
		return "", err
	}

	stats := pinger.Statistics()
	mu.Lock()
	defer mu.Unlock()

	var out strings.Builder
	fmt.Fprintf(&out, "PING %s (%s):\n", stats.Addr, stats.IPAddr)
	for _, l := range lines {
		out.WriteString(l)
		out.WriteByte('\n')
	}
	fmt.Fprintf(&out, "\n--- %s ping statistics ---\n", stats.Addr)
	fmt.Fprintf(&out, "%d packets transmitted, %d packets received, %.1f%% packet loss\n",
		stats.PacketsSent, stats.PacketsRecv, stats.PacketLoss)
	if stats.PacketsRecv > 0 {
		fmt.Fprintf(&out, "round-trip min/avg/max/stddev = %v/%v/%v/%v\n",
			stats.MinRtt, stats.AvgRtt, stats.MaxRtt, stats.StdDevRtt)
		return out.String(), nil
	}
	return out.String(), fmt.Errorf("%w: all packets lost", ErrUnreachable)
}

func (b *ICMPBackend) Echo(ctx context.Context, ip string, wait time.Duration) (bool, error) {
	pinger, err := probing.NewPinger(ip)
	if err != nil {
		return false, fmt.Errorf("create pinger: %w", err)
	}
	pinger.Count = 1
	pinger.Timeout = wait
	pinger.SetPrivileged(b.privileged)

	if err := run(ctx, pinger); err != nil {
		return false, err
	}
	return pinger.Statistics().PacketsRecv > 0, nil
}

// run executes the pinger, stopping it when ctx is done. A context that is
// already done never opens a socket.
func run(ctx context.Context, pinger *probing.Pinger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		done <- pinger.Run()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("run pinger: %w", err)
		}
		return nil
	case <-ctx.Done():
		pinger.Stop()
		<-done
		return ctx.Err()
	}
}
