// Package discovery sweeps an IPv4 /24 for hosts that answer ICMP echo.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/HerbHall/niccommander/internal/metrics"
	"github.com/HerbHall/niccommander/internal/probe"
	"github.com/HerbHall/niccommander/pkg/models"
	"go.uber.org/zap"
)

// HostsPerPrefix is the number of host addresses probed in a /24 (.1 through .254).
const HostsPerPrefix = 254

// Defaults applied to zero-valued Options.
const (
	DefaultConcurrency = 64
	DefaultHostTimeout = time.Second
	DefaultDNSTimeout  = 500 * time.Millisecond
)

// Resolver performs reverse lookups. *net.Resolver satisfies it.
type Resolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// Options tunes a Scanner.
type Options struct {
	Concurrency int           // Probes in flight at once.
	HostTimeout time.Duration // Echo wait and hard bound for each host's ping.
	DNSTimeout  time.Duration // Bound for each reverse lookup.

	// ResolveFirst looks every address up before pinging it. By default only
	// hosts that answered are resolved.
	ResolveFirst bool
}

// Scanner sweeps one prefix per Discover call with a bounded worker pool.
// It keeps no state between calls.
type Scanner struct {
	backend  probe.Backend
	resolver Resolver
	opts     Options
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewScanner creates a Scanner. m may be nil.
func NewScanner(backend probe.Backend, resolver Resolver, opts Options, logger *zap.Logger, m *metrics.Metrics) *Scanner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Concurrency > HostsPerPrefix {
		opts.Concurrency = HostsPerPrefix
	}
	if opts.HostTimeout <= 0 {
		opts.HostTimeout = DefaultHostTimeout
	}
	if opts.DNSTimeout <= 0 {
		opts.DNSTimeout = DefaultDNSTimeout
	}
	return &Scanner{
		backend:  backend,
		resolver: resolver,
		opts:     opts,
		logger:   logger,
		metrics:  m,
	}
}

// Discover probes prefix.1 through prefix.254 and returns the hosts that
// replied, in no particular order. Per-host failures just leave that host
// out. An invalid prefix is ErrInvalidRequest; if ctx ends first, the hosts
// found so far are returned with an error wrapping ctx.Err().
func (s *Scanner) Discover(ctx context.Context, prefix string) ([]models.DiscoveredHost, error) {
	if err := probe.ValidatePrefix(prefix); err != nil {
		return nil, err
	}

	start := time.Now()
	jobs := make(chan string)
	found := make(chan models.DiscoveredHost)

	var wg sync.WaitGroup
	for range s.opts.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ip := range jobs {
				if host, ok := s.probeHost(ctx, ip); ok {
					found <- host
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 1; i <= HostsPerPrefix; i++ {
			select {
			case jobs <- fmt.Sprintf("%s.%d", prefix, i):
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(found)
	}()

	hosts := make([]models.DiscoveredHost, 0)
	for h := range found {
		hosts = append(hosts, h)
	}

	if err := ctx.Err(); err != nil {
		s.logger.Warn("subnet sweep interrupted",
			zap.String("prefix", prefix),
			zap.Int("up", len(hosts)),
			zap.Error(err),
		)
		return hosts, fmt.Errorf("sweep %s interrupted: %w", prefix, err)
	}

	s.metrics.ObserveScan(len(hosts), time.Since(start))
	s.logger.Info("subnet sweep finished",
		zap.String("prefix", prefix),
		zap.Int("up", len(hosts)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return hosts, nil
}

// probeHost pings one address and, if it answered, resolves its name.
func (s *Scanner) probeHost(ctx context.Context, ip string) (models.DiscoveredHost, bool) {
	s.metrics.ProbeStarted()
	defer s.metrics.ProbeFinished()

	var hostname string
	if s.opts.ResolveFirst {
		hostname = s.lookup(ctx, ip)
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.opts.HostTimeout)
	up, err := s.backend.Echo(pingCtx, ip, s.opts.HostTimeout)
	cancel()
	if err != nil {
		s.logger.Debug("probe failed", zap.String("ip", ip), zap.Error(err))
		return models.DiscoveredHost{}, false
	}
	if !up {
		return models.DiscoveredHost{}, false
	}

	if !s.opts.ResolveFirst {
		hostname = s.lookup(ctx, ip)
	}
	return models.DiscoveredHost{IP: ip, Hostname: hostname, Status: models.HostStatusUp}, true
}

// lookup returns the first PTR name for ip, or models.UnknownHostname.
func (s *Scanner) lookup(ctx context.Context, ip string) string {
	if s.resolver == nil {
		return models.UnknownHostname
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.DNSTimeout)
	defer cancel()

	names, err := s.resolver.LookupAddr(ctx, ip)
	if err != nil || len(names) == 0 {
		return models.UnknownHostname
	}
	name := strings.TrimSuffix(names[0], ".")
	if name == "" {
		return models.UnknownHostname
	}
	return name
}
