// Package probe runs reachability checks against a single host.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HerbHall/niccommander/internal/metrics"
	"github.com/HerbHall/niccommander/pkg/models"
	"go.uber.org/zap"
)

// Defaults applied when a Prober is built with zero values.
const (
	DefaultCount    = 4
	DefaultTimeout  = 30 * time.Second
	DefaultMaxCount = 100
)

// Client-facing failure messages.
const (
	MsgUnreachable = "host unreachable or ping failed"
	MsgTimeout     = "ping timeout"
	MsgCancelled   = "ping cancelled"
)

// Prober pings one host per call. It holds no per-call state and is safe
// for concurrent use.
type Prober struct {
	backend  Backend
	timeout  time.Duration
	maxCount int
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewProber creates a Prober. A zero timeout or maxCount selects the default.
func NewProber(backend Backend, timeout time.Duration, maxCount int, logger *zap.Logger, m *metrics.Metrics) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	return &Prober{
		backend:  backend,
		timeout:  timeout,
		maxCount: maxCount,
		logger:   logger,
		metrics:  m,
	}
}

// Ping sends count echoes to host (DefaultCount when count <= 0). Invalid
// input is rejected with ErrInvalidRequest before anything is spawned; every
// other failure is reported inside the returned result.
func (p *Prober) Ping(ctx context.Context, host string, count int) (models.PingResult, error) {
	if err := ValidateHost(host); err != nil {
		return models.PingResult{}, err
	}
	if count <= 0 {
		count = DefaultCount
	}
	if count > p.maxCount {
		return models.PingResult{}, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidRequest, p.maxCount)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	output, err := p.backend.Ping(ctx, host, count)
	result := classify(host, output, err)

	outcome := "success"
	if result.Error != nil {
		outcome = string(result.Error.Kind)
	}
	p.metrics.ObservePing(outcome, time.Since(start))
	p.logger.Debug("ping finished",
		zap.String("host", host),
		zap.Int("count", count),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// classify turns a backend outcome into a PingResult.
func classify(host, output string, err error) models.PingResult {
	switch {
	case err == nil:
		return models.PingResult{Host: host, Success: true, Output: output}
	case errors.Is(err, context.DeadlineExceeded):
		return models.PingResult{
			Host:  host,
			Error: &models.ProbeError{Kind: models.ProbeTimeout, Message: MsgTimeout},
		}
	case errors.Is(err, context.Canceled):
		return models.PingResult{
			Host:  host,
			Error: &models.ProbeError{Kind: models.ProbeCancelled, Message: MsgCancelled},
		}
	case errors.Is(err, ErrUnreachable):
		return models.PingResult{
			Host:   host,
			Output: output,
			Error:  &models.ProbeError{Kind: models.ProbeUnreachable, Message: MsgUnreachable},
		}
	default:
		return models.PingResult{
			Host:  host,
			Error: &models.ProbeError{Kind: models.ProbeLaunch, Message: err.Error()},
		}
	}
}
