// Package metrics defines the Prometheus collectors for ping and sweep activity.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "niccommander"

// Metrics groups the collectors shared by the probe and discovery modules.
type Metrics struct {
	pings        *prometheus.CounterVec
	pingDuration prometheus.Histogram
	scans        prometheus.Counter
	scanDuration prometheus.Histogram
	hostsFound   prometheus.Gauge
	probesActive prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pings_total",
			Help:      "Ping invocations by outcome (success, unreachable, timeout, launch).",
		}, []string{"outcome"}),
		pingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ping_duration_seconds",
			Help:      "Wall-clock time of ping invocations.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
		}),
		scans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subnet_scans_total",
			Help:      "Completed subnet sweeps.",
		}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "subnet_scan_duration_seconds",
			Help:      "Wall-clock time of subnet sweeps.",
			Buckets:   []float64{1, 2, 5, 10, 30, 60, 120, 300},
		}),
		hostsFound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subnet_hosts_up",
			Help:      "Hosts found up by the most recent sweep.",
		}),
		probesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subnet_probes_in_flight",
			Help:      "Per-host sweep probes currently running.",
		}),
	}
	reg.MustRegister(m.pings, m.pingDuration, m.scans, m.scanDuration, m.hostsFound, m.probesActive)
	return m
}

// ObservePing records one ping outcome and its duration.
func (m *Metrics) ObservePing(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.pings.WithLabelValues(outcome).Inc()
	m.pingDuration.Observe(d.Seconds())
}

// ObserveScan records a finished sweep.
func (m *Metrics) ObserveScan(found int, d time.Duration) {
	if m == nil {
		return
	}
	m.scans.Inc()
	m.scanDuration.Observe(d.Seconds())
	m.hostsFound.Set(float64(found))
}

// ProbeStarted and ProbeFinished bracket one per-host sweep probe.
func (m *Metrics) ProbeStarted() {
	if m == nil {
		return
	}
	m.probesActive.Inc()
}

func (m *Metrics) ProbeFinished() {
	if m == nil {
		return
	}
	m.probesActive.Dec()
}
