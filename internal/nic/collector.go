// Package nic builds point-in-time snapshots of the host's network interfaces.
package nic

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/HerbHall/niccommander/pkg/models"
	psnet "github.com/shirou/gopsutil/v3/net"
	"go.uber.org/zap"
)

// ErrToggleUnsupported is returned for every attempt to enable or disable an interface.
var ErrToggleUnsupported = errors.New("not supported: requires elevated privileges and is platform-dependent")

// FaultKind enumerates the recoverable reasons an interface is left out of a snapshot.
type FaultKind string

const (
	// FaultAddress means a bound address could not be parsed.
	FaultAddress FaultKind = "address"
	// FaultPanic means reading the interface panicked.
	FaultPanic FaultKind = "panic"
)

// CollectError reports why one interface was skipped.
type CollectError struct {
	Interface string
	Kind      FaultKind
	Err       error
}

func (e *CollectError) Error() string {
	return fmt.Sprintf("collect %s (%s): %v", e.Interface, e.Kind, e.Err)
}

func (e *CollectError) Unwrap() error { return e.Err }

// collected is the per-interface step result: exactly one of record or err is meaningful.
type collected struct {
	record models.InterfaceRecord
	err    *CollectError
}

// Collector produces interface snapshots from a Source.
type Collector struct {
	source Source
	max    int
	logger *zap.Logger
}

// NewCollector returns a Collector that reports at most maxInterfaces
// interfaces. Values outside 1..models.MaxInterfaces fall back to the cap.
func NewCollector(source Source, maxInterfaces int, logger *zap.Logger) *Collector {
	if maxInterfaces <= 0 || maxInterfaces > models.MaxInterfaces {
		maxInterfaces = models.MaxInterfaces
	}
	return &Collector{source: source, max: maxInterfaces, logger: logger}
}

// List returns a fresh snapshot of up to the configured number of interfaces
// in enumeration order. It never fails as a whole: interfaces that cannot be
// read are logged and skipped, and an unreadable host yields an empty list.
func (c *Collector) List(ctx context.Context) []models.InterfaceRecord {
	ifaces, err := c.source.Interfaces(ctx)
	if err != nil {
		c.logger.Error("enumerate interfaces", zap.Error(err))
		return []models.InterfaceRecord{}
	}
	if len(ifaces) > c.max {
		ifaces = ifaces[:c.max]
	}

	counters := c.counters(ctx)

	steps := make([]collected, 0, len(ifaces))
	for _, iface := range ifaces {
		steps = append(steps, c.collectOne(iface, counters))
	}
	return c.fold(steps)
}

// Toggle would change an interface's administrative state; it is never supported.
func (c *Collector) Toggle(name string) error {
	return fmt.Errorf("toggle %q: %w", name, ErrToggleUnsupported)
}

// fold keeps successful steps, logs the rest, and numbers the survivors from 1.
func (c *Collector) fold(steps []collected) []models.InterfaceRecord {
	records := make([]models.InterfaceRecord, 0, len(steps))
	for _, s := range steps {
		if s.err != nil {
			c.logger.Warn("skipping interface",
				zap.String("interface", s.err.Interface),
				zap.String("fault", string(s.err.Kind)),
				zap.Error(s.err.Err),
			)
			continue
		}
		s.record.ID = len(records) + 1
		records = append(records, s.record)
	}
	return records
}

func (c *Collector) counters(ctx context.Context) map[string]psnet.IOCountersStat {
	stats, err := c.source.Counters(ctx)
	if err != nil {
		c.logger.Warn("read interface counters", zap.Error(err))
		return nil
	}
	byName := make(map[string]psnet.IOCountersStat, len(stats))
	for _, s := range stats {
		byName[s.Name] = s
	}
	return byName
}

func (c *Collector) collectOne(iface psnet.InterfaceStat, counters map[string]psnet.IOCountersStat) (out collected) {
	defer func() {
		if r := recover(); r != nil {
			out = collected{err: &CollectError{
				Interface: iface.Name,
				Kind:      FaultPanic,
				Err:       fmt.Errorf("%v", r),
			}}
		}
	}()

	rec := models.InterfaceRecord{Name: iface.Name}

	if err := applyAddresses(&rec, iface.Addrs); err != nil {
		return collected{err: &CollectError{Interface: iface.Name, Kind: FaultAddress, Err: err}}
	}
	if iface.HardwareAddr != "" {
		rec.MAC = models.Some(iface.HardwareAddr)
	}

	link := c.source.Link(iface.Name)
	rec.IsUp = isUp(iface.Flags, link.OperState)
	if link.SpeedMbps > 0 {
		rec.SpeedMbps = models.Some(link.SpeedMbps)
	}
	if iface.MTU > 0 {
		rec.MTU = models.Some(iface.MTU)
	}

	if io, ok := counters[iface.Name]; ok {
		rec.BytesSent = models.Some(FormatBytes(io.BytesSent))
		rec.BytesRecv = models.Some(FormatBytes(io.BytesRecv))
		rec.PacketsSent = io.PacketsSent
		rec.PacketsRecv = io.PacketsRecv
		rec.ErrorsIn = io.Errin
		rec.ErrorsOut = io.Errout
		rec.DropsIn = io.Dropin
		rec.DropsOut = io.Dropout
	}

	return collected{record: rec}
}

// applyAddresses fills the first IPv4 (with netmask) and first IPv6 address.
func applyAddresses(rec *models.InterfaceRecord, addrs psnet.InterfaceAddrList) error {
	for _, a := range addrs {
		ip, mask, err := parseAddr(a.Addr)
		if err != nil {
			return err
		}
		if v4 := ip.To4(); v4 != nil {
			if rec.IPv4.Valid {
				continue
			}
			rec.IPv4 = models.Some(v4.String())
			if len(mask) == net.IPv4len {
				rec.Netmask = models.Some(net.IP(mask).String())
			}
			continue
		}
		if !rec.IPv6.Valid {
			rec.IPv6 = models.Some(ip.String())
		}
	}
	return nil
}

// parseAddr accepts CIDR notation or a bare address; mask is nil for the latter.
func parseAddr(s string) (net.IP, net.IPMask, error) {
	if strings.Contains(s, "/") {
		ip, ipnet, err := net.ParseCIDR(s)
		if err != nil {
			return nil, nil, fmt.Errorf("parse address %q: %w", s, err)
		}
		mask := ipnet.Mask
		if ip.To4() != nil && len(mask) == net.IPv6len {
			mask = mask[12:]
		}
		return ip, mask, nil
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, nil, fmt.Errorf("parse address %q: invalid IP", s)
	}
	return ip, nil, nil
}

func isUp(flags []string, operState string) bool {
	if !slices.Contains(flags, "up") {
		return false
	}
	return operState != "down" && operState != "lowerlayerdown" && operState != "dormant"
}
