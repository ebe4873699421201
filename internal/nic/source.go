package nic

import (
	"context"
	"path"
	"strconv"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/spf13/afero"
)

// DefaultSysfsRoot is where Linux publishes per-interface link attributes.
const DefaultSysfsRoot = "/sys/class/net"

// Source supplies the raw interface data a snapshot is built from.
type Source interface {
	// Interfaces lists interfaces in system enumeration order.
	Interfaces(ctx context.Context) (psnet.InterfaceStatList, error)

	// Counters returns cumulative per-interface I/O counters.
	Counters(ctx context.Context) ([]psnet.IOCountersStat, error)

	// Link returns the live link attributes for the named interface.
	Link(name string) LinkInfo
}

// LinkInfo holds link attributes that the address APIs do not expose.
// Zero-valued fields mean the attribute could not be read.
type LinkInfo struct {
	OperState string // "up", "down", "unknown", ...
	SpeedMbps int
}

// SystemSource reads the host through gopsutil and the sysfs link tree.
type SystemSource struct {
	links *LinkReader
}

// Compile-time interface guard.
var _ Source = (*SystemSource)(nil)

// NewSystemSource returns a Source backed by the running host.
func NewSystemSource(links *LinkReader) *SystemSource {
	return &SystemSource{links: links}
}

func (s *SystemSource) Interfaces(ctx context.Context) (psnet.InterfaceStatList, error) {
	return psnet.InterfacesWithContext(ctx)
}

func (s *SystemSource) Counters(ctx context.Context) ([]psnet.IOCountersStat, error) {
	return psnet.IOCountersWithContext(ctx, true)
}

func (s *SystemSource) Link(name string) LinkInfo {
	return s.links.Read(name)
}

// LinkReader reads operstate and speed from a sysfs-style tree. Hosts
// without sysfs simply yield empty LinkInfo values.
type LinkReader struct {
	fs   afero.Fs
	root string
}

// NewLinkReader reads from root on fs. An empty root selects DefaultSysfsRoot.
func NewLinkReader(fsys afero.Fs, root string) *LinkReader {
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &LinkReader{fs: fsys, root: root}
}

// Read returns whatever link attributes are available for name.
func (r *LinkReader) Read(name string) LinkInfo {
	var info LinkInfo
	if name == "" || strings.ContainsAny(name, "/\\") {
		return info
	}

	if state, ok := r.readAttr(name, "operstate"); ok {
		info.OperState = state
	}
	// Down or virtual links report -1 or fail the read with EINVAL.
	if raw, ok := r.readAttr(name, "speed"); ok {
		if mbps, err := strconv.Atoi(raw); err == nil && mbps > 0 {
			info.SpeedMbps = mbps
		}
	}
	return info
}

func (r *LinkReader) readAttr(name, attr string) (string, bool) {
	data, err := afero.ReadFile(r.fs, path.Join(r.root, name, attr))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}
