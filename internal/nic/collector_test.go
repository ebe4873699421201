package nic

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/HerbHall/niccommander/internal/testutil"
	"github.com/HerbHall/niccommander/pkg/models"
	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSource serves canned interface data.
type fakeSource struct {
	ifaces      psnet.InterfaceStatList
	ifaceErr    error
	counters    []psnet.IOCountersStat
	countersErr error
	links       map[string]LinkInfo
	panicOn     string
}

var _ Source = (*fakeSource)(nil)

func (f *fakeSource) Interfaces(_ context.Context) (psnet.InterfaceStatList, error) {
	return f.ifaces, f.ifaceErr
}

func (f *fakeSource) Counters(_ context.Context) ([]psnet.IOCountersStat, error) {
	return f.counters, f.countersErr
}

func (f *fakeSource) Link(name string) LinkInfo {
	if name == f.panicOn {
		panic("link read exploded")
	}
	return f.links[name]
}

func addrs(list ...string) psnet.InterfaceAddrList {
	out := make(psnet.InterfaceAddrList, 0, len(list))
	for _, a := range list {
		out = append(out, psnet.InterfaceAddr{Addr: a})
	}
	return out
}

func ethSource() *fakeSource {
	return &fakeSource{
		ifaces: psnet.InterfaceStatList{
			{
				Index:        1,
				Name:         "lo",
				MTU:          65536,
				Flags:        []string{"up", "loopback", "running"},
				Addrs:        addrs("127.0.0.1/8", "::1/128"),
				HardwareAddr: "",
			},
			{
				Index:        2,
				Name:         "eth0",
				MTU:          1500,
				Flags:        []string{"up", "broadcast", "multicast", "running"},
				Addrs:        addrs("fe80::a00:27ff:fe4e:66a1/64", "192.168.1.10/24", "10.0.0.5/8"),
				HardwareAddr: "08:00:27:4e:66:a1",
			},
		},
		counters: []psnet.IOCountersStat{
			{Name: "eth0", BytesSent: 1536, BytesRecv: 1 << 20, PacketsSent: 12, PacketsRecv: 34, Errin: 1, Errout: 2, Dropin: 3, Dropout: 4},
		},
		links: map[string]LinkInfo{
			"eth0": {OperState: "up", SpeedMbps: 1000},
			"lo":   {OperState: "unknown"},
		},
	}
}

func TestCollectorList_Fields(t *testing.T) {
	c := NewCollector(ethSource(), 8, zap.NewNop())

	recs := c.List(context.Background())
	require.Len(t, recs, 2)

	lo := recs[0]
	assert.Equal(t, 1, lo.ID)
	assert.Equal(t, "lo", lo.Name)
	assert.Equal(t, models.Some("127.0.0.1"), lo.IPv4)
	assert.Equal(t, models.Some("255.0.0.0"), lo.Netmask)
	assert.Equal(t, models.Some("::1"), lo.IPv6)
	assert.False(t, lo.MAC.Valid, "loopback has no MAC")
	assert.True(t, lo.IsUp, "operstate unknown falls back to flags")
	assert.False(t, lo.SpeedMbps.Valid)
	assert.Equal(t, models.Some(65536), lo.MTU)
	assert.False(t, lo.BytesSent.Valid, "no counters entry for lo")
	assert.Zero(t, lo.PacketsSent)

	eth := recs[1]
	assert.Equal(t, 2, eth.ID)
	assert.Equal(t, models.Some("192.168.1.10"), eth.IPv4, "first IPv4 wins")
	assert.Equal(t, models.Some("255.255.255.0"), eth.Netmask)
	assert.Equal(t, models.Some("fe80::a00:27ff:fe4e:66a1"), eth.IPv6)
	assert.Equal(t, models.Some("08:00:27:4e:66:a1"), eth.MAC)
	assert.True(t, eth.IsUp)
	assert.Equal(t, models.Some(1000), eth.SpeedMbps)
	assert.Equal(t, models.Some("1.50 KB"), eth.BytesSent)
	assert.Equal(t, models.Some("1.00 MB"), eth.BytesRecv)
	assert.Equal(t, uint64(12), eth.PacketsSent)
	assert.Equal(t, uint64(34), eth.PacketsRecv)
	assert.Equal(t, uint64(1), eth.ErrorsIn)
	assert.Equal(t, uint64(2), eth.ErrorsOut)
	assert.Equal(t, uint64(3), eth.DropsIn)
	assert.Equal(t, uint64(4), eth.DropsOut)
}

func TestCollectorList_CapsAtEight(t *testing.T) {
	src := &fakeSource{}
	for i := 0; i < 12; i++ {
		src.ifaces = append(src.ifaces, testutil.NewInterfaceStat(fmt.Sprintf("veth%d", i)))
	}
	c := NewCollector(src, 0, zap.NewNop())

	recs := c.List(context.Background())
	require.Len(t, recs, models.MaxInterfaces)
	for i, r := range recs {
		assert.Equal(t, i+1, r.ID)
		assert.Equal(t, fmt.Sprintf("veth%d", i), r.Name, "enumeration order preserved")
	}
}

func TestCollectorList_ConfiguredCap(t *testing.T) {
	c := NewCollector(ethSource(), 1, zap.NewNop())
	recs := c.List(context.Background())
	require.Len(t, recs, 1)
	assert.Equal(t, "lo", recs[0].Name)

	// Values above the hard cap are clamped.
	c = NewCollector(ethSource(), 50, zap.NewNop())
	assert.Equal(t, models.MaxInterfaces, c.max)
}

func TestCollectorList_SkipsFaultyInterface(t *testing.T) {
	src := ethSource()
	src.ifaces = append(psnet.InterfaceStatList{
		{Name: "bogus0", Flags: []string{"up"}, Addrs: addrs("not-an-address/99")},
	}, src.ifaces...)
	src.ifaces = append(src.ifaces, testutil.NewInterfaceStat("wlan0", testutil.WithAddrs("192.168.7.2/24")))
	src.panicOn = "wlan0"

	c := NewCollector(src, 8, zap.NewNop())
	recs := c.List(context.Background())

	require.Len(t, recs, 2)
	assert.Equal(t, "lo", recs[0].Name)
	assert.Equal(t, 1, recs[0].ID)
	assert.Equal(t, "eth0", recs[1].Name)
	assert.Equal(t, 2, recs[1].ID)
}

func TestCollectOne_FaultKinds(t *testing.T) {
	src := &fakeSource{panicOn: "boom0"}
	c := NewCollector(src, 8, zap.NewNop())

	got := c.collectOne(psnet.InterfaceStat{Name: "bad0", Addrs: addrs("999.1.1.1")}, nil)
	require.NotNil(t, got.err)
	assert.Equal(t, FaultAddress, got.err.Kind)
	assert.Equal(t, "bad0", got.err.Interface)

	got = c.collectOne(psnet.InterfaceStat{Name: "boom0"}, nil)
	require.NotNil(t, got.err)
	assert.Equal(t, FaultPanic, got.err.Kind)
}

func TestCollectorList_EnumerationFailure(t *testing.T) {
	c := NewCollector(&fakeSource{ifaceErr: errors.New("no netlink")}, 8, zap.NewNop())
	recs := c.List(context.Background())
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestCollectorList_CountersFailure(t *testing.T) {
	src := ethSource()
	src.countersErr = errors.New("proc unreadable")
	c := NewCollector(src, 8, zap.NewNop())

	recs := c.List(context.Background())
	require.Len(t, recs, 2)
	assert.False(t, recs[1].BytesSent.Valid)
	assert.False(t, recs[1].BytesRecv.Valid)
	assert.Zero(t, recs[1].PacketsRecv)
}

func TestCollectorList_LinkDown(t *testing.T) {
	src := ethSource()
	src.links["eth0"] = LinkInfo{OperState: "down"}
	c := NewCollector(src, 8, zap.NewNop())

	recs := c.List(context.Background())
	require.Len(t, recs, 2)
	assert.False(t, recs[1].IsUp)
	assert.False(t, recs[1].SpeedMbps.Valid)
}

func TestCollectorList_AdminDown(t *testing.T) {
	src := &fakeSource{ifaces: psnet.InterfaceStatList{
		testutil.NewInterfaceStat("eth1", testutil.WithFlags("broadcast"), testutil.WithMTU(0)),
	}}
	c := NewCollector(src, 8, zap.NewNop())
	recs := c.List(context.Background())
	require.Len(t, recs, 1)
	assert.False(t, recs[0].IsUp)
	assert.False(t, recs[0].IPv4.Valid)
	assert.False(t, recs[0].MTU.Valid)
}

func TestCollectorList_Idempotent(t *testing.T) {
	c := NewCollector(ethSource(), 8, zap.NewNop())
	first := c.List(context.Background())
	second := c.List(context.Background())
	assert.Equal(t, first, second)
}

func TestCollectorList_SystemSnapshot(t *testing.T) {
	c := NewCollector(NewSystemSource(NewLinkReader(afero.NewOsFs(), "")), 8, zap.NewNop())

	recs := c.List(context.Background())
	if len(recs) == 0 {
		t.Log("No interfaces found (may be expected in some environments)")
		return
	}
	assert.LessOrEqual(t, len(recs), models.MaxInterfaces)
	seen := make(map[int]bool)
	for i, r := range recs {
		assert.Equal(t, i+1, r.ID)
		assert.False(t, seen[r.ID], "duplicate ID %d", r.ID)
		seen[r.ID] = true
		assert.NotEmpty(t, r.Name)
	}
}

func TestToggle_Unsupported(t *testing.T) {
	c := NewCollector(ethSource(), 8, zap.NewNop())
	err := c.Toggle("eth0")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToggleUnsupported)
}
