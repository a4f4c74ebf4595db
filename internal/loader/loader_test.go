package loader_test

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sylvectl/internal/cache"
	"sylvectl/internal/loader"
	"sylvectl/internal/testutil"
	"sylvectl/internal/utils"
	"sylvectl/sylve"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	srv   *testutil.SylveServer
	clock *clock
	cache *cache.Cache
	ld    *loader.Loader
}

func newFixture(t *testing.T, opts ...loader.Option) *fixture {
	t.Helper()
	srv := testutil.NewSylveServer(t)
	client := sylve.New(testutil.NewAPIClient(t, srv).Client)
	clk := &clock{now: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)}
	log := utils.NewLogger(io.Discard, false)
	c := cache.New(cache.NewMemoryStore(), cache.WithClock(clk.Now), cache.WithLogger(log))
	opts = append([]loader.Option{loader.WithLogger(log)}, opts...)
	return &fixture{srv: srv, clock: clk, cache: c, ld: loader.New(client, c, opts...)}
}

var summaryRoutes = []string{
	"/info/basic", "/info/cpu", "/info/cpu/historical", "/info/ram", "/info/ram/historical",
	"/info/swap", "/info/swap/historical", "/zfs/pool/io-delay", "/zfs/pool/io-delay?historical=1",
}

func TestSummaryLoadsEveryPart(t *testing.T) {
	f := newFixture(t)
	s, err := f.ld.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "node-a", s.BasicInfo.Hostname)
	assert.Equal(t, 32, s.CPUInfo.LogicalCores)
	assert.Len(t, s.CPUInfoHistorical, 2)
	assert.Equal(t, float64(50), s.RAMInfo.UsedPercent)
	assert.Len(t, s.RAMInfoHistorical, 1)
	assert.Equal(t, uint64(8589934592), s.SwapInfo.Total)
	assert.NotNil(t, s.SwapInfoHistorical)
	assert.Equal(t, 0.4, s.IODelay.Delay)
	assert.Len(t, s.IODelayHistorical, 1)
}

func TestSummaryFetchesEachEndpointOncePerWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.ld.Summary(ctx)
		require.NoError(t, err)
		f.clock.Advance(24 * time.Hour)
	}
	for _, path := range summaryRoutes {
		assert.Equal(t, 1, f.srv.Calls(http.MethodGet, path), path)
	}

	f.clock.Advance(cache.SevenDays)
	_, err := f.ld.Summary(ctx)
	require.NoError(t, err)
	for _, path := range summaryRoutes {
		assert.Equal(t, 2, f.srv.Calls(http.MethodGet, path), path)
	}
}

func TestPartialFailureIsNotCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.srv.Handle(http.MethodGet, "/info/cpu", http.StatusInternalServerError, testutil.Failure("internal", "sysctl failed"))

	s, err := f.ld.Summary(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), loader.KeyCPUInfo)
	assert.Equal(t, "node-a", s.BasicInfo.Hostname, "other parts should still load")
	assert.Zero(t, s.CPUInfo.LogicalCores)

	_, err = f.ld.Summary(ctx)
	require.Error(t, err)
	assert.Equal(t, 2, f.srv.Calls(http.MethodGet, "/info/cpu"))
	assert.Equal(t, 1, f.srv.Calls(http.MethodGet, "/info/basic"))
}

func TestFailedListFallsBackToEmpty(t *testing.T) {
	f := newFixture(t)
	f.srv.HandleData(http.MethodGet, "/zfs/datasets", map[string]any{"unexpected": true})

	s, err := f.ld.Storage(context.Background())
	require.Error(t, err)
	assert.NotNil(t, s.Datasets)
	assert.Empty(t, s.Datasets)
	assert.Len(t, s.Pools, 1)
}

func TestNetworkWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.ld.Network(ctx)
	require.NoError(t, err)
	require.Len(t, n.Interfaces, 1)
	assert.Equal(t, "em0", n.Interfaces[0].Name)
	require.Len(t, n.Switches.Standard, 1)

	f.clock.Advance(cache.NetworkWindow - time.Millisecond)
	_, _ = f.ld.Network(ctx)
	assert.Equal(t, 1, f.srv.Calls(http.MethodGet, "/network/interface"))

	f.clock.Advance(time.Millisecond)
	_, _ = f.ld.Network(ctx)
	assert.Equal(t, 2, f.srv.Calls(http.MethodGet, "/network/interface"))
	assert.Equal(t, 2, f.srv.Calls(http.MethodGet, "/network/switch"))
}

func TestStorageAndDisksSharePools(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ld.Storage(ctx)
	require.NoError(t, err)
	d, err := f.ld.Disks(ctx)
	require.NoError(t, err)

	assert.Len(t, d.Disks, 1)
	assert.Len(t, d.Pools, 1)
	assert.Equal(t, 1, f.srv.Calls(http.MethodGet, "/zfs/pool/list"))
}

func TestDatacenter(t *testing.T) {
	f := newFixture(t)
	d, err := f.ld.Datacenter(context.Background())
	require.NoError(t, err)

	require.Len(t, d.Nodes, 1)
	assert.Equal(t, "node-a", d.Nodes[0].Hostname)
	assert.True(t, d.Details.Cluster.Enabled)
	assert.Equal(t, "AMD EPYC 7302P", d.CPU.Name)
	assert.Equal(t, uint64(68719476736), d.RAM.Total)

	// The datacenter page keeps its own copies of cpu and ram info.
	_, err = f.ld.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, f.srv.Calls(http.MethodGet, "/info/cpu"))
}

func TestGuestsWindowConfigurable(t *testing.T) {
	f := newFixture(t, loader.WithGuestsWindow(10*time.Second))
	ctx := context.Background()

	g, err := f.ld.Guests(ctx)
	require.NoError(t, err)
	assert.Len(t, g.VMs, 1)
	assert.Len(t, g.Jails, 2)

	f.clock.Advance(5 * time.Second)
	_, _ = f.ld.Guests(ctx)
	assert.Equal(t, 1, f.srv.Calls(http.MethodGet, "/vm/simple"))

	f.clock.Advance(5 * time.Second)
	_, _ = f.ld.Guests(ctx)
	assert.Equal(t, 2, f.srv.Calls(http.MethodGet, "/vm/simple"))
	assert.Equal(t, 2, f.srv.Calls(http.MethodGet, "/jail/simple"))
}

func TestInvalidateReloadsPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ld.Storage(ctx)
	require.NoError(t, err)
	require.NoError(t, f.ld.Invalidate("storage"))
	_, err = f.ld.Storage(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, f.srv.Calls(http.MethodGet, "/zfs/datasets"))
	assert.Error(t, f.ld.Invalidate("nope"))
}

func TestNotesAndShares(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	notes, err := f.ld.Notes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "maintenance", notes[0].Title)

	shares, err := f.ld.Shares(ctx)
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, "media", shares[0].Name)
}

func TestConcurrencyLimit(t *testing.T) {
	f := newFixture(t, loader.WithConcurrency(1))
	_, err := f.ld.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(summaryRoutes), f.srv.TotalCalls())
}

func TestPagesCoverEveryKey(t *testing.T) {
	seen := map[string]bool{}
	for _, keys := range loader.Pages {
		for _, k := range keys {
			seen[k] = true
		}
	}
	for _, k := range []string{
		loader.KeyBasicInfo, loader.KeyIODelayHistorical, loader.KeyDatasets, loader.KeyDisks,
		loader.KeyNetworkSwitches, loader.KeyClusterDetails, loader.KeyVMList, loader.KeyJailList,
	} {
		assert.True(t, seen[k], "key %s is not reachable from any page", k)
	}
}
