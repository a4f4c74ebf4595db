// Package loader assembles the data behind each console page. Every page
// fans out its cached fetches concurrently and waits for all of them.
package loader

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"sylvectl/internal/api"
	"sylvectl/internal/cache"
	"sylvectl/internal/utils"
	"sylvectl/sylve"
)

// Cache keys, one per fetched resource.
const (
	KeyBasicInfo          = "basicInfo"
	KeyCPUInfo            = "cpuInfo"
	KeyCPUInfoHistorical  = "cpuInfoHistorical"
	KeyRAMInfo            = "ramInfo"
	KeyRAMInfoHistorical  = "ramInfoHistorical"
	KeySwapInfo           = "swapInfo"
	KeySwapInfoHistorical = "swapInfoHistorical"
	KeyIODelay            = "ioDelay"
	KeyIODelayHistorical  = "ioDelayHistorical"
	KeyDatasets           = "datasets"
	KeyPools              = "pools"
	KeyDisks              = "disks"
	KeyNetworkInterfaces  = "networkInterfaces"
	KeyNetworkSwitches    = "networkSwitches"
	KeyClusterNodes       = "cluster-nodes"
	KeyClusterDetails     = "cluster-details"
	KeyDatacenterCPU      = "cpu-info"
	KeyDatacenterRAM      = "ram-info"
	KeyVMList             = "vm-list"
	KeyJailList           = "jail-list"
	KeyNotes              = "notes"
	KeySambaShares        = "samba-shares"
)

// DefaultGuestsWindow is how long VM and jail lists stay fresh.
const DefaultGuestsWindow = time.Minute

// Pages maps page names to the keys they load, for invalidation.
var Pages = map[string][]string{
	"summary": {
		KeyBasicInfo, KeyCPUInfo, KeyCPUInfoHistorical, KeyRAMInfo, KeyRAMInfoHistorical,
		KeySwapInfo, KeySwapInfoHistorical, KeyIODelay, KeyIODelayHistorical,
	},
	"storage":    {KeyDatasets, KeyPools},
	"disks":      {KeyDisks, KeyPools},
	"network":    {KeyNetworkInterfaces, KeyNetworkSwitches},
	"datacenter": {KeyClusterNodes, KeyClusterDetails, KeyDatacenterCPU, KeyDatacenterRAM},
	"guests":     {KeyVMList, KeyJailList},
	"notes":      {KeyNotes},
	"shares":     {KeySambaShares},
}

// Loader runs page loads against one server through a cache.
type Loader struct {
	client       *sylve.Client
	cache        *cache.Cache
	log          *utils.Logger
	limit        int
	window       time.Duration
	guestsWindow time.Duration
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger for failed fetches.
func WithLogger(l *utils.Logger) Option {
	return func(ld *Loader) {
		ld.log = l
	}
}

// WithConcurrency caps in-flight fetches per page. Zero or less means no cap.
func WithConcurrency(n int) Option {
	return func(ld *Loader) {
		ld.limit = n
	}
}

// WithWindow sets the freshness window of every page except network and
// guests. Defaults to seven days.
func WithWindow(d time.Duration) Option {
	return func(ld *Loader) {
		ld.window = d
	}
}

// WithGuestsWindow sets the freshness window of the guests page.
func WithGuestsWindow(d time.Duration) Option {
	return func(ld *Loader) {
		ld.guestsWindow = d
	}
}

// New creates a loader.
func New(client *sylve.Client, c *cache.Cache, opts ...Option) *Loader {
	ld := &Loader{
		client:       client,
		cache:        c,
		log:          utils.GetLogger(),
		window:       cache.SevenDays,
		guestsWindow: DefaultGuestsWindow,
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Client returns the Sylve client used for fetches.
func (ld *Loader) Client() *sylve.Client {
	return ld.client
}

// Cache returns the cache pages are loaded through.
func (ld *Loader) Cache() *cache.Cache {
	return ld.cache
}

// Invalidate drops the cached keys of page.
func (ld *Loader) Invalidate(page string) error {
	keys, ok := Pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return ld.cache.Invalidate(keys...)
}

func (ld *Loader) group() *errgroup.Group {
	g := new(errgroup.Group)
	if ld.limit > 0 {
		g.SetLimit(ld.limit)
	}
	return g
}

// load fetches key through the cache into dst. Failed requests are not
// cached; dst then holds the request's fallback value.
func load[T any](ctx context.Context, ld *Loader, key string, window time.Duration, call func(context.Context) api.Result[T], dst *T) error {
	var fallback T
	v, err := cache.Fetch(ctx, ld.cache, key, func(ctx context.Context) (T, error) {
		r := call(ctx)
		fallback = r.Value
		return r.Value, r.Cause()
	}, window)
	if err != nil {
		ld.log.Warn("failed to load %s: %v", key, err)
		*dst = fallback
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}
