package loader

import (
	"context"

	"sylvectl/internal/cache"
	"sylvectl/sylve"
)

// Every page method returns all of its parts. When some fetches fail the
// error is the first failure and the failed parts hold fallback values.

// Summary is the host overview page.
type Summary struct {
	BasicInfo          sylve.BasicInfo       `json:"basicInfo"`
	CPUInfo            sylve.CPUInfo         `json:"cpuInfo"`
	CPUInfoHistorical  []sylve.UsageSample   `json:"cpuInfoHistorical"`
	RAMInfo            sylve.RAMInfo         `json:"ramInfo"`
	RAMInfoHistorical  []sylve.UsageSample   `json:"ramInfoHistorical"`
	SwapInfo           sylve.RAMInfo         `json:"swapInfo"`
	SwapInfoHistorical []sylve.UsageSample   `json:"swapInfoHistorical"`
	IODelay            sylve.IODelay         `json:"ioDelay"`
	IODelayHistorical  []sylve.IODelaySample `json:"ioDelayHistorical"`
}

// Summary loads the host overview.
func (ld *Loader) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	c := ld.client
	g := ld.group()
	g.Go(func() error { return load(ctx, ld, KeyBasicInfo, ld.window, c.BasicInfo, &s.BasicInfo) })
	g.Go(func() error { return load(ctx, ld, KeyCPUInfo, ld.window, c.CPUInfo, &s.CPUInfo) })
	g.Go(func() error {
		return load(ctx, ld, KeyCPUInfoHistorical, ld.window, c.CPUInfoHistorical, &s.CPUInfoHistorical)
	})
	g.Go(func() error { return load(ctx, ld, KeyRAMInfo, ld.window, c.RAMInfo, &s.RAMInfo) })
	g.Go(func() error {
		return load(ctx, ld, KeyRAMInfoHistorical, ld.window, c.RAMInfoHistorical, &s.RAMInfoHistorical)
	})
	g.Go(func() error { return load(ctx, ld, KeySwapInfo, ld.window, c.SwapInfo, &s.SwapInfo) })
	g.Go(func() error {
		return load(ctx, ld, KeySwapInfoHistorical, ld.window, c.SwapInfoHistorical, &s.SwapInfoHistorical)
	})
	g.Go(func() error { return load(ctx, ld, KeyIODelay, ld.window, c.IODelay, &s.IODelay) })
	g.Go(func() error {
		return load(ctx, ld, KeyIODelayHistorical, ld.window, c.IODelayHistorical, &s.IODelayHistorical)
	})
	return s, g.Wait()
}

// Storage is the ZFS page.
type Storage struct {
	Datasets []sylve.Dataset `json:"datasets"`
	Pools    []sylve.Zpool   `json:"pools"`
}

// Storage loads datasets and pools.
func (ld *Loader) Storage(ctx context.Context) (Storage, error) {
	var s Storage
	g := ld.group()
	g.Go(func() error { return load(ctx, ld, KeyDatasets, ld.window, ld.client.Datasets, &s.Datasets) })
	g.Go(func() error { return load(ctx, ld, KeyPools, ld.window, ld.client.Pools, &s.Pools) })
	return s, g.Wait()
}

// Disks is the physical disk page. Pools are loaded to show which disks
// back them.
type Disks struct {
	Disks []sylve.Disk  `json:"disks"`
	Pools []sylve.Zpool `json:"pools"`
}

// Disks loads disks and pools.
func (ld *Loader) Disks(ctx context.Context) (Disks, error) {
	var d Disks
	g := ld.group()
	g.Go(func() error { return load(ctx, ld, KeyDisks, ld.window, ld.client.Disks, &d.Disks) })
	g.Go(func() error { return load(ctx, ld, KeyPools, ld.window, ld.client.Pools, &d.Pools) })
	return d, g.Wait()
}

// Network is the interfaces and switches page.
type Network struct {
	Interfaces []sylve.Iface    `json:"interfaces"`
	Switches   sylve.SwitchList `json:"switches"`
}

// Network loads interfaces and switches.
func (ld *Loader) Network(ctx context.Context) (Network, error) {
	var n Network
	g := ld.group()
	g.Go(func() error {
		return load(ctx, ld, KeyNetworkInterfaces, cache.NetworkWindow, ld.client.Interfaces, &n.Interfaces)
	})
	g.Go(func() error {
		return load(ctx, ld, KeyNetworkSwitches, cache.NetworkWindow, ld.client.Switches, &n.Switches)
	})
	return n, g.Wait()
}

// Datacenter is the cluster overview page.
type Datacenter struct {
	Nodes   []sylve.ClusterNode  `json:"nodes"`
	Details sylve.ClusterDetails `json:"details"`
	CPU     sylve.CPUInfo        `json:"cpu"`
	RAM     sylve.RAMInfo        `json:"ram"`
}

// Datacenter loads cluster membership and the local node's resources.
func (ld *Loader) Datacenter(ctx context.Context) (Datacenter, error) {
	var d Datacenter
	c := ld.client
	g := ld.group()
	g.Go(func() error { return load(ctx, ld, KeyClusterNodes, ld.window, c.ClusterNodes, &d.Nodes) })
	g.Go(func() error { return load(ctx, ld, KeyClusterDetails, ld.window, c.ClusterDetails, &d.Details) })
	g.Go(func() error { return load(ctx, ld, KeyDatacenterCPU, ld.window, c.CPUInfo, &d.CPU) })
	g.Go(func() error { return load(ctx, ld, KeyDatacenterRAM, ld.window, c.RAMInfo, &d.RAM) })
	return d, g.Wait()
}

// Guests lists VMs and jails.
type Guests struct {
	VMs   []sylve.SimpleVM   `json:"vms"`
	Jails []sylve.SimpleJail `json:"jails"`
}

// Guests loads the VM and jail lists.
func (ld *Loader) Guests(ctx context.Context) (Guests, error) {
	var gs Guests
	g := ld.group()
	g.Go(func() error { return load(ctx, ld, KeyVMList, ld.guestsWindow, ld.client.SimpleVMs, &gs.VMs) })
	g.Go(func() error { return load(ctx, ld, KeyJailList, ld.guestsWindow, ld.client.SimpleJails, &gs.Jails) })
	return gs, g.Wait()
}

// Notes loads the operator notes.
func (ld *Loader) Notes(ctx context.Context) ([]sylve.Note, error) {
	var notes []sylve.Note
	err := load(ctx, ld, KeyNotes, ld.window, ld.client.Notes, &notes)
	return notes, err
}

// Shares loads the Samba shares.
func (ld *Loader) Shares(ctx context.Context) ([]sylve.SambaShare, error) {
	var shares []sylve.SambaShare
	err := load(ctx, ld, KeySambaShares, ld.window, ld.client.SambaShares, &shares)
	return shares, err
}
