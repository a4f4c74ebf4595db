package sylve

import (
	"context"
	"net/http"

	"sylvectl/internal/api"
	"sylvectl/internal/schema"
)

// Pool health states reported by zpool.
const (
	HealthOnline   = "ONLINE"
	HealthDegraded = "DEGRADED"
	HealthFaulted  = "FAULTED"
)

// RW is a read/write counter pair.
type RW struct {
	Read  float64 `json:"read"`
	Write float64 `json:"write"`
}

// VdevDevice is a leaf device inside a vdev.
type VdevDevice struct {
	Name   string `json:"name" validate:"required"`
	Size   uint64 `json:"size"`
	Health string `json:"health"`
}

// ReplacingVdevDevice is a device being resilvered onto a new drive.
type ReplacingVdevDevice struct {
	Name     string     `json:"name" validate:"required"`
	Health   string     `json:"health"`
	OldDrive VdevDevice `json:"oldDrive"`
	NewDrive VdevDevice `json:"newDrive"`
}

// Vdev is a top-level virtual device of a pool.
type Vdev struct {
	Name             string                `json:"name" validate:"required"`
	Alloc            uint64                `json:"alloc"`
	Free             uint64                `json:"free"`
	Size             uint64                `json:"size"`
	Health           string                `json:"health"`
	Operations       RW                    `json:"operations"`
	Bandwidth        RW                    `json:"bandwidth"`
	Devices          []VdevDevice          `json:"devices" validate:"dive"`
	ReplacingDevices []ReplacingVdevDevice `json:"replacingDevices,omitempty" validate:"omitempty,dive"`
}

// Zpool is a ZFS storage pool.
type Zpool struct {
	Name       string  `json:"name" validate:"required,zfsname"`
	Health     string  `json:"health" validate:"required"`
	Allocated  uint64  `json:"allocated"`
	Size       uint64  `json:"size"`
	Free       uint64  `json:"free"`
	ReadOnly   bool    `json:"readOnly"`
	Freeing    uint64  `json:"freeing"`
	Leaked     uint64  `json:"leaked"`
	DedupRatio float64 `json:"dedupRatio"`
	Vdevs      []Vdev  `json:"vdevs" validate:"dive"`
}

// IODelay is the current I/O delay percentage.
type IODelay struct {
	Delay float64 `json:"delay"`
}

// IODelaySample is one point of the I/O delay history.
type IODelaySample struct {
	ID        int64   `json:"id"`
	Delay     float64 `json:"delay"`
	CreatedAt string  `json:"createdAt"`
}

// Dataset is a filesystem, volume or snapshot.
type Dataset struct {
	Name          string            `json:"name" validate:"required"`
	GUID          string            `json:"guid"`
	Type          string            `json:"type" validate:"omitempty,oneof=filesystem volume snapshot"`
	Used          uint64            `json:"used"`
	Avail         uint64            `json:"avail"`
	Referenced    uint64            `json:"referenced"`
	Mountpoint    string            `json:"mountpoint"`
	Compression   string            `json:"compression"`
	Properties    map[string]string `json:"properties,omitempty"`
	CreatedAt     string            `json:"createdAt,omitempty"`
	Checksum      string            `json:"checksum,omitempty"`
	RecordSize    uint64            `json:"recordsize,omitempty"`
	VolSize       uint64            `json:"volsize,omitempty"`
	VolBlockSize  uint64            `json:"volblocksize,omitempty"`
	Deduplication string            `json:"dedup,omitempty"`
}

// CreateSnapshotRequest snapshots a dataset.
type CreateSnapshotRequest struct {
	GUID      string `json:"guid,omitempty"`
	Dataset   string `json:"dataset" validate:"required,zfsname"`
	Name      string `json:"name" validate:"required,zfsname,excludes=/"`
	Recursive bool   `json:"recursive"`
}

// CreateVdev names a vdev and its member devices.
type CreateVdev struct {
	Name    string   `json:"name" validate:"required"`
	Devices []string `json:"devices" validate:"min=1,dive,required"`
}

// CreatePoolRequest creates a pool.
type CreatePoolRequest struct {
	Name       string            `json:"name" validate:"required,alphanum,min=1,max=24"`
	RaidType   string            `json:"raidType,omitempty" validate:"omitempty,oneof=mirror raidz raidz2 raidz3"`
	Vdevs      []CreateVdev      `json:"vdevs" validate:"min=1,dive"`
	Properties map[string]string `json:"properties,omitempty"`
	Force      bool              `json:"createForce"`
}

// Pools fetches /zfs/pool/list.
func (c *Client) Pools(ctx context.Context) api.Result[[]Zpool] {
	return get(ctx, c, "/zfs/pool/list", schema.ArrayOf[Zpool]())
}

// IODelay fetches the current pool I/O delay.
func (c *Client) IODelay(ctx context.Context) api.Result[IODelay] {
	return get(ctx, c, "/zfs/pool/io-delay", schema.Object[IODelay]())
}

// IODelayHistorical fetches the I/O delay history.
func (c *Client) IODelayHistorical(ctx context.Context) api.Result[[]IODelaySample] {
	return get(ctx, c, "/zfs/pool/io-delay?historical=1", schema.ArrayOf[IODelaySample]())
}

// CreatePool creates a pool from req.
func (c *Client) CreatePool(ctx context.Context, req CreatePoolRequest) (api.Result[api.Envelope], error) {
	if err := schema.Check(req); err != nil {
		return api.Result[api.Envelope]{}, err
	}
	return mutate(ctx, c, http.MethodPost, "/zfs/pools", req), nil
}

// Datasets fetches /zfs/datasets.
func (c *Client) Datasets(ctx context.Context) api.Result[[]Dataset] {
	return get(ctx, c, "/zfs/datasets", schema.ArrayOf[Dataset]())
}

// CreateSnapshot snapshots req.Dataset as req.Name.
func (c *Client) CreateSnapshot(ctx context.Context, req CreateSnapshotRequest) (api.Result[api.Envelope], error) {
	if err := schema.Check(req); err != nil {
		return api.Result[api.Envelope]{}, err
	}
	return mutate(ctx, c, http.MethodPost, "/zfs/datasets/snapshot", req), nil
}

// DeleteSnapshot destroys the snapshot with the given guid.
func (c *Client) DeleteSnapshot(ctx context.Context, guid string) api.Result[api.Envelope] {
	return mutate(ctx, c, http.MethodDelete, pathf("/zfs/datasets/snapshot/%s", guid), nil)
}
