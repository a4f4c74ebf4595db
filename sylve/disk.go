package sylve

import (
	"context"
	"net/http"

	"sylvectl/internal/api"
	"sylvectl/internal/schema"
)

// Partition is a slice of a disk.
type Partition struct {
	Name  string `json:"name"`
	Usage string `json:"usage"`
	Size  uint64 `json:"size"`
}

// Disk is a physical disk attached to the host.
type Disk struct {
	Device     string      `json:"device" validate:"required"`
	Type       string      `json:"type"`
	Usage      string      `json:"usage"`
	Size       uint64      `json:"size"`
	GPT        bool        `json:"gpt"`
	Model      string      `json:"model"`
	Serial     string      `json:"serial"`
	WearOut    *float64    `json:"wearOut,omitempty"`
	Partitions []Partition `json:"partitions"`
}

type deviceRequest struct {
	Device string `json:"device" validate:"required"`
}

// Disks fetches /disk/list.
func (c *Client) Disks(ctx context.Context) api.Result[[]Disk] {
	return get(ctx, c, "/disk/list", schema.ArrayOf[Disk]())
}

// WipeDisk destroys the partition table of device.
func (c *Client) WipeDisk(ctx context.Context, device string) (api.Result[api.Envelope], error) {
	req := deviceRequest{Device: device}
	if err := schema.Check(req); err != nil {
		return api.Result[api.Envelope]{}, err
	}
	return mutate(ctx, c, http.MethodPost, "/disk/wipe", req), nil
}

// InitializeGPT writes an empty GPT to device.
func (c *Client) InitializeGPT(ctx context.Context, device string) (api.Result[api.Envelope], error) {
	req := deviceRequest{Device: device}
	if err := schema.Check(req); err != nil {
		return api.Result[api.Envelope]{}, err
	}
	return mutate(ctx, c, http.MethodPost, "/disk/initialize-gpt", req), nil
}
