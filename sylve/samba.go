package sylve

import (
	"context"

	"sylvectl/internal/api"
	"sylvectl/internal/schema"
)

// Group is a local group referenced by a share.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SambaShare exports a dataset over SMB.
type SambaShare struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name" validate:"required"`
	Dataset         string  `json:"dataset"`
	ReadOnlyGroups  []Group `json:"readOnlyGroups"`
	WriteableGroups []Group `json:"writeableGroups"`
	CreateMask      string  `json:"createMask"`
	DirectoryMask   string  `json:"directoryMask"`
	GuestOK         bool    `json:"guestOk"`
	ReadOnly        bool    `json:"readOnly"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// SambaShares fetches /samba/shares.
func (c *Client) SambaShares(ctx context.Context) api.Result[[]SambaShare] {
	return get(ctx, c, "/samba/shares", schema.ArrayOf[SambaShare]())
}
