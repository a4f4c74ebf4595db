package sylve

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"sylvectl/internal/api"
	"sylvectl/internal/schema"
)

// VMAction and JailAction values accepted by the server.
var (
	VMActions   = []string{"start", "stop", "reboot", "shutdown"}
	JailActions = []string{"start", "stop", "restart"}
)

// Jail states.
const (
	JailActive   = "ACTIVE"
	JailInactive = "INACTIVE"
	JailUnknown  = "UNKNOWN"
)

// VM is a bhyve virtual machine definition.
type VM struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	VMID        int    `json:"vmId" validate:"gte=0"`
	CPUSockets  int    `json:"cpuSockets"`
	CPUCores    int    `json:"cpuCores"`
	CPUThreads  int    `json:"cpuThreads"`
	RAM         uint64 `json:"ram"`
	VNCPort     int    `json:"vncPort"`
	StartAtBoot bool   `json:"startAtBoot"`
	StartOrder  int    `json:"startOrder"`
	State       string `json:"state,omitempty"`
}

// SimpleVM is the summary row returned by /vm/simple.
type SimpleVM struct {
	ID    int64  `json:"id"`
	Name  string `json:"name" validate:"required"`
	VMID  int    `json:"vmId"`
	State string `json:"state"`
}

// SimpleJail is the summary row returned by /jail/simple.
type SimpleJail struct {
	ID    int64  `json:"id"`
	Name  string `json:"name" validate:"required"`
	CTID  int    `json:"ctId"`
	State string `json:"state" validate:"omitempty,oneof=ACTIVE INACTIVE UNKNOWN"`
}

func checkAction(action string, valid []string) error {
	for _, a := range valid {
		if a == action {
			return nil
		}
	}
	return fmt.Errorf("invalid action %q (valid: %v)", action, valid)
}

// VMs fetches the full VM definitions.
func (c *Client) VMs(ctx context.Context) api.Result[[]VM] {
	return get(ctx, c, "/vm", schema.ArrayOf[VM]())
}

// SimpleVMs fetches the VM summary list.
func (c *Client) SimpleVMs(ctx context.Context) api.Result[[]SimpleVM] {
	return get(ctx, c, "/vm/simple", schema.ArrayOf[SimpleVM]())
}

// VMAction runs a power action on the VM with database id.
func (c *Client) VMAction(ctx context.Context, id int64, action string) (api.Result[api.Envelope], error) {
	if err := checkAction(action, VMActions); err != nil {
		return api.Result[api.Envelope]{}, err
	}
	return mutate(ctx, c, http.MethodPost, pathf("/vm/%s/%d", action, id), nil), nil
}

// DeleteVM removes the VM with database id, optionally releasing its MAC
// address objects.
func (c *Client) DeleteVM(ctx context.Context, id int64, deleteMACs bool) api.Result[api.Envelope] {
	endpoint := pathf("/vm/%d", id) + "?deletemacs=" + strconv.FormatBool(deleteMACs)
	return mutate(ctx, c, http.MethodDelete, endpoint, nil)
}

// SimpleJails fetches the jail summary list.
func (c *Client) SimpleJails(ctx context.Context) api.Result[[]SimpleJail] {
	return get(ctx, c, "/jail/simple", schema.ArrayOf[SimpleJail]())
}

// JailAction runs a lifecycle action on jail ctID.
func (c *Client) JailAction(ctx context.Context, ctID int, action string) (api.Result[api.Envelope], error) {
	if err := checkAction(action, JailActions); err != nil {
		return api.Result[api.Envelope]{}, err
	}
	return mutate(ctx, c, http.MethodPost, pathf("/jail/action/%d/%s", ctID, action), nil), nil
}

// DeleteJail removes jail ctID.
func (c *Client) DeleteJail(ctx context.Context, ctID int) api.Result[api.Envelope] {
	return mutate(ctx, c, http.MethodDelete, pathf("/jail/%d", ctID), nil)
}
