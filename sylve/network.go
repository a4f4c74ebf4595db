package sylve

import (
	"context"
	"net/http"

	"sylvectl/internal/api"
	"sylvectl/internal/schema"
)

// IfaceFlags is a raw flag word and its decoded names.
type IfaceFlags struct {
	Raw  uint32   `json:"raw"`
	Desc []string `json:"desc"`
}

// IfaceCapabilities lists enabled and supported capability names.
type IfaceCapabilities struct {
	Enabled   IfaceFlags `json:"enabled"`
	Supported IfaceFlags `json:"supported"`
}

// IPv4 is an interface address.
type IPv4 struct {
	IP        string `json:"ip" validate:"required,ip4_addr"`
	Netmask   string `json:"netmask"`
	Broadcast string `json:"broadcast"`
}

// IPv6 is an interface address.
type IPv6 struct {
	IP           string `json:"ip" validate:"required"`
	PrefixLength int    `json:"prefixLength" validate:"gte=0,lte=128"`
	ScopeID      int    `json:"scopeId"`
	AutoConf     bool   `json:"autoConf"`
}

// Iface is a network interface on the host.
type Iface struct {
	Name         string            `json:"name" validate:"required"`
	Ether        string            `json:"ether"`
	Flags        IfaceFlags        `json:"flags"`
	MTU          int               `json:"mtu" validate:"gte=0"`
	Metric       int               `json:"metric"`
	Capabilities IfaceCapabilities `json:"capabilities"`
	Driver       string            `json:"driver"`
	IPv4         []IPv4            `json:"ipv4" validate:"dive"`
	IPv6         []IPv6            `json:"ipv6" validate:"dive"`
}

// NetworkPort is an interface attached to a switch.
type NetworkPort struct {
	ID       int64  `json:"id"`
	Name     string `json:"name" validate:"required"`
	SwitchID int64  `json:"switchId"`
}

// StandardSwitch is an if_bridge based switch.
type StandardSwitch struct {
	ID      int64         `json:"id"`
	Name    string        `json:"name" validate:"required"`
	MTU     int           `json:"mtu"`
	VLAN    int           `json:"vlan" validate:"gte=0,lte=4094"`
	Private bool          `json:"private"`
	Address string        `json:"address"`
	Ports   []NetworkPort `json:"ports" validate:"dive"`
}

// SwitchList groups switches by kind.
type SwitchList struct {
	Standard []StandardSwitch `json:"standard" validate:"dive"`
}

var switchListSchema = schema.Object[SwitchList]().WithDefaults(func(l *SwitchList) {
	if l.Standard == nil {
		l.Standard = []StandardSwitch{}
	}
})

// CreateSwitchRequest creates a standard switch.
type CreateSwitchRequest struct {
	Name        string   `json:"name" validate:"required,alphanum,max=15"`
	MTU         int      `json:"mtu" validate:"omitempty,gte=576,lte=9000"`
	VLAN        int      `json:"vlan" validate:"gte=0,lte=4094"`
	Address     string   `json:"address"`
	Address6    string   `json:"address6"`
	Private     bool     `json:"private"`
	Ports       []string `json:"ports"`
	DHCP        bool     `json:"dhcp"`
	DisableIPv6 bool     `json:"disableIPv6"`
	SLAAC       bool     `json:"slaac"`
}

// Interfaces fetches /network/interface.
func (c *Client) Interfaces(ctx context.Context) api.Result[[]Iface] {
	return get(ctx, c, "/network/interface", schema.ArrayOf[Iface]())
}

// Switches fetches /network/switch.
func (c *Client) Switches(ctx context.Context) api.Result[SwitchList] {
	return get(ctx, c, "/network/switch", switchListSchema)
}

// CreateSwitch adds a standard switch.
func (c *Client) CreateSwitch(ctx context.Context, req CreateSwitchRequest) (api.Result[api.Envelope], error) {
	if err := schema.Check(req); err != nil {
		return api.Result[api.Envelope]{}, err
	}
	if req.Ports == nil {
		req.Ports = []string{}
	}
	return mutate(ctx, c, http.MethodPost, "/network/switch/standard", req), nil
}

// DeleteSwitch removes standard switch id.
func (c *Client) DeleteSwitch(ctx context.Context, id int64) api.Result[api.Envelope] {
	return mutate(ctx, c, http.MethodDelete, pathf("/network/switch/standard/%d", id), nil)
}
