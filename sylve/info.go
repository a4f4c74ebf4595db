package sylve

import (
	"context"
	"net/http"

	"sylvectl/internal/api"
	"sylvectl/internal/schema"
)

// BasicInfo describes the host.
type BasicInfo struct {
	Hostname     string  `json:"hostname"`
	OS           string  `json:"os"`
	Uptime       float64 `json:"uptime" validate:"gte=0"`
	LoadAverage  string  `json:"loadAverage"`
	BootMode     string  `json:"bootMode"`
	SylveVersion string  `json:"sylveVersion"`
}

const unknown = "Unknown"

func orUnknown(s *string) {
	if *s == "" {
		*s = unknown
	}
}

var basicInfoSchema = schema.Object[BasicInfo]().WithDefaults(func(b *BasicInfo) {
	orUnknown(&b.Hostname)
	orUnknown(&b.OS)
	orUnknown(&b.LoadAverage)
	orUnknown(&b.BootMode)
	orUnknown(&b.SylveVersion)
})

// CPUCache holds cache sizes in bytes.
type CPUCache struct {
	L1D uint64 `json:"l1d"`
	L1I uint64 `json:"l1i"`
	L2  uint64 `json:"l2"`
	L3  uint64 `json:"l3"`
}

// CPUInfo describes the processor and its current usage.
type CPUInfo struct {
	Name           string   `json:"name"`
	PhysicalCores  int      `json:"physicalCores" validate:"gte=0"`
	ThreadsPerCore int      `json:"threadsPerCore" validate:"gte=0"`
	LogicalCores   int      `json:"logicalCores" validate:"gte=0"`
	Family         int      `json:"family"`
	Model          int      `json:"model"`
	Features       []string `json:"features"`
	CacheLine      int      `json:"cacheLine"`
	Cache          CPUCache `json:"cache"`
	Frequency      float64  `json:"frequency"`
	Usage          float64  `json:"usage" validate:"gte=0,lte=100"`
}

var cpuInfoSchema = schema.Object[CPUInfo]().WithDefaults(func(c *CPUInfo) {
	orUnknown(&c.Name)
	if c.Features == nil {
		c.Features = []string{}
	}
})

// UsageSample is one point of a usage history.
type UsageSample struct {
	ID        int64   `json:"id"`
	Usage     float64 `json:"usage"`
	CreatedAt string  `json:"createdAt"`
}

// RAMInfo describes physical memory or swap.
type RAMInfo struct {
	Total       uint64  `json:"total"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"usedPercent" validate:"gte=0,lte=100"`
}

// Used returns the bytes in use.
func (r RAMInfo) Used() uint64 {
	if r.Free > r.Total {
		return 0
	}
	return r.Total - r.Free
}

// Note is a free-form operator note.
type Note struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// NoteRequest creates or updates a note.
type NoteRequest struct {
	Title   string `json:"title" validate:"required,max=128"`
	Content string `json:"content" validate:"required"`
}

// BasicInfo fetches /info/basic.
func (c *Client) BasicInfo(ctx context.Context) api.Result[BasicInfo] {
	return get(ctx, c, "/info/basic", basicInfoSchema)
}

// CPUInfo fetches /info/cpu.
func (c *Client) CPUInfo(ctx context.Context) api.Result[CPUInfo] {
	return get(ctx, c, "/info/cpu", cpuInfoSchema)
}

// CPUInfoHistorical fetches /info/cpu/historical.
func (c *Client) CPUInfoHistorical(ctx context.Context) api.Result[[]UsageSample] {
	return get(ctx, c, "/info/cpu/historical", schema.ArrayOf[UsageSample]())
}

// RAMInfo fetches /info/ram.
func (c *Client) RAMInfo(ctx context.Context) api.Result[RAMInfo] {
	return get(ctx, c, "/info/ram", schema.Object[RAMInfo]())
}

// RAMInfoHistorical fetches /info/ram/historical.
func (c *Client) RAMInfoHistorical(ctx context.Context) api.Result[[]UsageSample] {
	return get(ctx, c, "/info/ram/historical", schema.ArrayOf[UsageSample]())
}

// SwapInfo fetches /info/swap.
func (c *Client) SwapInfo(ctx context.Context) api.Result[RAMInfo] {
	return get(ctx, c, "/info/swap", schema.Object[RAMInfo]())
}

// SwapInfoHistorical fetches /info/swap/historical.
func (c *Client) SwapInfoHistorical(ctx context.Context) api.Result[[]UsageSample] {
	return get(ctx, c, "/info/swap/historical", schema.ArrayOf[UsageSample]())
}

// Notes lists the notes.
func (c *Client) Notes(ctx context.Context) api.Result[[]Note] {
	return get(ctx, c, "/info/notes", schema.ArrayOf[Note]())
}

// CreateNote adds a note and returns it as stored.
func (c *Client) CreateNote(ctx context.Context, req NoteRequest) (api.Result[Note], error) {
	if err := schema.Check(req); err != nil {
		return api.Result[Note]{}, err
	}
	return api.Execute(ctx, c.api, "/info/notes", schema.Object[Note](), http.MethodPost, req), nil
}

// UpdateNote replaces the title and content of note id.
func (c *Client) UpdateNote(ctx context.Context, id int64, req NoteRequest) (api.Result[api.Envelope], error) {
	if err := schema.Check(req); err != nil {
		return api.Result[api.Envelope]{}, err
	}
	return mutate(ctx, c, http.MethodPut, pathf("/info/notes/%d", id), req), nil
}

// DeleteNote removes note id.
func (c *Client) DeleteNote(ctx context.Context, id int64) api.Result[api.Envelope] {
	return mutate(ctx, c, http.MethodDelete, pathf("/info/notes/%d", id), nil)
}

// DeleteNotes removes several notes in one request.
func (c *Client) DeleteNotes(ctx context.Context, ids []int64) api.Result[api.Envelope] {
	return mutate(ctx, c, http.MethodPost, "/info/notes/bulk-delete", map[string][]int64{"ids": ids})
}
