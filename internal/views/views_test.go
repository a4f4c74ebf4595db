package views

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"sylvectl/internal/loader"
	"sylvectl/sylve"
)

func TestHumanBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.00 KiB"},
		{1536, "1.50 KiB"},
		{1048576, "1.00 MiB"},
		{4398046511104, "4.00 TiB"},
		{1<<60 + 1<<59, "1.50 EiB"},
	}
	for _, tt := range tests {
		if got := HumanBytes(tt.in); got != tt.want {
			t.Errorf("HumanBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUptime(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0m"},
		{59, "0m"},
		{3600, "1h 0m"},
		{93784, "1d 2h 3m"},
		{86400, "1d 0h 0m"},
		{-5, "0m"},
	}
	for _, tt := range tests {
		if got := Uptime(tt.in); got != tt.want {
			t.Errorf("Uptime(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPercentAndRatio(t *testing.T) {
	if got := Percent(12.346); got != "12.35%" {
		t.Errorf("Percent = %q", got)
	}
	if got := Ratio(1, 4); got != 25 {
		t.Errorf("Ratio = %v", got)
	}
	if got := Ratio(1, 0); got != 0 {
		t.Errorf("Ratio with zero total = %v", got)
	}
}

func TestBar(t *testing.T) {
	if got := Bar(50, 10); got != "[#####.....]" {
		t.Errorf("Bar(50) = %q", got)
	}
	if got := Bar(150, 4); got != "[####]" {
		t.Errorf("Bar should clamp, got %q", got)
	}
	if got := Bar(-1, 4); got != "[....]" {
		t.Errorf("Bar should clamp, got %q", got)
	}
}

func TestHealthStyle(t *testing.T) {
	tests := map[string]lipgloss.TerminalColor{
		"ONLINE":   lipgloss.Color("10"),
		"online":   lipgloss.Color("10"),
		"ACTIVE":   lipgloss.Color("10"),
		"DEGRADED": lipgloss.Color("11"),
		"FAULTED":  lipgloss.Color("9"),
		"":         lipgloss.Color("9"),
	}
	for health, want := range tests {
		if got := HealthStyle(health).GetForeground(); got != want {
			t.Errorf("HealthStyle(%q) foreground = %v, want %v", health, got, want)
		}
	}
}

func TestRenderAlignsColumns(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, Table{
		Columns: []Column{{Name: "NAME"}, {Name: "SIZE", Align: "right"}},
		Rows:    [][]string{{"tank", "1.00 GiB"}, {"backup-pool", "12 B"}},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got %q", buf.String())
	}
	if lines[0] != "NAME"+strings.Repeat(" ", 13)+"SIZE" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "tank"+strings.Repeat(" ", 9)+"1.00 GiB" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "backup-pool"+strings.Repeat(" ", 6)+"12 B" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestRenderTruncates(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, Table{
		Columns: []Column{{Name: "NOTE", Width: 8, Truncate: true}},
		Rows:    [][]string{{"scrub tank on sunday"}},
	})
	if !strings.Contains(buf.String(), "scrub...") {
		t.Errorf("expected truncated cell, got %q", buf.String())
	}
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, Table{Title: "Jails", Columns: []Column{{Name: "NAME"}}})
	if !strings.Contains(buf.String(), "Jails") || !strings.Contains(buf.String(), "(none)") {
		t.Errorf("expected title and empty marker, got %q", buf.String())
	}
}

func TestTreeRows(t *testing.T) {
	roots := []*TreeNode{{
		Cells: []string{"tank"},
		Children: []*TreeNode{
			{Cells: []string{"mirror-0"}, Children: []*TreeNode{{Cells: []string{"ada0"}}, {Cells: []string{"ada1"}}}},
			{Cells: []string{"mirror-1"}, Children: []*TreeNode{{Cells: []string{"ada2"}}}},
		},
	}}
	var got []string
	for _, row := range TreeRows(roots) {
		got = append(got, row[0])
	}
	want := []string{
		"tank",
		"├─ mirror-0",
		"│  ├─ ada0",
		"│  └─ ada1",
		"└─ mirror-1",
		"   └─ ada2",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("tree rows:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestPoolTreeIncludesReplacingDevices(t *testing.T) {
	pools := []sylve.Zpool{{
		Name: "tank", Health: "DEGRADED", Size: 2048, Allocated: 1024,
		Vdevs: []sylve.Vdev{{
			Name:    "mirror-0",
			Health:  "DEGRADED",
			Devices: []sylve.VdevDevice{{Name: "ada0", Health: "ONLINE", Size: 1024}},
			ReplacingDevices: []sylve.ReplacingVdevDevice{{
				Name:     "replacing-1",
				Health:   "DEGRADED",
				OldDrive: sylve.VdevDevice{Name: "ada1", Health: "FAULTED"},
				NewDrive: sylve.VdevDevice{Name: "ada2", Health: "ONLINE"},
			}},
		}},
	}}

	rows := TreeRows(PoolTree(pools))
	if len(rows) != 6 {
		t.Fatalf("expected 6 rows, got %d: %v", len(rows), rows)
	}
	if rows[0][5] != "50.00%" {
		t.Errorf("pool usage = %q", rows[0][5])
	}
	if !strings.HasSuffix(rows[4][0], "ada1 (old)") || !strings.HasSuffix(rows[5][0], "ada2 (new)") {
		t.Errorf("replacing drives missing: %q %q", rows[4][0], rows[5][0])
	}
}

func TestSummaryTable(t *testing.T) {
	s := loader.Summary{
		BasicInfo: sylve.BasicInfo{Hostname: "node-a", OS: "FreeBSD", Uptime: 93784, BootMode: "UEFI"},
		RAMInfo:   sylve.RAMInfo{Total: 2048, Free: 1024, UsedPercent: 50},
	}
	var buf bytes.Buffer
	Render(&buf, SummaryTable(s))
	out := buf.String()
	for _, want := range []string{"node-a (FreeBSD)", "1d 2h 3m", "1.00 KiB / 2.00 KiB", "50.00%"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPageTables(t *testing.T) {
	wear := 3.5
	var buf bytes.Buffer
	RenderAll(&buf,
		DisksTable([]sylve.Disk{{Device: "ada0", Size: 1024, GPT: true, WearOut: &wear,
			Partitions: []sylve.Partition{{Name: "ada0p1", Size: 512}}}}),
		DatasetsTable([]sylve.Dataset{{Name: "tank/data@daily", Type: "snapshot"}}),
		SharesTable([]sylve.SambaShare{{Name: "media", WriteableGroups: []sylve.Group{{Name: "staff"}}}}),
		NotesTable([]sylve.Note{{ID: 1, Title: "t", Content: "line1\nline2"}}),
	)
	out := buf.String()
	for _, want := range []string{"└─ ada0p1", "3.50%", "tank/data@daily", "staff", "line1 line2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
