package views

import (
	"fmt"
	"io"

	"sylvectl/internal/loader"
)

const barWidth = 20

// SummaryTable shows the host overview as key/value rows.
func SummaryTable(s loader.Summary) Table {
	b := s.BasicInfo
	usage := func(label string, percent float64, detail string) []string {
		return []string{label, Bar(percent, barWidth) + " " + Percent(percent), detail}
	}
	return Table{
		Title:   fmt.Sprintf("%s (%s)", b.Hostname, b.OS),
		Columns: []Column{{Name: "RESOURCE"}, {Name: "USAGE"}, {Name: "DETAIL"}},
		Rows: [][]string{
			{"uptime", Uptime(b.Uptime), "boot " + b.BootMode},
			{"load", b.LoadAverage, "sylve " + b.SylveVersion},
			usage("cpu", s.CPUInfo.Usage, fmt.Sprintf("%s, %d threads", s.CPUInfo.Name, s.CPUInfo.LogicalCores)),
			usage("ram", s.RAMInfo.UsedPercent,
				fmt.Sprintf("%s / %s", HumanBytes(s.RAMInfo.Used()), HumanBytes(s.RAMInfo.Total))),
			usage("swap", s.SwapInfo.UsedPercent,
				fmt.Sprintf("%s / %s", HumanBytes(s.SwapInfo.Used()), HumanBytes(s.SwapInfo.Total))),
			{"io delay", Percent(s.IODelay.Delay), fmt.Sprintf("%d samples", len(s.IODelayHistorical))},
		},
	}
}

// RenderAll writes tables separated by blank lines.
func RenderAll(w io.Writer, tables ...Table) {
	for i, t := range tables {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		Render(w, t)
	}
}
