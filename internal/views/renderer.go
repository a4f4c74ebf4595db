package views

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	emptyStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))
)

// columnSep separates table columns.
const columnSep = "  "

// Render writes t as aligned text.
func Render(w io.Writer, t Table) {
	if t.Title != "" {
		_, _ = fmt.Fprintln(w, titleStyle.Render(t.Title))
	}
	if len(t.Rows) == 0 {
		_, _ = fmt.Fprintln(w, emptyStyle.Render("(none)"))
		return
	}

	widths := columnWidths(t)

	header := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = pad(col.Name, widths[i], col.Align, false)
	}
	_, _ = fmt.Fprintln(w, headerStyle.Render(strings.TrimRight(strings.Join(header, columnSep), " ")))

	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			var value string
			if i < len(row) {
				value = row[i]
			}
			cell := pad(value, widths[i], col.Align, col.Truncate)
			if col.Style != nil {
				cell = col.Style(value).Render(cell)
			}
			cells[i] = cell
		}
		_, _ = fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, columnSep), " "))
	}
}

func columnWidths(t Table) []int {
	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		if col.Width > 0 {
			widths[i] = col.Width
			continue
		}
		widths[i] = lipgloss.Width(col.Name)
		for _, row := range t.Rows {
			if i < len(row) && lipgloss.Width(row[i]) > widths[i] {
				widths[i] = lipgloss.Width(row[i])
			}
		}
	}
	return widths
}

// pad fits value into width according to align.
func pad(value string, width int, align string, truncate bool) string {
	n := lipgloss.Width(value)
	if n > width {
		if truncate && width > 3 {
			runes := []rune(value)
			if len(runes) > width-3 {
				return string(runes[:width-3]) + "..."
			}
		}
		return value
	}

	gap := width - n
	switch align {
	case "right":
		return strings.Repeat(" ", gap) + value
	case "center":
		left := gap / 2
		return strings.Repeat(" ", left) + value + strings.Repeat(" ", gap-left)
	default: // left
		return value + strings.Repeat(" ", gap)
	}
}

// TreeRows flattens roots into table rows, drawing connectors in the first
// cell of each child row.
func TreeRows(roots []*TreeNode) [][]string {
	var rows [][]string
	for _, node := range roots {
		rows = appendNode(rows, node, "", true, true)
	}
	return rows
}

func appendNode(rows [][]string, node *TreeNode, prefix string, isLast, isRoot bool) [][]string {
	var treeChar string
	if isRoot {
		treeChar = ""
	} else if isLast {
		treeChar = "└─ "
	} else {
		treeChar = "├─ "
	}

	row := append([]string(nil), node.Cells...)
	if len(row) > 0 {
		row[0] = prefix + treeChar + row[0]
	}
	rows = append(rows, row)

	var childPrefix string
	if isRoot {
		childPrefix = ""
	} else if isLast {
		childPrefix = prefix + "   "
	} else {
		childPrefix = prefix + "│  "
	}

	for i, child := range node.Children {
		rows = appendNode(rows, child, childPrefix, i == len(node.Children)-1, false)
	}
	return rows
}
