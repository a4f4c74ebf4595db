package views

import "github.com/charmbracelet/lipgloss"

// Column describes one table column.
type Column struct {
	Name     string
	Width    int    // 0 sizes the column to its widest cell
	Align    string // left, center, right
	Truncate bool
	// Style, when set, colors a cell by its value.
	Style func(value string) lipgloss.Style
}

// Table is a titled grid of pre-formatted cells.
type Table struct {
	Title   string
	Columns []Column
	Rows    [][]string
}

// TreeNode is a table row with child rows rendered beneath it.
type TreeNode struct {
	Cells    []string
	Children []*TreeNode
}
