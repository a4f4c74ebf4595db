// Package tui provides the interactive dashboard for a Sylve host.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sylvectl/internal/loader"
	"sylvectl/internal/views"
)

// Page identifies the dashboard page being shown.
type Page int

const (
	PageSummary Page = iota
	PageStorage
)

// String returns the loader page name.
func (p Page) String() string {
	if p == PageStorage {
		return "storage"
	}
	return "summary"
}

func (p Page) title() string {
	if p == PageStorage {
		return "Storage"
	}
	return "Summary"
}

// Message types
type summaryLoadedMsg struct {
	summary loader.Summary
	err     error
}

type storageLoadedMsg struct {
	storage loader.Storage
	err     error
}

// Model is the dashboard state.
type Model struct {
	ctx    context.Context
	loader *loader.Loader

	page    Page
	spinner spinner.Model
	loading map[Page]bool
	errs    map[Page]error

	summary loader.Summary
	storage loader.Storage

	width  int
	height int

	// Styles
	headerStyle    lipgloss.Style
	tabStyle       lipgloss.Style
	activeTabStyle lipgloss.Style
	paneStyle      lipgloss.Style
	errorStyle     lipgloss.Style
	helpStyle      lipgloss.Style
}

// New creates a dashboard over ld.
func New(ld *loader.Loader) *Model {
	return NewWithContext(context.Background(), ld)
}

// NewWithContext creates a dashboard whose loads are bound to ctx.
func NewWithContext(ctx context.Context, ld *loader.Loader) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))

	return &Model{
		ctx:     ctx,
		loader:  ld,
		page:    PageSummary,
		spinner: s,
		loading: map[Page]bool{PageSummary: true, PageStorage: true},
		errs:    map[Page]error{},
		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		tabStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1),
		activeTabStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("62")).
			Padding(0, 1),
		paneStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
}

// Page returns the page being shown.
func (m *Model) Page() Page {
	return m.page
}

// Init starts both page loads.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadSummary(), m.loadStorage())
}

func (m *Model) loadSummary() tea.Cmd {
	return func() tea.Msg {
		s, err := m.loader.Summary(m.ctx)
		return summaryLoadedMsg{summary: s, err: err}
	}
}

func (m *Model) loadStorage() tea.Cmd {
	return func() tea.Msg {
		s, err := m.loader.Storage(m.ctx)
		return storageLoadedMsg{storage: s, err: err}
	}
}

// reload drops the current page from the cache and fetches it again.
func (m *Model) reload() tea.Cmd {
	if m.loading[m.page] {
		return nil
	}
	if err := m.loader.Invalidate(m.page.String()); err != nil {
		m.errs[m.page] = err
		return nil
	}
	m.loading[m.page] = true
	load := m.loadSummary()
	if m.page == PageStorage {
		load = m.loadStorage()
	}
	return tea.Batch(m.spinner.Tick, load)
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case summaryLoadedMsg:
		m.summary = msg.summary
		m.errs[PageSummary] = msg.err
		m.loading[PageSummary] = false
		return m, nil

	case storageLoadedMsg:
		m.storage = msg.storage
		m.errs[PageStorage] = msg.err
		m.loading[PageStorage] = false
		return m, nil

	case spinner.TickMsg:
		if !m.loading[PageSummary] && !m.loading[PageStorage] {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			if m.page == PageSummary {
				m.page = PageStorage
			} else {
				m.page = PageSummary
			}
			return m, nil
		case "r":
			return m, m.reload()
		}
	}
	return m, nil
}

// View renders the dashboard
func (m *Model) View() string {
	var b strings.Builder

	host := m.summary.BasicInfo.Hostname
	if m.loading[PageSummary] && host == "" {
		host = "connecting"
	}
	b.WriteString(m.headerStyle.Render("sylvectl: " + host))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	b.WriteString(m.paneStyle.Render(m.renderPage()))
	b.WriteString("\n")
	b.WriteString(m.helpStyle.Render("tab: switch page • r: refresh • q: quit"))
	return b.String()
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, 2)
	for _, p := range []Page{PageSummary, PageStorage} {
		style := m.tabStyle
		if p == m.page {
			style = m.activeTabStyle
		}
		tabs = append(tabs, style.Render(p.title()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderPage() string {
	if m.loading[m.page] {
		return fmt.Sprintf("%s Loading %s...", m.spinner.View(), strings.ToLower(m.page.title()))
	}

	var b strings.Builder
	if err := m.errs[m.page]; err != nil {
		b.WriteString(m.errorStyle.Render("Error: " + err.Error()))
		b.WriteString("\n\n")
	}
	switch m.page {
	case PageStorage:
		views.RenderAll(&b, views.PoolsTable(m.storage.Pools), views.DatasetsTable(m.storage.Datasets))
	default:
		views.Render(&b, views.SummaryTable(m.summary))
	}
	return strings.TrimRight(b.String(), "\n")
}
