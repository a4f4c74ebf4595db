package cmd

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"sylvectl/internal/tui"
	"sylvectl/internal/utils"
)

// newDashboardCmd creates the 'dashboard' command
func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"tui"},
		Short:   "Open the interactive dashboard",
		Long: "Open a terminal dashboard with the host summary and ZFS pools. " +
			"Press tab to switch pages, r to refresh and q to quit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.jsonOutput {
				return errors.New("the dashboard does not support --json")
			}

			// The terminal belongs to the dashboard, so log to a file.
			bl, err := utils.NewBackgroundLoggerWithEnabled(a.conf.IsBackgroundLoggingEnabled())
			if err != nil {
				a.log.Warn("background logging disabled: %v", err)
			}
			defer bl.Close()
			a.log.SetOutput(bl.Writer())
			defer a.log.SetOutput(a.stderr)

			ld, err := a.pageLoader(cmd.Context())
			if err != nil {
				return err
			}

			p := tea.NewProgram(tui.NewWithContext(cmd.Context(), ld),
				tea.WithContext(cmd.Context()),
				tea.WithInput(stdinOf(a.cfg)),
				tea.WithOutput(a.stdout),
				tea.WithAltScreen(),
			)
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("dashboard: %w", err)
			}
			if bl.IsEnabled() {
				a.log.Debug("dashboard log written to %s", bl.GetLogPath())
			}
			return nil
		},
	}
}
