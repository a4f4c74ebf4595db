package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sylvectl/internal/views"
)

// newCacheCmd creates the 'cache' command and its subcommands
func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the local page cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newCacheListCmd(a))
	cmd.AddCommand(newCacheClearCmd(a))
	return cmd
}

func newCacheListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached entries with their age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			entries, err := c.Entries()
			if err != nil {
				return fmt.Errorf("failed to list cache entries: %w", err)
			}
			if a.jsonOutput {
				return writeJSON(a.stdout, entries)
			}

			t := views.Table{
				Title: a.conf.GetCacheStore() + " cache at " + a.conf.GetCachePath(),
				Columns: []views.Column{
					{Name: "KEY"}, {Name: "AGE", Align: "right"}, {Name: "SIZE", Align: "right"}, {Name: "STATUS"},
				},
			}
			for _, e := range entries {
				age, status := e.Age.Truncate(time.Second).String(), "fresh"
				switch {
				case e.Corrupt:
					age, status = "-", "corrupt"
				case e.Age >= a.conf.GetCacheTTL():
					status = "stale"
				}
				t.Rows = append(t.Rows, []string{e.Key, age, views.HumanBytes(uint64(e.Size)), status})
			}
			views.Render(a.stdout, t)
			return nil
		},
	}
}

func newCacheClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear [key...]",
		Short: "Remove cached entries, all of them when no key is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				if err := c.Clear(); err != nil {
					return fmt.Errorf("failed to clear cache: %w", err)
				}
				_, _ = fmt.Fprintln(a.stdout, "Cache cleared")
				return nil
			}
			if err := c.Invalidate(args...); err != nil {
				return fmt.Errorf("failed to clear cache entries: %w", err)
			}
			_, _ = fmt.Fprintf(a.stdout, "Removed %d cache entr(ies)\n", len(args))
			return nil
		},
	}
}
