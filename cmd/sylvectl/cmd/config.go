package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sylvectl/internal/config"
	"sylvectl/internal/views"
)

// newConfigCmd creates the 'config' command and its subcommands
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigShowCmd(a))
	cmd.AddCommand(newConfigInitCmd(a))
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [key]",
		Short: "Show effective settings, after defaults and overrides",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				value, err := a.conf.Get(args[0])
				if err != nil {
					return err
				}
				if a.jsonOutput {
					return writeJSON(a.stdout, map[string]string{args[0]: value})
				}
				_, _ = fmt.Fprintln(a.stdout, value)
				return nil
			}

			values := make(map[string]string, len(config.Keys))
			t := views.Table{
				Title:   a.configPath,
				Columns: []views.Column{{Name: "KEY"}, {Name: "VALUE"}},
			}
			for _, key := range config.Keys {
				value, err := a.conf.Get(key)
				if err != nil {
					return err
				}
				values[key] = value
				t.Rows = append(t.Rows, []string{key, value})
			}
			if a.jsonOutput {
				return writeJSON(a.stdout, values)
			}
			views.Render(a.stdout, t)
			return nil
		},
	}
}

func newConfigInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the sample configuration",
		Long:  "Write the commented sample configuration to the config path. An edited file is only replaced with --force.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			existing, err := os.ReadFile(a.configPath)
			switch {
			case err == nil && bytes.Equal(existing, []byte(config.GetSampleConfig())):
				_, _ = fmt.Fprintf(a.stdout, "Config already initialized at %s\n", a.configPath)
				return nil
			case err == nil && !force:
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", a.configPath)
			case err != nil && !os.IsNotExist(err):
				return fmt.Errorf("failed to read config file: %w", err)
			}
			if err := config.WriteSample(a.configPath); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.stdout, "Wrote sample config to %s\n", a.configPath)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing config file")
	return cmd
}
