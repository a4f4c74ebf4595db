package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"sylvectl/internal/config"
	"sylvectl/internal/credentials"
	"sylvectl/internal/utils"
)

// Version is set at build time
var Version = "dev"

// Config holds per-invocation overrides. Zero values mean the real
// environment: the default config path, the OS keyring and os.Stdin.
type Config struct {
	ConfigPath string
	Keyring    credentials.Keyring
	Getenv     func(string) string
	Stdin      io.Reader
	HTTPClient *http.Client
	// NoSignals keeps the process signal handlers untouched.
	NoSignals bool
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	a := newApp(stdout, stderr, cfg)
	defer a.close()

	rootCmd := newRoot(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if a.jsonOutput || containsJSONFlag(args) {
			outputErrorJSON(err, stdout)
		} else {
			_, _ = fmt.Fprintln(stderr, "Error:", err)
		}
		if a.interrupted() {
			return 130
		}
		return 1
	}
	return 0
}

// containsJSONFlag checks if args contain --json flag
func containsJSONFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--json" {
			return true
		}
	}
	return false
}

// NewSylvectl creates the root command with injectable IO. Resources it
// opens are released when the process exits.
func NewSylvectl(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	return newRoot(newApp(stdout, stderr, cfg))
}

func newRoot(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sylvectl",
		Short:   "A command-line client for Sylve hosts",
		Long:    "sylvectl inspects and manages a Sylve host: ZFS pools, disks, guests, networking and cluster state.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to the config file")
	cmd.PersistentFlags().String("server", "", "Sylve server URL (overrides server.url and "+config.EnvServer+")")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output")
	cmd.PersistentFlags().Bool("no-cache", false, "Always fetch from the server")

	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newStatusCmd(a))
	cmd.AddCommand(newSummaryCmd(a))
	cmd.AddCommand(newPoolsCmd(a))
	cmd.AddCommand(newDatasetsCmd(a))
	cmd.AddCommand(newDisksCmd(a))
	cmd.AddCommand(newVMsCmd(a))
	cmd.AddCommand(newJailsCmd(a))
	cmd.AddCommand(newSwitchesCmd(a))
	cmd.AddCommand(newClusterCmd(a))
	cmd.AddCommand(newSharesCmd(a))
	cmd.AddCommand(newNotesCmd(a))
	cmd.AddCommand(newSnapshotCmd(a))
	cmd.AddCommand(newCacheCmd(a))
	cmd.AddCommand(newAPICmd(a))
	cmd.AddCommand(newDashboardCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

type errorResponse struct {
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
}

func outputErrorJSON(err error, stdout io.Writer) {
	msg, suggestion := utils.SplitSuggestion(err)
	jsonBytes, _ := json.Marshal(errorResponse{Error: msg, Suggestion: suggestion})
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func stdinOf(cfg *Config) io.Reader {
	if cfg != nil && cfg.Stdin != nil {
		return cfg.Stdin
	}
	return os.Stdin
}
