package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sylvectl/internal/credentials"
	"sylvectl/internal/session"
	"sylvectl/internal/utils"
	"sylvectl/sylve"
)

// newLoginCmd creates the 'login' command
func newLoginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and store the session in the system keyring",
		Long: "Log in to the Sylve server. The password is read with hidden input, or from stdin " +
			"when stdin is not a terminal. The session token is stored in the system keyring.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := a.serverURL()
			if err != nil {
				return err
			}

			username := "admin"
			if len(args) == 1 {
				username = args[0]
			}
			authType, _ := cmd.Flags().GetString("auth-type")
			remember, _ := cmd.Flags().GetBool("remember")

			password, err := credentials.PromptPassword(stdinOf(a.cfg), a.stderr, username)
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			c, err := a.newAPIClient(server, nil)
			if err != nil {
				return err
			}
			resp, err := sylve.New(c).Login(cmd.Context(), sylve.LoginRequest{
				Username: username,
				Password: password,
				AuthType: authType,
				Remember: remember,
			})
			if errors.Is(err, sylve.ErrOnlyAdmin) {
				return utils.WrapWithSuggestion(err, "Log in with an account in the admin group")
			}
			if err != nil {
				return a.userError("login", err)
			}

			s := session.New(server)
			s.SetToken(resp.Token, time.Now())
			s.SetClusterToken(resp.ClusterToken)
			s.SetHostname(resp.Hostname)
			s.SetNodeID(resp.NodeID)
			s.SetUser(username, authType)
			if err := a.sessionStore().Save(cmd.Context(), s); err != nil {
				return utils.WrapWithSuggestion(err,
					"Set "+credentials.EnvTokenVar+" instead when no system keyring is available")
			}

			if a.jsonOutput {
				return writeJSON(a.stdout, map[string]any{
					"server":   server,
					"username": username,
					"hostname": resp.Hostname,
					"expires":  s.Expiry(),
				})
			}
			_, _ = fmt.Fprintf(a.stdout, "Logged in to %s as %s (node %s)\n", server, username, resp.Hostname)
			return nil
		},
	}
	cmd.Flags().String("auth-type", sylve.AuthSylve, "Authentication backend (sylve or pam)")
	cmd.Flags().Bool("remember", false, "Ask the server for a long-lived session")
	return cmd
}

// newLogoutCmd creates the 'logout' command
func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session and cached data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := a.serverURL()
			if err != nil {
				return err
			}
			if err := a.sessionStore().Clear(cmd.Context(), server); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			c, err := a.openCache()
			if err != nil {
				return err
			}
			if err := c.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			_, _ = fmt.Fprintf(a.stdout, "Logged out of %s\n", server)
			return nil
		},
	}
}

type statusJSON struct {
	Server   string    `json:"server"`
	LoggedIn bool      `json:"loggedIn"`
	Username string    `json:"username,omitempty"`
	Hostname string    `json:"hostname,omitempty"`
	Source   string    `json:"source"`
	Expires  time.Time `json:"expires,omitempty"`
}

// newStatusCmd creates the 'status' command
func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := a.serverURL()
			if err != nil {
				return err
			}
			s, err := a.sessionStore().Load(cmd.Context(), server)
			if err != nil && !errors.Is(err, session.ErrNoSession) {
				return err
			}

			st := statusJSON{
				Server:   server,
				LoggedIn: s.LoggedIn(),
				Username: s.Username(),
				Hostname: s.CurrentHostname(),
				Source:   string(s.Source()),
				Expires:  s.Expiry(),
			}
			if a.jsonOutput {
				return writeJSON(a.stdout, st)
			}

			if !st.LoggedIn {
				_, _ = fmt.Fprintf(a.stdout, "Not logged in to %s\n", server)
				return nil
			}
			_, _ = fmt.Fprintf(a.stdout, "Server:   %s\n", st.Server)
			_, _ = fmt.Fprintf(a.stdout, "User:     %s\n", st.Username)
			_, _ = fmt.Fprintf(a.stdout, "Node:     %s\n", st.Hostname)
			_, _ = fmt.Fprintf(a.stdout, "Source:   %s\n", st.Source)
			if !st.Expires.IsZero() {
				_, _ = fmt.Fprintf(a.stdout, "Expires:  %s\n", st.Expires.Format(time.RFC3339))
			}
			return nil
		},
	}
}
