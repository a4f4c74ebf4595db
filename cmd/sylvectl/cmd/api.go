package cmd

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"sylvectl/internal/utils"
)

// newAPICmd creates the 'api' command for raw envelope calls
func newAPICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "api <METHOD> <endpoint> [json-body]",
		Short: "Send a raw request and print the response envelope",
		Long: "Send a request to the Sylve API with the stored session and print the response " +
			"envelope as JSON. The endpoint is relative to /api, e.g. /info/basic.",
		Example: "  sylvectl api GET /zfs/pool/list\n" +
			"  sylvectl api POST /info/notes '{\"title\":\"scrub\",\"content\":\"sunday\"}'",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])
			endpoint := args[1]

			var body any
			if len(args) == 3 {
				if !json.Valid([]byte(args[2])) {
					return utils.WrapWithSuggestion(errors.New("request body is not valid JSON"),
						"Quote the body, e.g. '{\"key\":\"value\"}'")
				}
				body = json.RawMessage(args[2])
			}

			if err := a.connect(cmd.Context()); err != nil {
				return err
			}
			env, status, err := a.client.API().Raw(cmd.Context(), method, endpoint, body)
			if err != nil {
				var ews *utils.ErrorWithSuggestion
				if errors.As(err, &ews) {
					return err
				}
				if status == 0 {
					return utils.ErrServerUnreachable(a.conf.ServerURL(), err.Error())
				}
				return err
			}
			a.log.Debug("%s %s -> HTTP %d", method, endpoint, status)

			if err := writeJSON(a.stdout, env); err != nil {
				return err
			}
			if !env.Success() {
				return utils.ErrAPIFailure(method+" "+endpoint, env.Error, env.Message)
			}
			return nil
		},
	}
}
