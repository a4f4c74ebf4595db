package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// SplitSuggestion returns the bare message and suggestion of err, if any.
func SplitSuggestion(err error) (string, string) {
	var ews *ErrorWithSuggestion
	if errors.As(err, &ews) {
		return ews.Err.Error(), ews.Suggestion
	}
	return err.Error(), ""
}

// ErrNotLoggedIn returns an error for commands that need a session.
func ErrNotLoggedIn(server string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("not logged in to %s", server),
		Suggestion: "Run 'sylvectl login <username>' first",
	}
}

// ErrSessionExpired returns an error for a token the server rejected.
func ErrSessionExpired() error {
	return &ErrorWithSuggestion{
		Err:        errors.New("session expired, please login again"),
		Suggestion: "Run 'sylvectl login <username>' to start a new session",
	}
}

// ErrServerNotConfigured returns an error when no server URL is known.
func ErrServerNotConfigured() error {
	return &ErrorWithSuggestion{
		Err:        errors.New("no Sylve server configured"),
		Suggestion: "Set server.url in your config file, export SYLVECTL_SERVER or pass --server",
	}
}

// ErrServerUnreachable returns an error when the server is unreachable with smart suggestions.
func ErrServerUnreachable(server, reason string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("server %s is unreachable: %s", server, reason),
		Suggestion: getSmartSuggestion(reason),
	}
}

// getSmartSuggestion returns a context-aware suggestion based on the error reason.
func getSmartSuggestion(reason string) string {
	lowerReason := strings.ToLower(reason)

	if strings.Contains(lowerReason, "no such host") || strings.Contains(lowerReason, "dns") {
		return "Check your DNS settings and the server.url in your config"
	}

	if strings.Contains(lowerReason, "connection refused") {
		return "Check if the Sylve service is running and listening on that address"
	}

	if strings.Contains(lowerReason, "timeout") || strings.Contains(lowerReason, "i/o timeout") {
		return "The server may be slow or unreachable. Try again later or raise server.timeout"
	}

	if strings.Contains(lowerReason, "certificate") || strings.Contains(lowerReason, "x509") {
		return "The server certificate is not trusted by this machine"
	}

	return "Check your network connection and try again"
}

// ErrAPIFailure returns an error for an error envelope returned by the server.
func ErrAPIFailure(operation, code, message string) error {
	detail := code
	if message != "" {
		if detail != "" {
			detail += ": "
		}
		detail += message
	}
	if detail == "" {
		detail = "unknown error"
	}
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("%s failed: %s", operation, detail),
		Suggestion: "Re-run with --verbose for request details",
	}
}

// ErrInvalidCredentials returns an error for a rejected login.
func ErrInvalidCredentials(username string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("login failed for user %s", username),
		Suggestion: "Verify the username, password and --auth-type (sylve or pam)",
	}
}

// ErrInvalidMethod returns an error for an unsupported HTTP method.
func ErrInvalidMethod(method string, valid []string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid method: %s", method),
		Suggestion: fmt.Sprintf("Valid options: %s", strings.Join(valid, ", ")),
	}
}
