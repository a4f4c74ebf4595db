// Package credentials stores per-server secrets in the OS keyring, with
// environment variables as a fallback for hosts without one.
package credentials

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Service is the keyring service name every secret is stored under.
const Service = "sylvectl"

// EnvTokenVar overrides the stored session token when set.
const EnvTokenVar = "SYLVECTL_TOKEN"

// Source indicates where a secret was retrieved from
type Source string

const (
	SourceKeyring     Source = "keyring"
	SourceEnvironment Source = "environment"
	SourceNone        Source = "none"
)

// Manager handles secret storage for one keyring service.
type Manager struct {
	keyring Keyring
	service string
	getenv  func(string) string
}

// ManagerOption is a functional option for Manager
type ManagerOption func(*Manager)

// WithKeyring sets a custom keyring implementation
func WithKeyring(k Keyring) ManagerOption {
	return func(m *Manager) {
		m.keyring = k
	}
}

// WithService overrides the keyring service name.
func WithService(service string) ManagerOption {
	return func(m *Manager) {
		m.service = service
	}
}

// WithEnv replaces os.Getenv, for tests.
func WithEnv(getenv func(string) string) ManagerOption {
	return func(m *Manager) {
		m.getenv = getenv
	}
}

// NewManager creates a new credential manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		keyring: &systemKeyring{},
		service: Service,
		getenv:  os.Getenv,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// normalizeAccount trims accounts so "https://h/" and "https://h" match.
func normalizeAccount(account string) string {
	return strings.TrimRight(strings.TrimSpace(account), "/")
}

// Set stores secret for account in the keyring
func (m *Manager) Set(ctx context.Context, account, secret string) error {
	return m.keyring.Set(m.service, normalizeAccount(account), secret)
}

// Get retrieves the secret for account from the keyring. ok is false when
// nothing is stored; an unreachable keyring is reported as not found so
// callers can fall back to the environment.
func (m *Manager) Get(ctx context.Context, account string) (secret string, ok bool, err error) {
	secret, err = m.keyring.Get(m.service, normalizeAccount(account))
	switch {
	case err == nil:
		return secret, secret != "", nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrKeyringNotAvailable):
		return "", false, nil
	default:
		return "", false, err
	}
}

// Delete removes the secret for account. Deleting a missing secret succeeds.
func (m *Manager) Delete(ctx context.Context, account string) error {
	err := m.keyring.Delete(m.service, normalizeAccount(account))
	if err != nil && errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// EnvToken returns the token from SYLVECTL_TOKEN, if set.
func (m *Manager) EnvToken() (string, Source) {
	if tok := strings.TrimSpace(m.getenv(EnvTokenVar)); tok != "" {
		return tok, SourceEnvironment
	}
	return "", SourceNone
}

// PromptPassword prompts for a password. When in is a terminal the input is
// hidden; otherwise one line is read, which lets scripts pipe it in.
func PromptPassword(in io.Reader, out io.Writer, username string) (string, error) {
	_, _ = fmt.Fprintf(out, "Password for %s: ", username)

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimRight(scanner.Text(), "\r\n"), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no input received")
}
