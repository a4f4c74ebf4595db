package credentials

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

var (
	// ErrNotFound is returned when no secret exists for a service/account.
	ErrNotFound = errors.New("secret not found in keyring")
	// ErrKeyringNotAvailable is returned when the OS keyring cannot be
	// reached, e.g. no Secret Service on a headless host.
	ErrKeyringNotAvailable = errors.New("system keyring not available")
)

// Keyring is the interface for keyring operations
type Keyring interface {
	Set(service, account, secret string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
}

// MockKeyring is a test implementation of the Keyring interface
type MockKeyring struct {
	mu    sync.RWMutex
	store map[string]map[string]string // service -> account -> secret
	// SetErr, when set, is returned by every Set call.
	SetErr error
}

// NewMockKeyring creates a new mock keyring for testing
func NewMockKeyring() *MockKeyring {
	return &MockKeyring{
		store: make(map[string]map[string]string),
	}
}

// Set stores a secret in the mock keyring
func (m *MockKeyring) Set(service, account, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetErr != nil {
		return m.SetErr
	}
	if m.store[service] == nil {
		m.store[service] = make(map[string]string)
	}
	m.store[service][account] = secret
	return nil
}

// Get retrieves a secret from the mock keyring
func (m *MockKeyring) Get(service, account string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if accounts, ok := m.store[service]; ok {
		if secret, ok := accounts[account]; ok {
			return secret, nil
		}
	}
	return "", fmt.Errorf("%w: %s/%s", ErrNotFound, service, account)
}

// Delete removes a secret from the mock keyring
func (m *MockKeyring) Delete(service, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if accounts, ok := m.store[service]; ok {
		if _, ok := accounts[account]; ok {
			delete(accounts, account)
			return nil
		}
	}
	return fmt.Errorf("%w: %s/%s", ErrNotFound, service, account)
}

// systemKeyring stores secrets in the OS keyring via go-keyring.
type systemKeyring struct{}

func mapKeyringError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrKeyringNotAvailable, err)
}

// Set stores a secret in the system keyring
func (s *systemKeyring) Set(service, account, secret string) error {
	return mapKeyringError(keyring.Set(service, account, secret))
}

// Get retrieves a secret from the system keyring
func (s *systemKeyring) Get(service, account string) (string, error) {
	secret, err := keyring.Get(service, account)
	return secret, mapKeyringError(err)
}

// Delete removes a secret from the system keyring
func (s *systemKeyring) Delete(service, account string) error {
	return mapKeyringError(keyring.Delete(service, account))
}
