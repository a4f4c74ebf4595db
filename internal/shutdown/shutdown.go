// Package shutdown ties command lifetimes to process signals. Commands run
// under the manager's context and release resources through registered
// cleanups once it is cancelled.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"sylvectl/internal/utils"
)

// CleanupFunc releases one resource. The context bounds how long it may take.
type CleanupFunc func(ctx context.Context) error

type cleanupEntry struct {
	name string
	fn   CleanupFunc
}

// Manager cancels a shared context on signal and runs cleanups afterwards.
type Manager struct {
	mu       sync.Mutex
	cleanups []cleanupEntry
	signal   os.Signal
	shutdown bool
	log      *utils.Logger

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	run    sync.Once
	stop   chan struct{}
}

// NewManager creates a manager whose context derives from parent.
func NewManager(parent context.Context) *Manager {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Manager{
		log:    utils.GetLogger(),
		ctx:    ctx,
		cancel: cancel,
		stop:   make(chan struct{}),
	}
}

// SetLogger replaces the logger cleanup failures are reported to.
func (m *Manager) SetLogger(l *utils.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = l
}

// Listen shuts down on the first of sigs, SIGINT and SIGTERM when none are
// given. It stops listening once the manager has shut down.
func (m *Manager) Listen(sigs ...os.Signal) {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			m.mu.Lock()
			m.signal = sig
			m.mu.Unlock()
			m.Shutdown()
		case <-m.stop:
		}
	}()
}

// RegisterCleanup adds fn to run on shutdown. Cleanups run last registered
// first.
func (m *Manager) RegisterCleanup(name string, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, cleanupEntry{name: name, fn: fn})
}

// Shutdown cancels the manager context. Safe to call more than once.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		m.mu.Lock()
		m.shutdown = true
		m.mu.Unlock()
		m.cancel()
		close(m.stop)
	})
}

// Wait shuts down and runs the cleanups once, returning their joined errors
// or ctx's error when they outlast it.
func (m *Manager) Wait(ctx context.Context) error {
	m.Shutdown()

	var errs error
	done := make(chan struct{})
	go func() {
		m.run.Do(func() { errs = m.runCleanups(ctx) })
		close(done)
	}()

	select {
	case <-done:
		return errs
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) runCleanups(ctx context.Context) error {
	m.mu.Lock()
	cleanups := make([]cleanupEntry, len(m.cleanups))
	copy(cleanups, m.cleanups)
	log := m.log
	m.mu.Unlock()

	var errs []error
	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := cleanups[i].fn(ctx); err != nil {
			log.Warn("cleanup %s failed: %v", cleanups[i].name, err)
			errs = append(errs, fmt.Errorf("%s: %w", cleanups[i].name, err))
		}
	}
	return errors.Join(errs...)
}

// IsShutdown reports whether shutdown has started.
func (m *Manager) IsShutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown
}

// Signal returns the signal that triggered shutdown, or nil.
func (m *Manager) Signal() os.Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signal
}

// Interrupted reports whether a signal ended the run.
func (m *Manager) Interrupted() bool {
	return m.Signal() != nil
}

// Context is cancelled when shutdown starts.
func (m *Manager) Context() context.Context {
	return m.ctx
}
