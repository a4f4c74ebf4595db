package cache

import (
	"fmt"
	"sort"
	"sync"
)

// Store is the persistent key-value medium behind a Cache.
type Store interface {
	// Get returns the value under key. ok is false when the key is absent.
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
	Keys() ([]string, error)
}

// Store kinds accepted by Open.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Open returns the store of the given kind rooted at path. path is a
// directory for the file store and a database file for SQLite.
func Open(kind, path string) (Store, error) {
	switch kind {
	case "", StoreFile:
		return NewFileStore(path)
	case StoreSQLite:
		return NewSQLiteStore(path)
	case StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache store %q", kind)
	}
}

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
