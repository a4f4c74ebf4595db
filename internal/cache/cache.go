// Package cache memoizes API results in a persistent store with a per-call
// freshness window. Entries are refreshed lazily: a stale entry is only
// replaced the next time its key is fetched.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sylvectl/internal/utils"
)

// Common freshness windows used by the page loaders.
const (
	SevenDays = 7 * 24 * time.Hour
	// NetworkWindow matches the 1000 * 60000 ms window of the network pages.
	NetworkWindow = 1000 * 60000 * time.Millisecond
)

// Entry is the persisted record.
type Entry struct {
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Producer computes a fresh value on a miss.
type Producer[T any] func(ctx context.Context) (T, error)

// Cache is a TTL cache over a Store. It is safe for concurrent use to the
// extent its Store is; concurrent misses on one key each run the producer and
// the last write wins.
type Cache struct {
	store    Store
	now      func() time.Time
	log      *utils.Logger
	disabled bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithLogger sets the logger used for corruption and write warnings.
func WithLogger(l *utils.Logger) Option {
	return func(c *Cache) {
		c.log = l
	}
}

// Disabled makes Fetch call the producer every time without touching the
// store. Used by --no-cache.
func Disabled() Option {
	return func(c *Cache) {
		c.disabled = true
	}
}

// New creates a cache over store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store: store,
		now:   time.Now,
		log:   utils.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the underlying store.
func (c *Cache) Store() Store {
	return c.store
}

// lookup returns the entry under key if it is present and parseable.
func (c *Cache) lookup(key string) (Entry, bool) {
	raw, ok, err := c.store.Get(key)
	if err != nil {
		c.log.Warn("failed to read cached data for key %q: %v", key, err)
		return Entry{}, false
	}
	if !ok {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.log.Warn("failed to parse cached data for key %q: %v", key, err)
		return Entry{}, false
	}
	return e, true
}

// Fetch returns the value under key when it is younger than window, and
// otherwise runs producer, stores its result and returns it. A window of zero
// or less always misses. Producer errors are returned unchanged and leave the
// stored entry untouched. Failing to store a fresh value is logged and the
// value is still returned.
func Fetch[T any](ctx context.Context, c *Cache, key string, producer Producer[T], window time.Duration) (T, error) {
	if c.disabled {
		return producer(ctx)
	}

	now := c.now()

	if e, ok := c.lookup(key); ok && window > 0 {
		age := now.UnixMilli() - e.Timestamp
		if age < window.Milliseconds() {
			var v T
			err := json.Unmarshal(e.Data, &v)
			if err == nil {
				c.log.Debug("cache hit for %q (age %s)", key, time.Duration(age)*time.Millisecond)
				return v, nil
			}
			c.log.Warn("cached data for key %q does not match its type: %v", key, err)
		}
	}

	v, err := producer(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := c.write(key, now, v); err != nil {
		c.log.Warn("failed to store cached data for key %q: %v", key, err)
	}
	return v, nil
}

// Update overwrites the entry under key with value, stamped now.
func Update[T any](c *Cache, key string, value T) error {
	if c.disabled {
		return nil
	}
	return c.write(key, c.now(), value)
}

func (c *Cache) write(key string, at time.Time, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	raw, err := json.Marshal(Entry{Timestamp: at.UnixMilli(), Data: data})
	if err != nil {
		return err
	}
	return c.store.Set(key, raw)
}

// Invalidate removes the entries under keys.
func (c *Cache) Invalidate(keys ...string) error {
	var errs []error
	for _, k := range keys {
		if err := c.store.Delete(k); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	keys, err := c.store.Keys()
	if err != nil {
		return err
	}
	return c.Invalidate(keys...)
}

// EntryInfo describes one stored entry.
type EntryInfo struct {
	Key       string        `json:"key"`
	Timestamp time.Time     `json:"timestamp"`
	Age       time.Duration `json:"age"`
	Size      int           `json:"size"`
	Corrupt   bool          `json:"corrupt,omitempty"`
}

// Entries lists every stored entry, sorted by key.
func (c *Cache) Entries() ([]EntryInfo, error) {
	keys, err := c.store.Keys()
	if err != nil {
		return nil, err
	}

	now := c.now()
	infos := make([]EntryInfo, 0, len(keys))
	for _, k := range keys {
		raw, ok, err := c.store.Get(k)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		info := EntryInfo{Key: k, Size: len(raw)}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			info.Corrupt = true
		} else {
			info.Timestamp = time.UnixMilli(e.Timestamp)
			info.Age = now.Sub(info.Timestamp)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
