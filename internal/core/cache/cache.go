// Package cache provides the in-memory response cache that shields
// upstream services from redundant calls. Entries expire lazily after a
// TTL; the store is bounded by a maximum entry count and an optional
// periodic sweep so long-running deployments do not grow without limit.
package cache

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultTTL matches the upstream response cache window.
	DefaultTTL = 15 * time.Minute

	// DefaultMaxEntries bounds the store under sustained unique traffic.
	DefaultMaxEntries = 1024
)

type entry struct {
	value    any
	storedAt time.Time
}

// Cache is a TTL-bounded key/value store. The zero value is not usable;
// construct instances with New.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
	clock      func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the entry time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMaxEntries overrides the entry count bound.
func WithMaxEntries(max int) Option {
	return func(c *Cache) {
		if max > 0 {
			c.maxEntries = max
		}
	}
}

// WithClock injects a clock for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New constructs an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]entry),
		ttl:        DefaultTTL,
		maxEntries: DefaultMaxEntries,
		clock:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value stored under key if it has not expired. Expired
// entries are treated as absent and removed on read.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key, overwriting any previous entry and
// resetting its age. When the store is full, the oldest entry is evicted
// to make room.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = entry{value: value, storedAt: c.clock()}
}

// Clear empties the store.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len reports the current entry count, expired entries included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes every expired entry and reports how many were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// StartSweeping runs Sweep every interval until ctx is canceled. It
// blocks and is intended to run in its own goroutine.
func (c *Cache) StartSweeping(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = c.ttl
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

func (c *Cache) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for key, e := range c.entries {
		if !found || e.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.storedAt
			found = true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}
