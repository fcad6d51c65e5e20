// Package cache provides the expiring key-value stores used by the search
// pipeline. Each cache class has its own TTL and key space; TTL expiry is the
// only eviction policy. Entries are evicted lazily on the read that discovers
// them and by a periodic sweep that bounds memory under low query diversity.
//
// There is no capacity bound. Under adversarial high-cardinality query
// traffic memory grows until the sweep catches up; this is an accepted risk.
package cache

import (
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"
)

type entry[T any] struct {
	value    T
	storedAt time.Time
}

// Cache is an expiring key-value store with a fixed TTL per class.
// Concurrent Get/Put on the same key resolve last-write-wins.
type Cache[T any] struct {
	name    string
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]entry[T]
}

// New creates a cache class with the given name and TTL.
func New[T any](name string, ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		name:    name,
		ttl:     ttl,
		entries: make(map[string]entry[T]),
	}
}

// Get returns the value for key, or the zero value and false when the key
// was never written or the stored entry's age exceeds the TTL. A stale entry
// is evicted by the read that discovers it.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}

	if time.Since(e.storedAt) >= c.ttl {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Put may have refreshed it.
		if cur, ok := c.entries[key]; ok && time.Since(cur.storedAt) >= c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}

	return e.value, true
}

// Put stores value under key, overwriting any previous entry and resetting
// its timestamp.
func (c *Cache[T]) Put(key string, value T) {
	c.mu.Lock()
	c.entries[key] = entry[T]{value: value, storedAt: time.Now()}
	c.mu.Unlock()
}

// Clear empties the cache class.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[T])
	c.mu.Unlock()
}

// ClearPrefix removes every entry whose key starts with prefix. Result caches
// key on "<normalized query>:<identity hash>", so this clears all cached
// outcomes for one query regardless of which result set they were computed on.
func (c *Cache[T]) ClearPrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Sweep removes all stale entries and reports how many were evicted.
func (c *Cache[T]) Sweep() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for key, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// Len returns the current number of entries, stale ones included.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Name returns the cache class name.
func (c *Cache[T]) Name() string {
	return c.name
}

// TTL returns the cache class TTL.
func (c *Cache[T]) TTL() time.Duration {
	return c.ttl
}

// NormalizeQuery produces the canonical form of a query string used for
// cache keys: trimmed and lower-cased.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Key returns a stable hash key for the given parts.
func Key(parts ...string) string {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// ResultKey builds a key for caches whose entries depend on both the query
// text and the identity of the result set (ranking, overview). The normalized
// query stays in clear as the key prefix so ClearPrefix can target one query.
func ResultKey(query string, ids ...string) string {
	return NormalizeQuery(query) + ":" + Key(ids...)
}
