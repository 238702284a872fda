package inkwell

import (
	"sync"
	"time"
)

// Cache keys used by the page handlers and the revalidator.
const (
	cacheKeyPublishedPosts = "published-posts"
	cacheKeyPostPrefix     = "post-"
)

func postCacheKey(slug string) string {
	return cacheKeyPostPrefix + slug
}

// DefaultCacheTTL is the freshness window for data cache entries. Writes
// invalidate their keys explicitly, so this only bounds staleness for
// entries a write somehow missed.
const DefaultCacheTTL = time.Hour

// Cache is an in-memory key-value cache with per-entry TTL. Loaders are
// passed per call, so one cache serves both the list key and the per-slug
// keys. Regeneration for a single key is serialized behind a per-entry
// mutex; concurrent misses for the same key wait for one load instead of
// stampeding the store.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	mu      sync.Mutex
	value   any
	fetched time.Time
	ttl     time.Duration
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

func (e *cacheEntry) fresh() bool {
	return !e.fetched.IsZero() && time.Since(e.fetched) < e.ttl
}

// Get returns the cached value for key, invoking loader on a miss or after
// the TTL elapses. A loader failure is returned to the caller and does not
// evict a previously stored value: it keeps serving until its own expiry.
func (c *Cache) Get(key string, ttl time.Duration, loader func() (any, error)) (any, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.mu.Lock()
		e, ok = c.entries[key]
		if !ok {
			e = &cacheEntry{}
			c.entries[key] = e
		}
		c.mu.Unlock()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fresh() {
		return e.value, nil
	}
	value, err := loader()
	if err != nil {
		// An entry that never held a value is removed so misses for
		// arbitrary keys cannot grow the table.
		if e.fetched.IsZero() {
			c.mu.Lock()
			if c.entries[key] == e {
				delete(c.entries, key)
			}
			c.mu.Unlock()
		}
		return nil, err
	}
	e.value = value
	e.fetched = time.Now()
	e.ttl = ttl
	return value, nil
}

// Invalidate drops a key so the next Get bypasses any remaining TTL.
// Invalidating an absent key is a no-op.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
