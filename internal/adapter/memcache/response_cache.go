package memcache

import (
	"sync"
	"time"
)

// ResponseCache is a small in-process TTL cache for generated chat
// responses. Entries only need to survive a couple of minutes; when the
// cache grows past maxSize, expired entries are dropped first and the
// oldest live entries evicted until the cap holds.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

type entry struct {
	value     string
	timestamp time.Time
}

// NewResponseCache creates a response cache with the given TTL and size cap.
func NewResponseCache(ttl time.Duration, maxSize int) *ResponseCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if maxSize <= 0 {
		maxSize = 50
	}
	return &ResponseCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get returns the cached value for key, or ok=false on miss or expiry.
func (c *ResponseCache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return "", false
	}
	if c.now().Sub(e.timestamp) >= c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", false
	}
	return e.value, true
}

// Put stores value under key. When the cache exceeds its size cap, expired
// entries go first; if that is not enough, the oldest entries are evicted
// until the cap holds again.
func (c *ResponseCache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, timestamp: c.now()}

	if len(c.entries) <= c.maxSize {
		return
	}

	cutoff := c.now().Add(-c.ttl)
	for k, e := range c.entries {
		if e.timestamp.Before(cutoff) {
			delete(c.entries, k)
		}
	}

	for len(c.entries) > c.maxSize {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.timestamp.Before(oldest) {
				oldestKey = k
				oldest = e.timestamp
			}
		}
		delete(c.entries, oldestKey)
	}
}

// Size returns the current number of entries, expired or not.
func (c *ResponseCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
