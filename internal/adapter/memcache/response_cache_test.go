package memcache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResponseCachePutGet(t *testing.T) {
	c := NewResponseCache(2*time.Minute, 50)

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Put("k", "respuesta")
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "respuesta", got)
}

func TestResponseCacheExpiry(t *testing.T) {
	c := NewResponseCache(2*time.Minute, 50)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put("k", "respuesta")

	now = now.Add(time.Minute)
	_, ok := c.Get("k")
	assert.True(t, ok, "entry within TTL must be served")

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok, "expired entry must not be served")
	assert.Zero(t, c.Size(), "expired entry is dropped on read")
}

func TestResponseCacheSizeCapCleansExpired(t *testing.T) {
	c := NewResponseCache(time.Minute, 5)
	now := time.Now()
	c.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		c.Put(fmt.Sprintf("old-%d", i), "v")
	}
	now = now.Add(2 * time.Minute)
	c.Put("fresh", "v")

	assert.Equal(t, 1, c.Size(), "overflow write cleans out expired entries")
	got, ok := c.Get("fresh")
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestResponseCacheSizeCapEvictsOldest(t *testing.T) {
	c := NewResponseCache(time.Hour, 3)
	now := time.Now()
	c.now = func() time.Time { return now }

	// All entries stay within TTL, so the cap must evict by age.
	for i := 0; i < 4; i++ {
		c.Put(fmt.Sprintf("k-%d", i), "v")
		now = now.Add(time.Second)
	}

	assert.Equal(t, 3, c.Size(), "cache never holds more than maxSize entries")
	_, ok := c.Get("k-0")
	assert.False(t, ok, "oldest entry is evicted first")
	for i := 1; i < 4; i++ {
		_, ok := c.Get(fmt.Sprintf("k-%d", i))
		assert.True(t, ok)
	}
}
