// Package memo memoizes view results keyed by their inputs. The canonical
// table never changes within a session, so entries never go stale.
package memo

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/bluele/gcache"
)

// Observer is told about every lookup.
type Observer interface {
	CacheHit()
	CacheMiss()
}

// Cache is a bounded LRU of computed views. A nil or zero-size cache
// computes every time.
type Cache struct {
	lru gcache.Cache
	obs Observer
}

// New builds an LRU holding up to size results. size <= 0 disables storage
// but still reports misses to obs.
func New(size int, obs Observer) *Cache {
	c := &Cache{obs: obs}
	if size > 0 {
		c.lru = gcache.New(size).LRU().Build()
	}
	return c
}

// Key hashes the parts of a request into a stable key.
func Key(parts ...string) string {
	h := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])
}

// Get returns a stored result.
func (c *Cache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	if c.lru != nil {
		if v, err := c.lru.GetIFPresent(key); err == nil {
			c.hit()
			return v, true
		}
	}
	c.miss()
	return nil, false
}

// Set stores a result.
func (c *Cache) Set(key string, v any) {
	if c == nil || c.lru == nil {
		return
	}
	_ = c.lru.Set(key, v)
}

// Len returns the number of stored results.
func (c *Cache) Len() int {
	if c == nil || c.lru == nil {
		return 0
	}
	return c.lru.Len(false)
}

// Purge drops every stored result.
func (c *Cache) Purge() {
	if c != nil && c.lru != nil {
		c.lru.Purge()
	}
}

func (c *Cache) hit() {
	if c.obs != nil {
		c.obs.CacheHit()
	}
}

func (c *Cache) miss() {
	if c.obs != nil {
		c.obs.CacheMiss()
	}
}

// Do returns the stored result for key, computing and storing it on a miss.
func Do[T any](c *Cache, key string, compute func() T) T {
	if v, ok := c.Get(key); ok {
		if t, ok := v.(T); ok {
			return t
		}
	}
	v := compute()
	c.Set(key, v)
	return v
}
