package analytic

import (
	"crypto/sha1"
	"encoding/hex"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

// RenderCache memoizes rendered markup so repeated embeds are cheap.
type RenderCache interface {
	GetOrLoad(key string, load func() (string, error)) (string, error)
}

// TTLCache is an in-memory cache whose entries expire after a fixed TTL. A
// zero TTL disables caching. Expired entries stay readable through Stale
// until they are overwritten, deleted or purged.
type TTLCache[V any] struct {
	ttl     time.Duration
	now     Clock
	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
}

type cacheEntry[V any] struct {
	value   V
	expires time.Time
}

// NewTTLCache builds a cache with the provided TTL.
func NewTTLCache[V any](ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry[V]),
	}
}

// WithClock swaps the time source.
func (c *TTLCache[V]) WithClock(clock Clock) *TTLCache[V] {
	if c != nil {
		c.now = normalizeClock(clock)
	}
	return c
}

// Get returns a live entry.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil || c.ttl <= 0 {
		return zero, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		return zero, false
	}
	return entry.value, true
}

// Stale returns the last value stored for key, expired or not.
func (c *TTLCache[V]) Stale(key string) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	return entry.value, true
}

// Set stores a value.
func (c *TTLCache[V]) Set(key string, value V) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: value, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete drops one entry.
func (c *TTLCache[V]) Delete(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Purge drops every entry.
func (c *TTLCache[V]) Purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry[V])
	c.mu.Unlock()
}

// GetOrLoad returns a cached entry or loads and stores a new one. Load
// errors are not cached.
func (c *TTLCache[V]) GetOrLoad(key string, load func() (V, error)) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}
	value, err := load()
	if err != nil {
		return value, err
	}
	c.Set(key, value)
	return value, nil
}

// hashOf returns a deterministic hash for any JSON encodable value.
func hashOf(value any) string {
	data, err := sonic.ConfigStd.Marshal(value)
	if err != nil {
		return "invalid"
	}
	if string(data) == "null" || string(data) == "{}" {
		return "empty"
	}
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}
