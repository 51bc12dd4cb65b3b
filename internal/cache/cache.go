package cache

import (
	"context"
	"sync"
	"time"

	"github.com/emso-eric/geo2coverage/internal/covjson"
)

// Cache stores assembled coverage documents keyed by dataset + query.
// Get returns the cached document if present and not expired, Set stores
// one with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) (*covjson.Coverage, bool, error)
	Set(ctx context.Context, key string, value *covjson.Coverage, ttl time.Duration) error
}

// InMemoryCache implements Cache with a mutex-guarded map and TTL-based
// expiration. Expired entries are removed on access.
type InMemoryCache struct {
	mu   sync.RWMutex
	data map[string]cacheEntry
}

type cacheEntry struct {
	value     *covjson.Coverage
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache instance.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		data: make(map[string]cacheEntry),
	}
}

// Get retrieves the cached coverage for the key if present and not expired.
// Returns (doc, true, nil) on hit, (nil, false, nil) on miss or expiry.
func (c *InMemoryCache) Get(ctx context.Context, key string) (*covjson.Coverage, bool, error) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return nil, false, nil
	}

	return entry.value, true, nil
}

// Set stores a coverage document with the specified TTL.
func (c *InMemoryCache) Set(ctx context.Context, key string, value *covjson.Coverage, ttl time.Duration) error {
	c.mu.Lock()
	c.data[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
	return nil
}
