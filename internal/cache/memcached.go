package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/emso-eric/geo2coverage/internal/covjson"
)

const keyPrefix = "coverage:"

// MemcachedCache implements Cache using memcached, storing coverage
// documents as JSON.
type MemcachedCache struct {
	client *memcache.Client
}

// NewMemcachedCache creates a MemcachedCache. addrs is a comma-separated
// list (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and
// maxIdleConns configure the client; both use package defaults if zero.
func NewMemcachedCache(addrs string, timeout time.Duration, maxIdleConns int) (*MemcachedCache, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedCache{client: client}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (c *MemcachedCache) key(k string) string {
	return keyPrefix + k
}

// Get implements Cache.Get. Returns false, nil on cache miss; false, err on error.
func (c *MemcachedCache) Get(ctx context.Context, key string) (*covjson.Coverage, bool, error) {
	if ctx.Err() != nil {
		return nil, false, ctx.Err()
	}
	item, err := c.client.Get(c.key(key))
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return nil, false, nil
		}
		return nil, false, err
	}
	var doc covjson.Coverage
	if err := json.Unmarshal(item.Value, &doc); err != nil {
		return nil, false, err
	}
	return &doc, true, nil
}

// Set implements Cache.Set.
func (c *MemcachedCache) Set(ctx context.Context, key string, value *covjson.Coverage, ttl time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	expSec := int32(ttl.Seconds())
	const maxRelativeExp = 30 * 24 * 60 * 60 // 30 days, memcached's relative-expiry ceiling
	if expSec <= 0 || expSec > maxRelativeExp {
		expSec = 3600
	}
	return c.client.Set(&memcache.Item{
		Key:        c.key(key),
		Value:      raw,
		Expiration: expSec,
	})
}

// Ping checks if memcached is reachable. Used for health checks.
func (c *MemcachedCache) Ping() error {
	return c.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (c *MemcachedCache) Close() error {
	return c.client.Close()
}
