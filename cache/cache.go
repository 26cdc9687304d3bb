// Package cache is an in-process TTL cache shared by every provider call
// site. Values are stored as JSON snapshots so a Get always hands back a
// fresh copy: one caller mutating a cached company cannot be observed by
// another. Lifetime is the process: built at startup, discarded at
// shutdown.
package cache

import (
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// TTLs per data class. Near-static registry data lives for days; quotes
// are minutes.
const (
	TTLQuote           = 15 * time.Minute
	TTLCompanyProfile  = 12 * time.Hour
	TTLHistory         = 24 * time.Hour
	TTLSummary         = 24 * time.Hour
	TTLRecommendations = 24 * time.Hour
	TTLMetrics         = 24 * time.Hour
	TTLDirectory       = 7 * 24 * time.Hour
	TTLFilings         = 6 * time.Hour
	TTLFilingDetail    = 7 * 24 * time.Hour
	TTLContent         = 30 * 24 * time.Hour
)

type Cache struct {
	store *gocache.Cache
}

func New() *Cache {
	return &Cache{store: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

// Get returns a copy of the cached value for key. A miss, an expired entry
// and an undecodable snapshot all report found=false; a miss is never an
// error.
func Get[T any](c *Cache, key string) (T, bool) {
	var v T
	raw, ok := c.store.Get(key)
	if !ok {
		return v, false
	}
	snapshot, ok := raw.([]byte)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(snapshot, &v); err != nil {
		return v, false
	}
	return v, true
}

// Set stores a snapshot of v under key with an absolute expiration of ttl
// from now.
func Set[T any](c *Cache, key string, v T, ttl time.Duration) error {
	snapshot, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store.Set(key, snapshot, ttl)
	return nil
}

func (c *Cache) Remove(key string) {
	c.store.Delete(key)
}
