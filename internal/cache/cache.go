// Package cache provides an in-process TTL cache shared by the LLM
// per-model handle LRU (spec.md §4.6) and hot profile/competitor lookups
// used by AuditOrchestrator's reuse checks. Grounded on the teacher's
// internal/cache package — inspection confirmed its redis_cache.go does
// not actually import a Redis client, so this is built on the dependency
// the teacher's go.mod genuinely carries: patrickmn/go-cache.
package cache

import (
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a thin, typed-at-the-call-site wrapper around go-cache.
type Cache struct {
	c *gocache.Cache
}

// New creates a Cache with the given default TTL and cleanup interval.
func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{c: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache) Get(key string) (any, bool) {
	return c.c.Get(key)
}

// Set stores value under key using the cache's default TTL.
func (c *Cache) Set(key string, value any) {
	c.c.SetDefault(key, value)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.c.Set(key, value, ttl)
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.c.Delete(key)
}

// ModelHandleCache is the per-model LRU described in spec.md §4.6: it caches
// whatever opaque "handle" the LLM client needs to reuse a warm connection
// per model, keyed by "<model>_<timeoutSeconds>" exactly as the original
// Python enricher's self._llm_cache was keyed.
type ModelHandleCache struct {
	mu    sync.Mutex
	cache *Cache
}

// NewModelHandleCache creates a handle cache with a generous TTL — handles
// are cheap to keep warm and expensive to re-establish.
func NewModelHandleCache() *ModelHandleCache {
	return &ModelHandleCache{cache: New(30*time.Minute, 5*time.Minute)}
}

// GetOrCreate returns the cached handle for (model, timeout), calling
// create() under a mutex if absent — lazy init per spec.md §5's "guarded by
// a mutex for lazy init; once initialized, reads are lock-free" contract.
func (m *ModelHandleCache) GetOrCreate(model string, timeout time.Duration, create func() any) any {
	key := handleKey(model, timeout)
	if v, ok := m.cache.Get(key); ok {
		return v
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.cache.Get(key); ok {
		return v
	}
	v := create()
	m.cache.Set(key, v)
	return v
}

func handleKey(model string, timeout time.Duration) string {
	return model + "_" + strconv.Itoa(int(timeout.Seconds()))
}
