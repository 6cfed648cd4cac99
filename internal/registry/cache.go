package registry

import (
	"sync"
	"time"
)

// Cache provides in-memory caching of registry data. A zero TTL keeps
// entries for the lifetime of the cache.
type Cache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	data      *cacheEntry[*Data]
	manifests map[string]*cacheEntry[*Manifest]
}

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e *cacheEntry[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewCache creates a cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:       ttl,
		manifests: make(map[string]*cacheEntry[*Manifest]),
	}
}

func (c *Cache) expiry() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(c.ttl)
}

// GetRegistry returns the cached registry if still valid.
func (c *Cache) GetRegistry() (*Data, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.data == nil || c.data.expired(time.Now()) {
		return nil, false
	}
	return c.data.value, true
}

// SetRegistry caches the registry.
func (c *Cache) SetRegistry(data *Data) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = &cacheEntry[*Data]{value: data, expiresAt: c.expiry()}
}

// GetManifest returns a cached manifest if still valid.
func (c *Cache) GetManifest(pkgPath string) (*Manifest, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.manifests[pkgPath]
	if !ok || entry.expired(time.Now()) {
		return nil, false
	}
	return entry.value, true
}

// SetManifest caches a manifest by package path.
func (c *Cache) SetManifest(pkgPath string, m *Manifest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manifests[pkgPath] = &cacheEntry[*Manifest]{value: m, expiresAt: c.expiry()}
}

// Clear drops every cached value.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	c.manifests = make(map[string]*cacheEntry[*Manifest])
}
