package cache

import (
	"sync"
	"time"
)

// Namespaces used by the app. Namespaces are distinct keyspaces: a script
// id and a voice id that happen to share a string never collide.
const (
	NamespaceScripts = "scripts"
	NamespaceVoices  = "voices"
	NamespaceModels  = "models"
)

type cacheKey struct {
	namespace string
	key       string
}

type entry struct {
	value      any
	insertedAt time.Time
	ttl        time.Duration
}

// Cache is a namespaced in-memory store whose entries expire after a ttl.
// An expired entry is indistinguishable from a missing one: both mean the
// caller has to fetch fresh data. The optional sweep only bounds memory;
// Get re-checks expiry itself.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]entry
	now     func() time.Time

	sweepStop chan struct{}
	sweepOnce sync.Once
}

// New creates an empty cache
func New() *Cache {
	return &Cache{
		entries: make(map[cacheKey]entry),
		now:     time.Now,
	}
}

// Get returns the cached value, or false on a miss. A value whose ttl has
// elapsed is a miss.
func (c *Cache) Get(namespace, key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[cacheKey{namespace, key}]
	if !ok || c.now().Sub(e.insertedAt) > e.ttl {
		return nil, false
	}
	return e.value, true
}

// Set stores value under namespace/key, unconditionally replacing any
// previous entry
func (c *Cache) Set(namespace, key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey{namespace, key}] = entry{
		value:      value,
		insertedAt: c.now(),
		ttl:        ttl,
	}
}

// Invalidate removes an entry immediately, used when a mutation is known
// to make cached data stale
func (c *Cache) Invalidate(namespace, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey{namespace, key})
}

// InvalidateNamespace removes every entry in a namespace, e.g. a cached
// list after a create or delete
func (c *Cache) InvalidateNamespace(namespace string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.namespace == namespace {
			delete(c.entries, k)
		}
	}
}

// Len reports the number of stored entries, expired ones included
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// StartSweep launches a background sweep that drops expired entries every
// interval. Calling it more than once has no effect.
func (c *Cache) StartSweep(interval time.Duration) {
	c.sweepOnce.Do(func() {
		c.sweepStop = make(chan struct{})
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					c.sweep()
				case <-c.sweepStop:
					return
				}
			}
		}()
	})
}

// StopSweep stops the background sweep if one is running
func (c *Cache) StopSweep() {
	if c.sweepStop != nil {
		close(c.sweepStop)
		c.sweepStop = nil
	}
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.insertedAt) > e.ttl {
			delete(c.entries, k)
		}
	}
}
