package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/wxproxy/weather-proxy/internal/models"
)

// DefaultCapacity bounds the in-memory cache when no capacity is configured.
const DefaultCapacity = 512

// Cache is the store for merged weather payloads. Get returns the payload
// only while its TTL window is open; Set overwrites unconditionally and
// resets the expiry clock. Implementations must be safe for concurrent use;
// no atomicity is promised across a Get-then-Set pair, so racing requests
// may fetch upstream twice for one key.
type Cache interface {
	Get(ctx context.Context, key models.CacheKey) (models.Payload, bool, error)
	Set(ctx context.Context, key models.CacheKey, value models.Payload, ttl time.Duration) error
}

// InMemoryCache is a bounded map with per-entry TTL and approximate-LRU
// eviction. Expired entries are invisible to Get and removed lazily; when
// the capacity bound is hit, insertion evicts expired entries first, then
// the least recently used live one.
type InMemoryCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[models.CacheKey]*list.Element
	order    *list.List // front = most recently used
}

type cacheEntry struct {
	key       models.CacheKey
	value     models.Payload
	expiresAt time.Time
}

// NewInMemoryCache creates a cache holding at most capacity entries.
// Non-positive capacity falls back to DefaultCapacity.
func NewInMemoryCache(capacity int) *InMemoryCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &InMemoryCache{
		capacity: capacity,
		entries:  make(map[models.CacheKey]*list.Element),
		order:    list.New(),
	}
}

// Get retrieves the payload for key if present and not expired. A lookup
// after expiry is indistinguishable from one that was never cached.
func (c *InMemoryCache) Get(ctx context.Context, key models.CacheKey) (models.Payload, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return models.Payload{}, false, nil
	}

	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.removeLocked(elem)
		return models.Payload{}, false, nil
	}

	c.order.MoveToFront(elem)
	return entry.value, true, nil
}

// Set stores the payload under key with the given TTL, overwriting any
// existing entry and restarting its expiry clock.
func (c *InMemoryCache) Set(ctx context.Context, key models.CacheKey, value models.Payload, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(ttl)
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return nil
	}

	if len(c.entries) >= c.capacity {
		c.evictLocked()
	}

	elem := c.order.PushFront(&cacheEntry{key: key, value: value, expiresAt: expiresAt})
	c.entries[key] = elem
	return nil
}

// Len returns the number of entries currently held, expired or not.
func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictLocked frees room for one insertion: drop every expired entry, and if
// none had expired, drop the least recently used. Caller holds c.mu.
func (c *InMemoryCache) evictLocked() {
	now := time.Now()
	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*cacheEntry).expiresAt) {
			c.removeLocked(elem)
			removed++
		}
		elem = prev
	}
	if removed == 0 {
		if back := c.order.Back(); back != nil {
			c.removeLocked(back)
		}
	}
}

func (c *InMemoryCache) removeLocked(elem *list.Element) {
	delete(c.entries, elem.Value.(*cacheEntry).key)
	c.order.Remove(elem)
}
