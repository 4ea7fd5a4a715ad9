package idempotency

import (
	"sync"
	"time"
)

// Cache is the in-process layer of the duplicate guard: a best-effort,
// per-process optimization covering immediate redelivery within one worker.
// It is explicitly constructed and injected, bounded by both capacity and
// TTL, and never shared through package state. The durable registry remains
// the authoritative cross-process guard.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]time.Time
	order    []string
	capacity int
	ttl      time.Duration
	clock    func() time.Time
}

// NewCache creates a bounded cache. Non-positive capacity or TTL fall back
// to defaults sized for a single worker's redelivery window.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 4096
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{
		entries:  make(map[string]time.Time, capacity),
		capacity: capacity,
		ttl:      ttl,
		clock:    time.Now,
	}
}

// Seen reports whether the key was added within the TTL window.
func (c *Cache) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiry, ok := c.entries[key]
	if !ok {
		return false
	}
	if c.clock().After(expiry) {
		delete(c.entries, key)
		return false
	}
	return true
}

// Add records the key, evicting the oldest entry when at capacity.
func (c *Cache) Add(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = c.clock().Add(c.ttl)
		return
	}

	for len(c.entries) >= c.capacity && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = c.clock().Add(c.ttl)
	c.order = append(c.order, key)
}

// Len returns the number of live entries, pruning expired ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	kept := c.order[:0]
	for _, key := range c.order {
		expiry, ok := c.entries[key]
		if !ok {
			continue
		}
		if now.After(expiry) {
			delete(c.entries, key)
			continue
		}
		kept = append(kept, key)
	}
	c.order = kept
	return len(c.entries)
}

// Reset clears the cache. Test hook only: production code relies on TTL and
// capacity eviction.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]time.Time, c.capacity)
	c.order = nil
}
