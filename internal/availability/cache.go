package availability

import (
	"sync"
	"time"

	"github.com/roach88/snapledger/internal/clock"
	"github.com/roach88/snapledger/internal/ir"
)

// DefaultTTL is used when a Cache is created with a non-positive TTL.
const DefaultTTL = 5 * time.Minute

type cacheKey struct {
	subject Subject
	days    ir.DayRange
}

type cacheEntry struct {
	value     Availability
	expiresAt time.Time
}

// Cache holds fetched availability for a fixed time-to-live.
//
// Expiry is measured on the injected clock. An entry is live while
// now < storedAt + TTL; expired entries are dropped when read and by Purge.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   clock.Clock
	entries map[cacheKey]cacheEntry
}

// NewCache creates an empty cache.
func NewCache(ttl time.Duration, c clock.Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		clock:   clock.OrSystem(c),
		entries: make(map[cacheKey]cacheEntry),
	}
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the live entry for (subject, days).
func (c *Cache) Get(subject Subject, days ir.DayRange) (Availability, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := cacheKey{subject, days}
	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, k)
		return nil, false
	}
	return e.value, true
}

// Put stores a for (subject, days), replacing any previous entry.
func (c *Cache) Put(subject Subject, days ir.DayRange, a Availability) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey{subject, days}] = cacheEntry{
		value:     a,
		expiresAt: c.clock.Now().Add(c.ttl),
	}
}

// Invalidate drops every entry for subject.
func (c *Cache) Invalidate(subject Subject) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		if k.subject == subject {
			delete(c.entries, k)
		}
	}
}

// Purge drops all expired entries and returns how many were removed.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
