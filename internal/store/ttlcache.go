package store

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTTL is the shared lifetime of every cache entry.
const DefaultTTL = 600 * time.Second

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a concurrency-safe keyed store whose entries expire a fixed
// duration after they are written. Entries are replaced whole on Set; an
// expired entry reads as absent and the caller is expected to refetch.
type TTLCache[V any] struct {
	mu sync.RWMutex

	// key: resort id (or the area forecast key)
	items map[string]entry[V]

	ttl   time.Duration
	clock clockwork.Clock
}

// NewTTLCache creates a cache. A ttl <= 0 falls back to DefaultTTL and a nil
// clock to the real clock.
func NewTTLCache[V any](ttl time.Duration, clock clockwork.Clock) *TTLCache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TTLCache[V]{
		items: make(map[string]entry[V]),
		ttl:   ttl,
		clock: clock,
	}
}

// Get returns the value for key if present and not yet expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || !c.clock.Now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, replacing any previous entry and restarting its TTL.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[V]{value: value, expiresAt: c.clock.Now().Add(c.ttl)}
}

// Len returns the number of stored entries, expired or not.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
