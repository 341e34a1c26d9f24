package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ttlCache memoizes loads per key with a jittered TTL and collapses concurrent misses.
type ttlCache[V any] struct {
	ttl   time.Duration
	clock func() time.Time
	// bound, when set, caps an entry's lifetime (e.g. an event's end).
	bound func(V) time.Time
	sf    singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func newTTLCache[V any](ttl time.Duration) *ttlCache[V] {
	return &ttlCache[V]{
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		entries: make(map[string]cacheEntry[V]),
	}
}

func (c *ttlCache[V]) lookup(key string) (V, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.entries[key]; ok && entry.expiresAt.After(now) {
		return entry.value, true
	}
	var zero V
	return zero, false
}

func (c *ttlCache[V]) get(ctx context.Context, key string, load func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		now := c.clock()
		expiresAt := now.Add(c.ttlWithJitter())
		if c.bound != nil {
			if b := c.bound(v); !b.IsZero() && b.Before(expiresAt) {
				expiresAt = b
			}
		}
		c.mu.Lock()
		c.entries[key] = cacheEntry[V]{value: v, expiresAt: expiresAt}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

func (c *ttlCache[V]) delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *ttlCache[V]) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
