package admin

import (
	"sync"
	"time"
)

// TTLCache is an in-memory cache whose entries expire after a fixed TTL
type TTLCache[V any] struct {
	data    map[string]cacheEntry[V]
	ttl     time.Duration
	mu      sync.RWMutex
	now     func() time.Time
	cleanup *time.Ticker
	done    chan struct{}
	once    sync.Once
}

type cacheEntry[V any] struct {
	value      V
	expiration time.Time
}

// NewTTLCache creates a cache and starts its expiry sweeper. Call Close to stop it.
func NewTTLCache[V any](ttl time.Duration) *TTLCache[V] {
	c := &TTLCache[V]{
		data:    make(map[string]cacheEntry[V]),
		ttl:     ttl,
		now:     time.Now,
		cleanup: time.NewTicker(time.Minute),
		done:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok || c.now().After(entry.expiration) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = cacheEntry[V]{value: value, expiration: c.now().Add(c.ttl)}
}

func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

func (c *TTLCache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *TTLCache[V]) Close() {
	c.once.Do(func() {
		c.cleanup.Stop()
		close(c.done)
	})
}

func (c *TTLCache[V]) cleanupLoop() {
	for {
		select {
		case <-c.cleanup.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

func (c *TTLCache[V]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.data {
		if now.After(entry.expiration) {
			delete(c.data, key)
		}
	}
}
