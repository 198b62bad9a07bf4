package cache

import (
	"sync"
	"time"
)

// Cache is a TTL map. Get slides the expiry of live items so that active
// game sessions keep their engine.
type Cache[V any] struct {
	sync.RWMutex
	items   map[string]Item[V]
	ttl     time.Duration
	onEvict func(key string, value V)
	stop    chan struct{}
	once    sync.Once
}

type Item[V any] struct {
	Value      V
	Expiration int64
}

// NewCache starts a janitor that sweeps expired items every interval.
func NewCache[V any](ttl, interval time.Duration) *Cache[V] {
	cache := &Cache[V]{
		items: make(map[string]Item[V]),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}
	go cache.startCleanup(interval)
	return cache
}

// OnEvict registers a callback for items dropped by expiry.
func (c *Cache[V]) OnEvict(fn func(key string, value V)) {
	c.Lock()
	defer c.Unlock()
	c.onEvict = fn
}

func (c *Cache[V]) Set(key string, value V) {
	c.Lock()
	defer c.Unlock()
	c.items[key] = Item[V]{Value: value, Expiration: c.expiry()}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.Lock()
	defer c.Unlock()
	return c.getLocked(key)
}

func (c *Cache[V]) getLocked(key string) (V, bool) {
	var zero V
	item, exists := c.items[key]
	if !exists {
		return zero, false
	}
	if item.Expiration > 0 && time.Now().UnixNano() > item.Expiration {
		return zero, false
	}
	item.Expiration = c.expiry()
	c.items[key] = item
	return item.Value, true
}

// GetOrCreate returns the live value for key or stores the one built by
// create. create runs under the cache lock and must not use the cache.
func (c *Cache[V]) GetOrCreate(key string, create func() (V, error)) (V, error) {
	c.Lock()
	defer c.Unlock()

	if v, ok := c.getLocked(key); ok {
		return v, nil
	}
	v, err := create()
	if err != nil {
		return v, err
	}
	c.items[key] = Item[V]{Value: v, Expiration: c.expiry()}
	return v, nil
}

func (c *Cache[V]) Delete(key string) {
	c.Lock()
	defer c.Unlock()
	delete(c.items, key)
}

func (c *Cache[V]) Len() int {
	c.RLock()
	defer c.RUnlock()
	return len(c.items)
}

// Close stops the janitor.
func (c *Cache[V]) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache[V]) expiry() int64 {
	if c.ttl <= 0 {
		return 0
	}
	return time.Now().Add(c.ttl).UnixNano()
}

func (c *Cache[V]) startCleanup(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache[V]) cleanup() {
	c.Lock()
	now := time.Now().UnixNano()
	var evicted []string
	var values []V
	for key, item := range c.items {
		if item.Expiration > 0 && now > item.Expiration {
			delete(c.items, key)
			evicted = append(evicted, key)
			values = append(values, item.Value)
		}
	}
	onEvict := c.onEvict
	c.Unlock()

	if onEvict != nil {
		for i, key := range evicted {
			onEvict(key, values[i])
		}
	}
}
