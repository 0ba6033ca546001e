package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiration
}

func (e entry[V]) expired(at time.Time) bool {
	return !e.expiresAt.IsZero() && !at.Before(e.expiresAt)
}

// SimpleCache is a map-backed cache with lazy expiry: expired entries read as
// misses and are dropped on the next write or PurgeExpired call.
type SimpleCache[K comparable, V any] struct {
	// nil means the cache is NOT goroutine-safe.
	mu *sync.RWMutex

	items    map[K]entry[V]
	maxItems int
}

// Options controls construction of a SimpleCache.
type Options struct {
	// ConcurrencySafe guards every operation with a RWMutex.
	ConcurrencySafe bool

	// MaxItems bounds the cache size; 0 means unbounded. When full, expired
	// entries are purged first and the write is dropped if none were.
	MaxItems int
}

// NewSimpleCache constructs a new SimpleCache with the given options.
func NewSimpleCache[K comparable, V any](opts Options) *SimpleCache[K, V] {
	var mu *sync.RWMutex
	if opts.ConcurrencySafe {
		mu = &sync.RWMutex{}
	}
	return &SimpleCache[K, V]{
		mu:       mu,
		items:    make(map[K]entry[V]),
		maxItems: opts.MaxItems,
	}
}

func (c *SimpleCache[K, V]) lockR() func() {
	if c.mu == nil {
		return func() {}
	}
	c.mu.RLock()
	return c.mu.RUnlock
}

func (c *SimpleCache[K, V]) lockW() func() {
	if c.mu == nil {
		return func() {}
	}
	c.mu.Lock()
	return c.mu.Unlock
}

// now is a small indirection to allow test stubbing.
var now = time.Now

// Get implements Cache.Get.
func (c *SimpleCache[K, V]) Get(key K) (V, bool) {
	unlock := c.lockR()
	defer unlock()

	var zero V
	e, ok := c.items[key]
	if !ok || e.expired(now()) {
		return zero, false
	}
	return e.value, true
}

// SetUntil implements Cache.SetUntil.
func (c *SimpleCache[K, V]) SetUntil(key K, value V, expiresAt time.Time) {
	unlock := c.lockW()
	defer unlock()

	if _, exists := c.items[key]; !exists && c.maxItems > 0 && len(c.items) >= c.maxItems {
		c.purgeLocked(now())
		if len(c.items) >= c.maxItems {
			return
		}
	}
	c.items[key] = entry[V]{value: value, expiresAt: expiresAt}
}

// Len implements Cache.Len. It counts only non-expired entries.
func (c *SimpleCache[K, V]) Len() int {
	unlock := c.lockR()
	defer unlock()
	count := 0
	at := now()
	for _, e := range c.items {
		if !e.expired(at) {
			count++
		}
	}
	return count
}

// PurgeExpired implements Cache.PurgeExpired.
func (c *SimpleCache[K, V]) PurgeExpired() {
	unlock := c.lockW()
	defer unlock()
	c.purgeLocked(now())
}

func (c *SimpleCache[K, V]) purgeLocked(at time.Time) {
	for k, e := range c.items {
		if e.expired(at) {
			delete(c.items, k)
		}
	}
}

var _ Cache[any, any] = (*SimpleCache[any, any])(nil)
