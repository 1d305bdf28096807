package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// Option configures an LRUCache.
type Option func(*options)

type options struct {
	defaultTTL time.Duration
	clock      clockwork.Clock
}

// WithDefaultTTL sets the TTL applied by Put. Zero disables expiry.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.defaultTTL = ttl
	}
}

// WithClock replaces the wall clock used for TTL and access bookkeeping.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// element is stored in the recency list. It remembers the entry it was
// linked for, so a delayed unlink never removes a newer entry under the same key.
type element[K comparable, V any] struct {
	key   K
	entry *Entry[V]
}

// LRUCache is a bounded, concurrency-safe cache with least-recently-used
// eviction and per-entry time-to-live.
//
// The entry map and the recency list are guarded by separate locks. When both
// are needed in one critical section the map lock is always taken first.
type LRUCache[K comparable, V any] struct {
	capacity   int
	defaultTTL time.Duration
	clock      clockwork.Clock

	mu      sync.RWMutex
	entries map[K]*Entry[V]
	onEvict func(key K, value V)
	clone   func(V) V

	orderMu sync.Mutex
	order   *list.List // front is the most recently used key
	index   map[K]*list.Element

	hits        atomic.Uint64
	misses      atomic.Uint64
	evictions   atomic.Uint64
	expirations atomic.Uint64
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Entries     int
	Capacity    int
	Hits        uint64
	Misses      uint64
	Evictions   uint64 // removals caused by capacity pressure
	Expirations uint64 // removals caused by TTL, lazy or swept
}

// NewLRUCache creates a cache holding at most capacity live entries.
func NewLRUCache[K comparable, V any](capacity int, opts ...Option) (*LRUCache[K, V], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.defaultTTL < 0 {
		return nil, ErrInvalidTTL
	}

	return &LRUCache[K, V]{
		capacity:   capacity,
		defaultTTL: o.defaultTTL,
		clock:      o.clock,
		entries:    make(map[K]*Entry[V], capacity),
		order:      list.New(),
		index:      make(map[K]*list.Element, capacity),
	}, nil
}

// SetEvictCallback registers fn to be called after an entry leaves the cache
// because of capacity pressure or expiry. It is not called for Remove, Clear
// or overwrites. The callback runs outside of the cache locks.
func (c *LRUCache[K, V]) SetEvictCallback(fn func(key K, value V)) {
	c.mu.Lock()
	c.onEvict = fn
	c.mu.Unlock()
}

// SetCloneFunc registers fn to copy values on the way in (Put) and on the way
// out (Get), so callers never share mutable state with the cache.
func (c *LRUCache[K, V]) SetCloneFunc(fn func(V) V) {
	c.mu.Lock()
	c.clone = fn
	c.mu.Unlock()
}

// Capacity returns the maximum number of live entries.
func (c *LRUCache[K, V]) Capacity() int {
	return c.capacity
}

// DefaultTTL returns the TTL applied by Put.
func (c *LRUCache[K, V]) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// Get returns the value stored under key.
//
// An expired entry is removed as a side effect and reported as absent.
// A live entry becomes the most recently used one and its access count grows.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	var zero V
	now := c.clock.Now()

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		c.misses.Add(1)
		return zero, false
	}

	if e.Expired(now) {
		delete(c.entries, key)
		onEvict := c.onEvict
		c.mu.Unlock()

		c.unlink(key, e)
		c.expirations.Add(1)
		c.misses.Add(1)
		if onEvict != nil {
			onEvict(key, e.Value)
		}
		return zero, false
	}

	e.touch(now)
	value := e.Value
	clone := c.clone
	c.mu.Unlock()

	c.promote(key, e)
	c.hits.Add(1)

	if clone != nil {
		value = clone(value)
	}
	return value, true
}

// Peek returns a copy of the entry stored under key without changing recency
// or access statistics. Expired entries are reported as absent but left in place.
func (c *LRUCache[K, V]) Peek(key K) (Entry[V], bool) {
	now := c.clock.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.Expired(now) {
		return Entry[V]{}, false
	}
	return *e, true
}

// Put stores value under key with the default TTL.
func (c *LRUCache[K, V]) Put(key K, value V) {
	c.PutWithTTL(key, value, c.defaultTTL)
}

// PutWithTTL stores value under key with the given TTL. A non-positive ttl
// means the entry never expires.
//
// Writing an existing key replaces the entry and restarts its TTL. Writing a
// new key into a full cache evicts the least recently used entry first, so the
// number of live entries never exceeds the capacity.
func (c *LRUCache[K, V]) PutWithTTL(key K, value V, ttl time.Duration) {
	if ttl < 0 {
		ttl = 0
	}
	now := c.clock.Now()

	var victims []*element[K, V]

	c.mu.Lock()
	if c.clone != nil {
		value = c.clone(value)
	}

	c.orderMu.Lock()
	_, exists := c.entries[key]
	// Drops a stale list node left behind by an unfinished lazy expiry, too.
	c.unlinkLocked(key, nil)
	if !exists {
		for len(c.entries) >= c.capacity {
			victim := c.popOldestLocked()
			if victim == nil {
				break
			}
			victims = append(victims, victim)
		}
	}

	e := newEntry(value, ttl, now)
	c.entries[key] = e
	c.index[key] = c.order.PushFront(&element[K, V]{key: key, entry: e})
	c.orderMu.Unlock()

	onEvict := c.onEvict
	c.mu.Unlock()

	if len(victims) == 0 {
		return
	}
	c.evictions.Add(uint64(len(victims)))
	if onEvict != nil {
		for _, v := range victims {
			onEvict(v.key, v.entry.Value)
		}
	}
}

// Remove deletes key from the cache. It returns the removed value when the
// entry was present and not yet expired.
func (c *LRUCache[K, V]) Remove(key K) (V, bool) {
	var zero V
	now := c.clock.Now()

	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if !ok {
		return zero, false
	}
	c.unlink(key, e)

	if e.Expired(now) {
		return zero, false
	}
	return e.Value, true
}

// SweepExpired removes every entry that is expired at call time and returns
// how many were removed. Candidates are collected under a read lock and removed
// one by one; an entry rewritten or removed in between is left alone.
func (c *LRUCache[K, V]) SweepExpired() int {
	now := c.clock.Now()

	c.mu.RLock()
	var candidates []K
	for key, e := range c.entries {
		if e.Expired(now) {
			candidates = append(candidates, key)
		}
	}
	c.mu.RUnlock()

	removed := 0
	for _, key := range candidates {
		if c.removeIfExpired(key, now) {
			removed++
		}
	}
	return removed
}

// Keys returns live keys ordered from most to least recently used.
func (c *LRUCache[K, V]) Keys() []K {
	now := c.clock.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()
	c.orderMu.Lock()
	defer c.orderMu.Unlock()

	keys := make([]K, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		item := el.Value.(*element[K, V])
		if cur, ok := c.entries[item.key]; ok && cur == item.entry && !cur.Expired(now) {
			keys = append(keys, item.key)
		}
	}
	return keys
}

// Len returns the number of resident entries, including expired ones that
// have not been swept yet.
func (c *LRUCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries without invoking the evict callback.
func (c *LRUCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orderMu.Lock()
	defer c.orderMu.Unlock()

	c.entries = make(map[K]*Entry[V], c.capacity)
	c.index = make(map[K]*list.Element, c.capacity)
	c.order.Init()
}

// Stats returns current counters.
func (c *LRUCache[K, V]) Stats() Stats {
	return Stats{
		Entries:     c.Len(),
		Capacity:    c.capacity,
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Evictions:   c.evictions.Load(),
		Expirations: c.expirations.Load(),
	}
}

func (c *LRUCache[K, V]) removeIfExpired(key K, now time.Time) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || !e.Expired(now) {
		c.mu.Unlock()
		return false
	}
	delete(c.entries, key)
	onEvict := c.onEvict
	c.mu.Unlock()

	c.unlink(key, e)
	c.expirations.Add(1)
	if onEvict != nil {
		onEvict(key, e.Value)
	}
	return true
}

// promote moves key to the front if it still refers to e.
func (c *LRUCache[K, V]) promote(key K, e *Entry[V]) {
	c.orderMu.Lock()
	defer c.orderMu.Unlock()

	if el, ok := c.index[key]; ok && el.Value.(*element[K, V]).entry == e {
		c.order.MoveToFront(el)
	}
}

func (c *LRUCache[K, V]) unlink(key K, e *Entry[V]) {
	c.orderMu.Lock()
	defer c.orderMu.Unlock()
	c.unlinkLocked(key, e)
}

// unlinkLocked removes key from the recency list. With a non-nil e the node is
// only removed while it still belongs to that entry, which makes late removals
// a no-op once the key has been written again.
func (c *LRUCache[K, V]) unlinkLocked(key K, e *Entry[V]) {
	el, ok := c.index[key]
	if !ok {
		return
	}
	if e != nil && el.Value.(*element[K, V]).entry != e {
		return
	}
	c.order.Remove(el)
	delete(c.index, key)
}

// popOldestLocked evicts the least recently used live entry. Nodes whose
// entry is already gone from the map are discarded on the way. Both locks
// must be held.
func (c *LRUCache[K, V]) popOldestLocked() *element[K, V] {
	for el := c.order.Back(); el != nil; el = c.order.Back() {
		item := el.Value.(*element[K, V])
		c.order.Remove(el)
		delete(c.index, item.key)

		if cur, ok := c.entries[item.key]; ok && cur == item.entry {
			delete(c.entries, item.key)
			return item
		}
	}
	return nil
}
