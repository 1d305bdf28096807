// Package cache provides a generic, thread-safe cache with least-recently-used
// eviction and per-entry time-to-live, and a Manager that bundles the two caches
// used at the request boundary: serialized response bodies and derived query results.
//
// # Features
//
//   - Generic type parameters for compile-time type safety
//   - LRU eviction under capacity pressure, evict-then-insert so the bound is never exceeded
//   - Per-entry TTL checked lazily on Get and periodically by SweepExpired
//   - Access bookkeeping (creation time, last access, access count) per entry
//   - Optional clone function so callers never share mutable values with the cache
//   - Optional eviction callbacks for capacity and expiry removals
//   - Injectable clock for deterministic tests
//
// # Usage
//
//	import "github.com/dmitrymomot/budgetguard/core/cache"
//
//	// Cache at most 100 categories for 5 minutes each
//	c, err := cache.NewLRUCache[string, *Category](100, cache.WithDefaultTTL(5*time.Minute))
//	if err != nil {
//		return err
//	}
//
//	c.Put("category:12", cat)
//
//	if cat, found := c.Get("category:12"); found {
//		fmt.Println(cat.Name)
//	}
//
//	// Monthly summaries change rarely, keep them longer
//	c.PutWithTTL("summary:2024-05", summary, time.Hour)
//
//	// Explicit invalidation after a write
//	c.Remove("category:12")
//
// # Recency and Expiry
//
// Recency and expiry are independent. An entry can be fresh yet cold, or old
// yet still inside its TTL. Capacity eviction always picks the least recently
// used entry and never looks at TTL; an expired entry is simply invisible to Get
// and is dropped either on the next Get or on the next sweep. Writing an existing
// key replaces the entry and restarts its TTL.
//
// # Locking
//
// The entry map and the recency list are guarded by separate locks. A Get that
// finds an expired entry deletes it from the map, releases the map lock and only
// then unlinks it from the list. List nodes remember which entry they belong to,
// so a Put of the same key in between is never undone by the late unlink.
//
// # Manager
//
// Manager owns the response and query caches and a sweep job. It starts no
// goroutines itself; the sweep is registered with a scheduler owned by the
// surrounding process:
//
//	m, err := cache.NewManager(cfg, cache.WithManagerLogger(log))
//	if err != nil {
//		return err
//	}
//	if err := m.Schedule(sched); err != nil {
//		return err
//	}
//
//	body, ok := m.GetResponse(key)
//	m.PutResponse(key, body)
//
//	total, err := m.Query(ctx, "totals:2024-05", func(ctx context.Context) (string, error) {
//		return repo.MonthlyTotalsJSON(ctx, 2024, 5)
//	})
//
// # Performance Characteristics
//
//   - Get, Put, Remove: O(1) average case
//   - SweepExpired: O(n) scan under a read lock, O(1) per removed entry
//   - Memory: O(capacity)
package cache
