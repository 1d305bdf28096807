package cache

import "time"

// Entry is a snapshot of a cached value together with its bookkeeping.
// Entries returned by Peek are copies; mutating them does not affect the cache.
type Entry[V any] struct {
	Value        V
	CreatedAt    time.Time
	LastAccessed time.Time
	AccessCount  uint64
	// TTL is measured from CreatedAt. Zero means the entry never expires.
	TTL time.Duration
}

func newEntry[V any](value V, ttl time.Duration, now time.Time) *Entry[V] {
	return &Entry[V]{
		Value:        value,
		CreatedAt:    now,
		LastAccessed: now,
		TTL:          ttl,
	}
}

// Expired reports whether the entry's TTL has elapsed at the given instant.
// This is the single expiry predicate shared by Get, Peek and SweepExpired.
func (e *Entry[V]) Expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.CreatedAt) > e.TTL
}

// ExpiresAt returns the instant after which the entry is expired.
// The boolean is false for entries without TTL.
func (e *Entry[V]) ExpiresAt() (time.Time, bool) {
	if e.TTL <= 0 {
		return time.Time{}, false
	}
	return e.CreatedAt.Add(e.TTL), true
}

func (e *Entry[V]) touch(now time.Time) {
	// Clock skew must not break LastAccessed >= CreatedAt.
	if now.Before(e.CreatedAt) {
		now = e.CreatedAt
	}
	e.LastAccessed = now
	e.AccessCount++
}
