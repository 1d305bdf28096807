package ratelimiter

import (
	"math"
	"time"
)

// TokenBucket holds the rate state of a single key. Tokens accrue continuously
// at refillRate per second up to maxTokens and every admitted request takes one.
//
// TokenBucket is not safe for concurrent use; the Limiter serializes access.
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewTokenBucket returns a full bucket that lets capacity requests through per window.
func NewTokenBucket(capacity int, window time.Duration, now time.Time) *TokenBucket {
	return &TokenBucket{
		tokens:     float64(capacity),
		maxTokens:  float64(capacity),
		refillRate: float64(capacity) / window.Seconds(),
		lastRefill: now,
	}
}

// Refill adds the tokens earned since the last refill, capped at capacity.
// A clock that moved backwards adds nothing.
func (b *TokenBucket) Refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 {
		return
	}
	b.tokens = min(b.tokens+elapsed.Seconds()*b.refillRate, b.maxTokens)
	b.lastRefill = now
}

// TryConsume refills and takes one token if a whole token is available.
// On denial the balance is left unchanged.
func (b *TokenBucket) TryConsume(now time.Time) bool {
	b.Refill(now)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// TimeUntilToken returns how long until a whole token is available, assuming
// the bucket was just refilled. It is a lower bound: other requests may take
// the token first.
func (b *TokenBucket) TimeUntilToken() time.Duration {
	if b.tokens >= 1 {
		return 0
	}
	// Rounded up so a denied request never sees a zero wait.
	seconds := (1 - b.tokens) / b.refillRate
	return time.Duration(math.Ceil(seconds * float64(time.Second)))
}

// Tokens returns the current, possibly fractional, balance.
func (b *TokenBucket) Tokens() float64 {
	return b.tokens
}

// Capacity returns the maximum balance.
func (b *TokenBucket) Capacity() float64 {
	return b.maxTokens
}
