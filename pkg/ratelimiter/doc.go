// Package ratelimiter provides in-memory token bucket rate limiting keyed by
// client address, authenticated principal, or both.
//
// # Token Bucket Algorithm
//
// Every key owns a bucket that:
//  1. Starts full at Config.Requests tokens
//  2. Accrues tokens continuously at Requests/Window per second, capped at capacity
//  3. Gives up one token per admitted request
//  4. Leaves its balance untouched when a request is denied
//
// Refill is lazy and exact: it happens on every check from the elapsed time, so
// there is no background refill task and no tick granularity.
//
// # Keys
//
// Key is a tagged union. AddrKey, PrincipalKey and CombinedKey never share a
// bucket, even when their parts look alike:
//
//	ratelimiter.AddrKey(netip.MustParseAddr("10.0.0.1"))
//	ratelimiter.PrincipalKey(42)
//	ratelimiter.CombinedKey(addr, 42)
//
// # Usage
//
//	limiter, err := ratelimiter.New(ratelimiter.Config{
//		Requests:        100,
//		Window:          time.Minute,
//		CleanupInterval: 5 * time.Minute,
//		IdleTimeout:     10 * time.Minute,
//	}, ratelimiter.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	// Register the idle sweep with a scheduler owned by the process
//	if err := limiter.Schedule(sched); err != nil {
//		return err
//	}
//
//	res := limiter.CheckCombined(addr, userID)
//	if !res.Allowed {
//		w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfterSeconds()))
//		w.WriteHeader(http.StatusTooManyRequests)
//		return
//	}
//
// # Admission Modes
//
//   - CheckAddr: one check against the address bucket
//   - CheckPrincipal: one check against the principal bucket
//   - CheckCombined: address, then principal, then the (address, principal)
//     bucket, stopping at the first denial
//
// In combined mode a blocked address never spends the principal's tokens, and
// the composite bucket is only consulted after both others admitted the request.
//
// # Idle Sweep
//
// Keys untouched for longer than Config.IdleTimeout are dropped by Sweep.
// The next check for such a key starts from a full bucket, which is what the
// old bucket would have refilled to anyway since IdleTimeout is never shorter
// than Window. Healthcheck reports when the sweep is not scheduled or stalled.
//
// # Error Handling
//
// Denial is a verdict, not an error: checks never fail. The package errors are:
//   - ErrInvalidConfig: invalid limiter parameters
//   - ErrNilScheduler: Schedule called without a scheduler
//   - ErrSweepNotScheduled, ErrSweepStalled: returned by Healthcheck
//
// # Performance Characteristics
//
//   - Check: O(1) under a single mutex
//   - Sweep: O(n) candidate scan, then O(1) locked removal per idle key
//   - Memory: one bucket per key seen within the idle timeout
package ratelimiter
