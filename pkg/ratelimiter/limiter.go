package ratelimiter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/budgetguard/core/logger"
)

// Scheduler runs named jobs at a fixed interval.
// pkg/scheduler.Scheduler satisfies it.
type Scheduler interface {
	Every(name string, interval time.Duration, job func(ctx context.Context) error) error
}

// limiterEntry co-locates a bucket with its last access time under the limiter lock.
type limiterEntry struct {
	bucket     *TokenBucket
	lastAccess time.Time
}

// Limiter admits or denies requests per key using one token bucket per key.
// Buckets are created lazily at full capacity and dropped by Sweep once they
// have been idle for longer than Config.IdleTimeout.
type Limiter struct {
	cfg    Config
	clock  clockwork.Clock
	logger *slog.Logger

	mu      sync.Mutex
	entries map[Key]*limiterEntry

	scheduled atomic.Bool
	lastSweep atomic.Int64 // unix nanos of the last sweep or of scheduling

	keysCreated atomic.Int64
	keysRemoved atomic.Int64
	allowed     atomic.Int64
	denied      atomic.Int64
}

// Stats provides observability counters for monitoring and debugging.
type Stats struct {
	ActiveKeys  int   // Current number of tracked keys
	KeysCreated int64 // Total number of buckets created
	KeysRemoved int64 // Total number of idle buckets swept
	Allowed     int64 // Total number of admitted checks
	Denied      int64 // Total number of denied checks
	Scheduled   bool  // Whether the idle sweep is registered with a scheduler
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock used for refills and idle tracking.
func WithClock(clock clockwork.Clock) Option {
	return func(l *Limiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithLogger sets the logger for internal operations.
func WithLogger(log *slog.Logger) Option {
	return func(l *Limiter) {
		if log != nil {
			l.logger = log
		}
	}
}

// New validates cfg and returns a Limiter. It starts no goroutines; call
// Schedule to register the idle sweep.
func New(cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Limiter{
		cfg:     cfg,
		clock:   clockwork.NewRealClock(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		entries: make(map[Key]*limiterEntry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Limit returns the configured bucket capacity.
func (l *Limiter) Limit() int {
	return l.cfg.Requests
}

// Check consumes one token from the bucket of key, creating a full bucket
// on first use.
func (l *Limiter) Check(key Key) Result {
	now := l.clock.Now()

	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{bucket: NewTokenBucket(l.cfg.Requests, l.cfg.Window, now)}
		l.entries[key] = e
		l.keysCreated.Add(1)
	}
	e.lastAccess = now

	allowed := e.bucket.TryConsume(now)
	res := Result{
		Allowed:   allowed,
		Limit:     l.cfg.Requests,
		Remaining: int(math.Floor(e.bucket.Tokens())),
		Key:       key,
	}
	if !allowed {
		res.RetryAfter = e.bucket.TimeUntilToken()
	}
	l.mu.Unlock()

	if allowed {
		l.allowed.Add(1)
	} else {
		l.denied.Add(1)
	}
	return res
}

// CheckAddr limits by client address.
func (l *Limiter) CheckAddr(addr netip.Addr) Result {
	return l.Check(AddrKey(addr))
}

// CheckPrincipal limits by authenticated principal.
func (l *Limiter) CheckPrincipal(id int64) Result {
	return l.Check(PrincipalKey(id))
}

// CheckCombined enforces three independent ceilings in order: per address,
// per principal and per address and principal. It stops at the first denial,
// so a blocked address never spends the principal's tokens and the composite
// bucket is only consulted once both others admit the request.
func (l *Limiter) CheckCombined(addr netip.Addr, id int64) Result {
	if res := l.CheckAddr(addr); !res.Allowed {
		return res
	}
	if res := l.CheckPrincipal(id); !res.Allowed {
		return res
	}
	return l.Check(CombinedKey(addr, id))
}

// Reset drops the bucket of key. The next check starts from a full bucket.
func (l *Limiter) Reset(key Key) {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

// Sweep removes keys that have not been checked within the idle timeout.
// Candidates are collected first and each one is re-checked before removal,
// so a key touched in between survives. It has the job signature expected by
// Scheduler and never fails.
func (l *Limiter) Sweep(ctx context.Context) error {
	start := l.clock.Now()
	l.lastSweep.Store(start.UnixNano())

	l.mu.Lock()
	var idle []Key
	for key, e := range l.entries {
		if start.Sub(e.lastAccess) > l.cfg.IdleTimeout {
			idle = append(idle, key)
		}
	}
	l.mu.Unlock()

	removed := 0
	for _, key := range idle {
		l.mu.Lock()
		if e, ok := l.entries[key]; ok && start.Sub(e.lastAccess) > l.cfg.IdleTimeout {
			delete(l.entries, key)
			removed++
		}
		l.mu.Unlock()
	}

	if removed > 0 {
		l.keysRemoved.Add(int64(removed))
		l.logger.DebugContext(ctx, "rate limiter swept idle keys",
			logger.Component("ratelimiter"),
			logger.Count("removed", removed),
			logger.Duration(l.cfg.IdleTimeout),
		)
	}
	return nil
}

// Schedule registers the periodic idle sweep with s.
func (l *Limiter) Schedule(s Scheduler) error {
	if s == nil {
		return ErrNilScheduler
	}
	if err := s.Every("ratelimit-sweep", l.cfg.CleanupInterval, l.Sweep); err != nil {
		return fmt.Errorf("schedule idle sweep: %w", err)
	}
	l.lastSweep.Store(l.clock.Now().UnixNano())
	l.scheduled.Store(true)
	return nil
}

// Stats returns current limiter statistics for observability and monitoring.
// This method is thread-safe and can be called at any time.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	active := len(l.entries)
	l.mu.Unlock()

	return Stats{
		ActiveKeys:  active,
		KeysCreated: l.keysCreated.Load(),
		KeysRemoved: l.keysRemoved.Load(),
		Allowed:     l.allowed.Load(),
		Denied:      l.denied.Load(),
		Scheduled:   l.scheduled.Load(),
	}
}

// Healthcheck reports whether the idle sweep is registered and has run
// recently. Without a running sweep the key table grows without bound.
func (l *Limiter) Healthcheck(ctx context.Context) error {
	if !l.scheduled.Load() {
		return ErrSweepNotScheduled
	}
	last := time.Unix(0, l.lastSweep.Load())
	if since := l.clock.Since(last); since > 2*l.cfg.CleanupInterval {
		return fmt.Errorf("%w: last run %s ago", ErrSweepStalled, since.Round(time.Second))
	}
	return nil
}
