package cache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/budgetguard/core/logger"
)

// Config holds the Manager settings. Field tags allow loading it with core/config.
type Config struct {
	ResponseCapacity int           `env:"CACHE_RESPONSE_CAPACITY" envDefault:"1000"`
	QueryCapacity    int           `env:"CACHE_QUERY_CAPACITY" envDefault:"500"`
	TTL              time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	SweepInterval    time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"5m"`
}

// Scheduler runs named jobs at a fixed interval.
// pkg/scheduler.Scheduler satisfies it.
type Scheduler interface {
	Every(name string, interval time.Duration, job func(ctx context.Context) error) error
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	logger *slog.Logger
	clock  clockwork.Clock
}

// WithManagerLogger sets the logger used by the sweep job.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(o *managerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithManagerClock sets the clock shared by both caches.
func WithManagerClock(clock clockwork.Clock) ManagerOption {
	return func(o *managerOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// Manager owns the response cache (serialized bodies keyed by request
// signature) and the query cache (derived query results), both with the same
// default TTL, plus the job that sweeps them.
type Manager struct {
	responses     *LRUCache[string, []byte]
	queries       *LRUCache[string, string]
	sweepInterval time.Duration
	logger        *slog.Logger
	loads         singleflight.Group
}

// ManagerStats groups the counters of both caches.
type ManagerStats struct {
	Responses Stats
	Queries   Stats
}

// NewManager validates cfg and builds both caches. It starts no goroutines;
// call Schedule to register the periodic sweep.
func NewManager(cfg Config, opts ...ManagerOption) (*Manager, error) {
	o := managerOptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.SweepInterval <= 0 {
		return nil, ErrInvalidInterval
	}

	responses, err := NewLRUCache[string, []byte](cfg.ResponseCapacity,
		WithDefaultTTL(cfg.TTL), WithClock(o.clock))
	if err != nil {
		return nil, fmt.Errorf("response cache: %w", err)
	}
	responses.SetCloneFunc(bytes.Clone)

	queries, err := NewLRUCache[string, string](cfg.QueryCapacity,
		WithDefaultTTL(cfg.TTL), WithClock(o.clock))
	if err != nil {
		return nil, fmt.Errorf("query cache: %w", err)
	}

	return &Manager{
		responses:     responses,
		queries:       queries,
		sweepInterval: cfg.SweepInterval,
		logger:        o.logger,
	}, nil
}

// GetResponse returns a copy of the body cached under key.
func (m *Manager) GetResponse(key string) ([]byte, bool) {
	return m.responses.Get(key)
}

// PutResponse caches a copy of body under key with the default TTL.
func (m *Manager) PutResponse(key string, body []byte) {
	m.responses.Put(key, body)
}

// InvalidateResponse drops the body cached under key.
func (m *Manager) InvalidateResponse(key string) {
	m.responses.Remove(key)
}

// InvalidateResponsePrefix drops every body whose key starts with prefix and
// returns how many were dropped.
func (m *Manager) InvalidateResponsePrefix(prefix string) int {
	n := 0
	for _, key := range m.responses.Keys() {
		if strings.HasPrefix(key, prefix) {
			if _, ok := m.responses.Remove(key); ok {
				n++
			}
		}
	}
	return n
}

// GetQuery returns the query result cached under key.
func (m *Manager) GetQuery(key string) (string, bool) {
	return m.queries.Get(key)
}

// PutQuery caches a query result under key with the default TTL.
func (m *Manager) PutQuery(key, result string) {
	m.queries.Put(key, result)
}

// InvalidateQuery drops the query result cached under key.
func (m *Manager) InvalidateQuery(key string) {
	m.queries.Remove(key)
}

// Query returns the cached result for key, or calls load and caches its
// result. Concurrent misses for the same key share a single load call.
// Load errors are returned and never cached.
//
// The shared load runs detached from any caller's cancellation. A caller
// whose ctx ends stops waiting and gets ctx.Err(); the load carries on for
// the others and still fills the cache.
func (m *Manager) Query(ctx context.Context, key string, load func(ctx context.Context) (string, error)) (string, error) {
	if load == nil {
		return "", ErrNilLoader
	}
	if v, ok := m.queries.Get(key); ok {
		return v, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := m.loads.DoChan(key, func() (any, error) {
		// Another caller may have filled the entry while we waited for the group.
		if v, ok := m.queries.Peek(key); ok {
			return v.Value, nil
		}
		result, err := load(loadCtx)
		if err != nil {
			return "", err
		}
		m.queries.Put(key, result)
		return result, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Sweep removes expired entries from both caches. It has the job signature
// expected by Scheduler and never fails.
func (m *Manager) Sweep(ctx context.Context) error {
	start := time.Now()
	responses := m.responses.SweepExpired()
	queries := m.queries.SweepExpired()

	if responses+queries > 0 {
		m.logger.DebugContext(ctx, "cache sweep removed expired entries",
			logger.Component("cache"),
			logger.Count("responses", responses),
			logger.Count("queries", queries),
			logger.Elapsed(start),
		)
	}
	return nil
}

// Schedule registers the periodic sweep with s.
func (m *Manager) Schedule(s Scheduler) error {
	return s.Every("cache-sweep", m.sweepInterval, m.Sweep)
}

// SweepInterval returns the configured sweep interval.
func (m *Manager) SweepInterval() time.Duration {
	return m.sweepInterval
}

// Stats returns counters of both caches.
func (m *Manager) Stats() ManagerStats {
	return ManagerStats{
		Responses: m.responses.Stats(),
		Queries:   m.queries.Stats(),
	}
}
