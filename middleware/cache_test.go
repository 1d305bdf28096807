package middleware_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dmitrymomot/budgetguard/core/cache"
	"github.com/dmitrymomot/budgetguard/core/handler"
	"github.com/dmitrymomot/budgetguard/core/response"
	"github.com/dmitrymomot/budgetguard/core/router"
	"github.com/dmitrymomot/budgetguard/middleware"
	"github.com/dmitrymomot/budgetguard/pkg/async"
)

func newTestManager(t *testing.T) *cache.Manager {
	t.Helper()
	m, err := cache.NewManager(cache.Config{
		ResponseCapacity: 16,
		QueryCapacity:    16,
		TTL:              time.Minute,
		SweepInterval:    time.Minute,
	})
	require.NoError(t, err)
	return m
}

func newTestPool(t *testing.T, queue int) *async.Pool {
	t.Helper()
	p, err := async.New(async.Config{Workers: 1, QueueSize: queue, ShutdownTimeout: time.Second})
	require.NoError(t, err)
	return p
}

func runPool(t *testing.T, p *async.Pool) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx)() }()
	require.Eventually(t, func() bool { return p.Stats().IsRunning }, time.Second, 5*time.Millisecond)
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

type cacheFixture struct {
	router  router.Router[*router.Context]
	manager *cache.Manager
	pool    *async.Pool
	calls   *atomic.Int64
}

func newCacheFixture(t *testing.T, queue int, cfg middleware.ResponseCacheConfig) cacheFixture {
	t.Helper()

	f := cacheFixture{manager: newTestManager(t), pool: newTestPool(t, queue), calls: &atomic.Int64{}}
	cfg.Manager = f.manager
	cfg.Pool = f.pool

	r := router.New[*router.Context]()
	r.Use(middleware.Principal[*router.Context](), middleware.ResponseCacheWithConfig[*router.Context](cfg))

	r.Get("/totals", func(ctx *router.Context) handler.Response {
		f.calls.Add(1)
		return response.JSON(map[string]int{"spent": 100})
	})
	r.Post("/totals", func(ctx *router.Context) handler.Response {
		f.calls.Add(1)
		return response.JSONWithStatus(map[string]int{"spent": 100}, http.StatusCreated)
	})
	r.Get("/private", func(ctx *router.Context) handler.Response {
		f.calls.Add(1)
		return response.WithCache(response.String("secret"), 0)
	})
	r.Get("/missing", func(ctx *router.Context) handler.Response {
		f.calls.Add(1)
		return response.Error(response.ErrNotFound)
	})
	r.Get("/big", func(ctx *router.Context) handler.Response {
		f.calls.Add(1)
		return response.Bytes(make([]byte, 64), "application/octet-stream")
	})

	f.router = r
	return f
}

func TestResponseCacheMissThenHit(t *testing.T) {
	t.Parallel()

	f := newCacheFixture(t, 8, middleware.ResponseCacheConfig{})
	runPool(t, f.pool)

	w := do(f.router, http.MethodGet, "/totals?month=5")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, middleware.CacheStatusMiss, w.Header().Get(middleware.HeaderCacheStatus))
	want := w.Body.String()

	require.Eventually(t, func() bool {
		_, ok := f.manager.GetResponse("anon:/totals:month=5")
		return ok
	}, time.Second, 5*time.Millisecond)

	w = do(f.router, http.MethodGet, "/totals?month=5")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, middleware.CacheStatusHit, w.Header().Get(middleware.HeaderCacheStatus))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, want, w.Body.String())
	assert.Equal(t, int64(1), f.calls.Load())

	// Different query, different principal: separate entries.
	assert.Equal(t, middleware.CacheStatusMiss, do(f.router, http.MethodGet, "/totals?month=6").Header().Get(middleware.HeaderCacheStatus))
	w = do(f.router, http.MethodGet, "/totals?month=5", withHeader(middleware.DefaultPrincipalHeader, "12"))
	assert.Equal(t, middleware.CacheStatusMiss, w.Header().Get(middleware.HeaderCacheStatus))
}

func TestResponseCacheSkipsUncacheable(t *testing.T) {
	t.Parallel()

	rec, reader := newTestRecorder(t)
	f := newCacheFixture(t, 8, middleware.ResponseCacheConfig{Metrics: rec, MaxBodySize: 32})
	runPool(t, f.pool)

	w := do(f.router, http.MethodPost, "/totals")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(middleware.HeaderCacheStatus), "only GET is cached")

	for _, path := range []string{"/private", "/missing", "/big"} {
		do(f.router, http.MethodGet, path)
		w = do(f.router, http.MethodGet, path)
		assert.Equal(t, middleware.CacheStatusMiss, w.Header().Get(middleware.HeaderCacheStatus), path)
	}
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Body.Bytes(), 64, "oversized bodies still reach the client")
	assert.Equal(t, http.StatusNotFound, do(f.router, http.MethodGet, "/missing").Code)

	assert.Zero(t, f.pool.Stats().Submitted)
	assert.Zero(t, f.manager.Stats().Responses.Entries)
	assert.Equal(t, int64(7), counter(t, reader, "budgetguard.cache.lookups", attribute.String("result", "miss")))
	assert.Equal(t, int64(4), counter(t, reader, "budgetguard.cache.writes", attribute.String("outcome", "skipped")))
}

func TestResponseCacheDropsWhenPoolIsFull(t *testing.T) {
	t.Parallel()

	rec, reader := newTestRecorder(t)
	f := newCacheFixture(t, 1, middleware.ResponseCacheConfig{Metrics: rec})
	// Not started: the single queue slot fills and stays full.

	w := do(f.router, http.MethodGet, "/totals?a=1")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(f.router, http.MethodGet, "/totals?a=2")
	assert.Equal(t, http.StatusOK, w.Code, "a dropped write-back never fails the request")

	stats := f.pool.Stats()
	assert.Equal(t, int64(1), stats.Submitted)
	assert.Equal(t, int64(1), stats.Dropped)
	assert.Equal(t, int64(1), counter(t, reader, "budgetguard.cache.writes", attribute.String("outcome", "queued")))
	assert.Equal(t, int64(1), counter(t, reader, "budgetguard.cache.writes", attribute.String("outcome", "dropped")))

	runPool(t, f.pool)
	require.Eventually(t, func() bool {
		_, ok := f.manager.GetResponse("anon:/totals:a=1")
		return ok
	}, time.Second, 5*time.Millisecond)
	_, ok := f.manager.GetResponse("anon:/totals:a=2")
	assert.False(t, ok)
}

func TestResponseCacheConfig(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { middleware.ResponseCache[*router.Context](nil, newTestPool(t, 1)) })
	assert.Panics(t, func() { middleware.ResponseCache[*router.Context](newTestManager(t), nil) })

	f := newCacheFixture(t, 8, middleware.ResponseCacheConfig{
		ContentType: "text/csv",
		KeyFunc:     func(ctx handler.Context) string { return "fixed" },
	})
	f.manager.PutResponse("fixed", []byte("a,b"))

	w := do(f.router, http.MethodGet, "/totals?anything")
	assert.Equal(t, middleware.CacheStatusHit, w.Header().Get(middleware.HeaderCacheStatus))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "a,b", w.Body.String())
	assert.Zero(t, f.calls.Load())
}
