package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrymomot/budgetguard/core/cache"
	"github.com/dmitrymomot/budgetguard/core/handler"
	"github.com/dmitrymomot/budgetguard/core/logger"
	"github.com/dmitrymomot/budgetguard/core/response"
	"github.com/dmitrymomot/budgetguard/pkg/async"
	"github.com/dmitrymomot/budgetguard/pkg/metrics"
)

const (
	HeaderCacheStatus = "X-Cache-Status"
	CacheStatusHit    = "HIT"
	CacheStatusMiss   = "MISS"
)

const anonymousCacheKey = "anon"

// ResponseCacheConfig configures the response cache middleware.
type ResponseCacheConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Manager holds the cached bodies (required)
	Manager *cache.Manager
	// Pool runs the write-back off the request path (required)
	Pool *async.Pool
	// Metrics counts lookups and write-back outcomes (optional)
	Metrics *metrics.Recorder
	// Logger receives write-back drops (default: discard)
	Logger *slog.Logger
	// KeyFunc builds the cache key (default: CacheKey)
	KeyFunc func(ctx handler.Context) string
	// ContentType is sent with cached bodies (default: "application/json")
	ContentType string
	// MaxBodySize skips storing larger bodies (default: 1 MiB)
	MaxBodySize int
}

// ResponseCache caches GET response bodies in manager and writes them back
// through pool.
func ResponseCache[C handler.Context](manager *cache.Manager, pool *async.Pool) handler.Middleware[C] {
	return ResponseCacheWithConfig[C](ResponseCacheConfig{Manager: manager, Pool: pool})
}

// ResponseCacheWithConfig serves GET requests from the response cache.
//
// A hit is answered 200 with the stored body, cfg.ContentType and
// X-Cache-Status: HIT without calling the handler. A miss runs the handler,
// tags the response X-Cache-Status: MISS and, when the response is 2xx and
// its Cache-Control has neither no-cache nor no-store, submits the body to
// the pool. The response never waits for the store, and a full pool drops it.
// Panics if no manager or pool is provided.
func ResponseCacheWithConfig[C handler.Context](cfg ResponseCacheConfig) handler.Middleware[C] {
	if cfg.Manager == nil {
		panic("response cache middleware: manager is required")
	}
	if cfg.Pool == nil {
		panic("response cache middleware: pool is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = CacheKey
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "application/json"
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 1 << 20
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if ctx.Request().Method != http.MethodGet || (cfg.Skip != nil && cfg.Skip(ctx)) {
				return next(ctx)
			}

			key := cfg.KeyFunc(ctx)

			if body, ok := cfg.Manager.GetResponse(key); ok {
				cfg.Metrics.CacheLookup(ctx, metrics.CacheHit)
				ctx.ResponseWriter().Header().Set(HeaderCacheStatus, CacheStatusHit)
				return response.Bytes(body, cfg.ContentType)
			}

			cfg.Metrics.CacheLookup(ctx, metrics.CacheMiss)
			ctx.ResponseWriter().Header().Set(HeaderCacheStatus, CacheStatusMiss)

			resp := next(ctx)
			if resp == nil {
				return nil
			}

			return func(w http.ResponseWriter, r *http.Request) error {
				rec := &captureWriter{ResponseWriter: w, limit: cfg.MaxBodySize}
				if err := resp(rec, r); err != nil {
					return err
				}

				if !rec.cacheable() {
					cfg.Metrics.CacheWrite(r.Context(), metrics.WriteSkipped)
					return nil
				}

				body := bytes.Clone(rec.body.Bytes())
				queued := cfg.Pool.Submit(func(context.Context) error {
					cfg.Manager.PutResponse(key, body)
					return nil
				})
				if !queued {
					cfg.Metrics.CacheWrite(r.Context(), metrics.WriteDropped)
					cfg.Logger.WarnContext(r.Context(), "response write-back dropped",
						logger.Component("cache"),
						logger.Key("cache_key", key),
					)
					return nil
				}
				cfg.Metrics.CacheWrite(r.Context(), metrics.WriteQueued)
				return nil
			}
		}
	}
}

// CacheKey returns "<principal|anon>:<path>:<raw query>".
func CacheKey(ctx handler.Context) string {
	return CacheKeyPrefix(ctx) + ctx.Request().URL.RawQuery
}

// CacheKeyPrefix returns the part of CacheKey shared by every query string of
// the request path. Use it with Manager.InvalidateResponsePrefix.
func CacheKeyPrefix(ctx handler.Context) string {
	owner := anonymousCacheKey
	if id, ok := GetPrincipal(ctx); ok {
		owner = strconv.FormatInt(id, 10)
	}
	return owner + ":" + ctx.Request().URL.Path + ":"
}

// captureWriter passes the response through while keeping a copy of the body
// up to limit bytes.
type captureWriter struct {
	http.ResponseWriter
	status   int
	body     bytes.Buffer
	limit    int
	overflow bool
}

func (c *captureWriter) WriteHeader(status int) {
	if c.status == 0 {
		c.status = status
	}
	c.ResponseWriter.WriteHeader(status)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	if !c.overflow {
		if c.body.Len()+len(b) > c.limit {
			c.overflow = true
			c.body.Reset()
		} else {
			c.body.Write(b)
		}
	}
	return c.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (c *captureWriter) Unwrap() http.ResponseWriter {
	return c.ResponseWriter
}

func (c *captureWriter) cacheable() bool {
	if c.overflow || c.status < 200 || c.status > 299 {
		return false
	}
	cc := strings.ToLower(c.Header().Get("Cache-Control"))
	return !strings.Contains(cc, "no-cache") && !strings.Contains(cc, "no-store")
}
