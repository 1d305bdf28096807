// Package middleware provides the request boundary of the service: identity
// resolution, admission control, response caching and request logging.
//
// Every middleware is generic over handler.Context, has a default constructor
// and a WithConfig variant, and accepts a Skip func in its config.
//
//	r := router.New[*router.Context](
//		router.WithErrorHandler(response.JSONErrorHandler[*router.Context]),
//	)
//	r.Use(
//		middleware.LoggingWithLogger[*router.Context](log),
//		middleware.RequestID[*router.Context](),
//		middleware.ClientIP[*router.Context](),
//		middleware.Principal[*router.Context](),
//		middleware.RateLimitWithConfig[*router.Context](middleware.RateLimitConfig{
//			Limiter: limiter,
//			Metrics: recorder,
//		}),
//		middleware.ResponseCacheWithConfig[*router.Context](middleware.ResponseCacheConfig{
//			Manager: cacheManager,
//			Pool:    writeback,
//			Metrics: recorder,
//		}),
//	)
//
// # Identity
//
// ClientIP stores the address resolved by pkg/clientip; GetClientIP reads it.
// Principal stores the authenticated principal ID; by default it trusts the
// X-Principal-ID header set by an authenticating proxy. Auth middleware can
// call SetPrincipal instead. GetPrincipal reads it.
//
// # Rate Limiting
//
// RateLimit checks the combined ceilings when both address and principal are
// known, otherwise whichever one is known, and admits requests with no
// identity. X-RateLimit-Limit and X-RateLimit-Remaining are always set; a
// denial answers 429 with Retry-After in whole seconds.
//
// # Response Cache
//
// ResponseCache serves GET bodies keyed by principal (or "anon"), path and
// query. Hits carry X-Cache-Status: HIT, misses MISS. Successful responses
// without no-cache or no-store are written back through an async.Pool, which
// drops the write when its queue is full.
//
// # Logging and Request IDs
//
// RequestID assigns a UUID per request. Logging writes one line per request,
// enriched with what the other middleware stored, so it belongs outermost.
package middleware
