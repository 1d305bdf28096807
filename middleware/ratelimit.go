package middleware

import (
	"context"
	"io"
	"log/slog"
	"strconv"

	"github.com/dmitrymomot/budgetguard/core/handler"
	"github.com/dmitrymomot/budgetguard/core/logger"
	"github.com/dmitrymomot/budgetguard/core/response"
	"github.com/dmitrymomot/budgetguard/pkg/metrics"
	"github.com/dmitrymomot/budgetguard/pkg/ratelimiter"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRetryAfter         = "Retry-After"
)

// RateLimitModePass labels requests admitted without a check because neither
// an address nor a principal is known.
const RateLimitModePass = "pass"

type rateLimitContextKey struct{}

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Limiter performs the admission checks (required)
	Limiter *ratelimiter.Limiter
	// Metrics counts verdicts per mode (optional)
	Metrics *metrics.Recorder
	// Logger receives a debug line per denial (default: discard)
	Logger *slog.Logger
	// ErrorHandler builds the denial response (default: 429 with retry_after and limit details)
	ErrorHandler func(ctx handler.Context, result ratelimiter.Result) handler.Response
}

// RateLimit creates a rate limiting middleware backed by limiter.
func RateLimit[C handler.Context](limiter *ratelimiter.Limiter) handler.Middleware[C] {
	return RateLimitWithConfig[C](RateLimitConfig{Limiter: limiter})
}

// RateLimitWithConfig picks the check from the identity known for the request:
//   - address and principal: Limiter.CheckCombined
//   - address only: Limiter.CheckAddr
//   - principal only: Limiter.CheckPrincipal
//   - neither: admitted with limit = remaining = the configured limit
//
// X-RateLimit-Limit and X-RateLimit-Remaining are set on every response,
// Retry-After (whole seconds, at least 1) on denials.
// Panics if no limiter is provided.
func RateLimitWithConfig[C handler.Context](cfg RateLimitConfig) handler.Middleware[C] {
	if cfg.Limiter == nil {
		panic("ratelimit middleware: limiter is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx handler.Context, result ratelimiter.Result) handler.Response {
			return response.Error(response.ErrTooManyRequests.WithDetails(map[string]any{
				"limit":       result.Limit,
				"retry_after": result.RetryAfterSeconds(),
			}))
		}
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			result, mode := check(ctx, cfg.Limiter)
			cfg.Metrics.RateLimitCheck(ctx, mode, result.Allowed)
			ctx.SetValue(rateLimitContextKey{}, result)

			// Set on the writer directly so they survive error rendering.
			h := ctx.ResponseWriter().Header()
			h.Set(HeaderRateLimitLimit, strconv.Itoa(result.Limit))
			h.Set(HeaderRateLimitRemaining, strconv.Itoa(max(0, result.Remaining)))

			if !result.Allowed {
				h.Set(HeaderRetryAfter, strconv.Itoa(result.RetryAfterSeconds()))
				cfg.Logger.DebugContext(ctx, "request rate limited",
					logger.Component("ratelimit"),
					logger.RateLimitKey(result.Key.String()),
					logger.Key("retry_after", result.RetryAfter),
				)
				return cfg.ErrorHandler(ctx, result)
			}

			return next(ctx)
		}
	}
}

func check(ctx handler.Context, limiter *ratelimiter.Limiter) (ratelimiter.Result, string) {
	addr, hasAddr := resolveClientIP(ctx)
	id, hasPrincipal := GetPrincipal(ctx)

	switch {
	case hasAddr && hasPrincipal:
		return limiter.CheckCombined(addr, id), ratelimiter.KindCombined.String()
	case hasAddr:
		return limiter.CheckAddr(addr), ratelimiter.KindAddr.String()
	case hasPrincipal:
		return limiter.CheckPrincipal(id), ratelimiter.KindPrincipal.String()
	default:
		limit := limiter.Limit()
		return ratelimiter.Result{Allowed: true, Limit: limit, Remaining: limit}, RateLimitModePass
	}
}

// GetRateLimitResult returns the verdict stored by RateLimit.
func GetRateLimitResult(ctx context.Context) (ratelimiter.Result, bool) {
	res, ok := ctx.Value(rateLimitContextKey{}).(ratelimiter.Result)
	return res, ok
}
