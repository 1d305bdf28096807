package middleware

import (
	"context"
	"strconv"
	"strings"

	"github.com/dmitrymomot/budgetguard/core/handler"
	"github.com/dmitrymomot/budgetguard/core/response"
)

type principalContextKey struct{}

// DefaultPrincipalHeader carries the authenticated principal ID set by a
// trusted authentication layer in front of this service.
const DefaultPrincipalHeader = "X-Principal-ID"

// PrincipalConfig configures the principal middleware.
type PrincipalConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Extractor returns the authenticated principal, if any
	// (default: parse DefaultPrincipalHeader as a base-10 int64)
	Extractor func(ctx handler.Context) (int64, bool)
	// Required rejects anonymous requests with 401
	Required bool
}

// Principal stores the principal from the X-Principal-ID header.
func Principal[C handler.Context]() handler.Middleware[C] {
	return PrincipalWithConfig[C](PrincipalConfig{})
}

// PrincipalWithConfig stores the principal returned by cfg.Extractor.
// Anonymous requests pass through unless Required is set.
func PrincipalWithConfig[C handler.Context](cfg PrincipalConfig) handler.Middleware[C] {
	if cfg.Extractor == nil {
		cfg.Extractor = PrincipalFromHeader(DefaultPrincipalHeader)
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			id, ok := cfg.Extractor(ctx)
			if ok {
				SetPrincipal(ctx, id)
			} else if cfg.Required {
				return response.Error(response.ErrUnauthorized)
			}

			return next(ctx)
		}
	}
}

// PrincipalFromHeader returns an extractor that parses header as an int64 ID.
// Missing or malformed values mean anonymous.
func PrincipalFromHeader(header string) func(ctx handler.Context) (int64, bool) {
	return func(ctx handler.Context) (int64, bool) {
		raw := strings.TrimSpace(ctx.Request().Header.Get(header))
		if raw == "" {
			return 0, false
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	}
}

// SetPrincipal stores an authenticated principal on the request. Auth
// middleware can call it directly instead of using Principal.
func SetPrincipal(ctx handler.Context, id int64) {
	ctx.SetValue(principalContextKey{}, id)
}

// GetPrincipal returns the principal stored on the request.
func GetPrincipal(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(principalContextKey{}).(int64)
	return id, ok
}
