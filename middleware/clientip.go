package middleware

import (
	"context"
	"net/http"
	"net/netip"

	"github.com/dmitrymomot/budgetguard/core/handler"
	"github.com/dmitrymomot/budgetguard/core/response"
	"github.com/dmitrymomot/budgetguard/pkg/clientip"
)

type clientIPContextKey struct{}

// ClientIPConfig configures the client IP extraction middleware.
type ClientIPConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// HeaderName is the response header used when StoreInHeader is set (default: "X-Client-IP")
	HeaderName string
	// StoreInHeader echoes the resolved address in the response
	StoreInHeader bool
	// ValidateFunc rejects a request with 403 when it returns an error.
	// It is not called when no address could be resolved.
	ValidateFunc func(ctx handler.Context, addr netip.Addr) error
}

// ClientIP resolves the client address and stores it in the request context.
func ClientIP[C handler.Context]() handler.Middleware[C] {
	return ClientIPWithConfig[C](ClientIPConfig{})
}

// ClientIPWithConfig resolves the client address with clientip.GetIP. A
// request with no resolvable address passes through with nothing stored.
func ClientIPWithConfig[C handler.Context](cfg ClientIPConfig) handler.Middleware[C] {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Client-IP"
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			addr, ok := clientip.GetIP(ctx.Request())
			if !ok {
				return next(ctx)
			}

			ctx.SetValue(clientIPContextKey{}, addr)

			if cfg.ValidateFunc != nil {
				if err := cfg.ValidateFunc(ctx, addr); err != nil {
					return response.Error(response.ErrForbidden.WithError(err))
				}
			}

			resp := next(ctx)
			if !cfg.StoreInHeader || resp == nil {
				return resp
			}
			return func(w http.ResponseWriter, r *http.Request) error {
				w.Header().Set(cfg.HeaderName, addr.String())
				return resp(w, r)
			}
		}
	}
}

// GetClientIP returns the address stored by ClientIP.
func GetClientIP(ctx context.Context) (netip.Addr, bool) {
	addr, ok := ctx.Value(clientIPContextKey{}).(netip.Addr)
	return addr, ok && addr.IsValid()
}

// resolveClientIP prefers the stored address and falls back to resolving it
// from the request, so limiter and cache work without ClientIP in the chain.
func resolveClientIP(ctx handler.Context) (netip.Addr, bool) {
	if addr, ok := GetClientIP(ctx); ok {
		return addr, true
	}
	return clientip.GetIP(ctx.Request())
}
