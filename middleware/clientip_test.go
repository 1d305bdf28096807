package middleware_test

import (
	"errors"
	"net/http"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/budgetguard/core/handler"
	"github.com/dmitrymomot/budgetguard/core/response"
	"github.com/dmitrymomot/budgetguard/core/router"
	"github.com/dmitrymomot/budgetguard/middleware"
)

func TestClientIP(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.ClientIP[*router.Context]())
	r.Get("/ip", func(ctx *router.Context) handler.Response {
		addr, ok := middleware.GetClientIP(ctx)
		if !ok {
			return response.String("none")
		}
		return response.String(addr.String())
	})

	w := do(r, http.MethodGet, "/ip", withHeader("X-Forwarded-For", "203.0.113.1, 10.0.0.1"), withRemoteAddr("192.0.2.1:1"))
	assert.Equal(t, "203.0.113.1", w.Body.String())

	w = do(r, http.MethodGet, "/ip", withRemoteAddr("192.0.2.1:1"))
	assert.Equal(t, "192.0.2.1", w.Body.String())

	w = do(r, http.MethodGet, "/ip")
	assert.Equal(t, "none", w.Body.String())
}

func TestClientIPWithConfig(t *testing.T) {
	t.Parallel()

	blocked := netip.MustParseAddr("198.51.100.66")
	r := router.New[*router.Context](router.WithErrorHandler(response.JSONErrorHandler[*router.Context]))
	r.Use(middleware.ClientIPWithConfig[*router.Context](middleware.ClientIPConfig{
		StoreInHeader: true,
		ValidateFunc: func(ctx handler.Context, addr netip.Addr) error {
			if addr == blocked {
				return errors.New("address blocked")
			}
			return nil
		},
	}))
	r.Get("/", func(ctx *router.Context) handler.Response { return response.String("ok") })

	w := do(r, http.MethodGet, "/", withHeader("X-Real-IP", "198.51.100.7"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "198.51.100.7", w.Header().Get("X-Client-IP"))

	w = do(r, http.MethodGet, "/", withHeader("X-Real-IP", blocked.String()))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "address blocked")
}
