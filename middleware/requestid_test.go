package middleware_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/budgetguard/core/handler"
	"github.com/dmitrymomot/budgetguard/core/response"
	"github.com/dmitrymomot/budgetguard/core/router"
	"github.com/dmitrymomot/budgetguard/middleware"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	r := router.New[*router.Context]()
	r.Use(middleware.RequestID[*router.Context]())
	r.Get("/", func(ctx *router.Context) handler.Response {
		seen, _ = middleware.GetRequestID(ctx)
		return response.String("ok")
	})

	w := do(r, http.MethodGet, "/", withHeader("X-Request-ID", "client-supplied"))
	id := w.Header().Get("X-Request-ID")
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, seen)
}

func TestRequestIDWithConfig(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(middleware.RequestIDWithConfig[*router.Context](middleware.RequestIDConfig{
		HeaderName:  "X-Trace-ID",
		UseExisting: true,
		Generator:   func() string { return "generated" },
	}))
	r.Get("/", func(ctx *router.Context) handler.Response {
		return response.Error(response.ErrConflict)
	})

	w := do(r, http.MethodGet, "/", withHeader("X-Trace-ID", "upstream"))
	assert.Equal(t, "upstream", w.Header().Get("X-Trace-ID"))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, "/")
	assert.Equal(t, "generated", w.Header().Get("X-Trace-ID"))
}
