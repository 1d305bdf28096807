package response_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/budgetguard/core/handler"
	"github.com/dmitrymomot/budgetguard/core/response"
	"github.com/dmitrymomot/budgetguard/core/router"
)

type statusErr struct{ status int }

func (e statusErr) Error() string   { return "status error" }
func (e statusErr) StatusCode() int { return e.status }

func render(t *testing.T, resp handler.Response) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	require.NoError(t, resp(w, httptest.NewRequest(http.MethodGet, "/", nil)))
	return w
}

func TestBaseResponses(t *testing.T) {
	t.Parallel()

	w := render(t, response.String("hello"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "hello", w.Body.String())

	w = render(t, response.BytesWithStatus([]byte("{}"), "application/json", http.StatusAccepted))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	w = render(t, response.BytesWithStatus(nil, "", 0))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	assert.Equal(t, http.StatusNoContent, render(t, response.NoContent()).Code)
	assert.Equal(t, http.StatusOK, render(t, response.Status(0)).Code)
}

func TestJSONWithStatus(t *testing.T) {
	t.Parallel()

	w := render(t, response.JSON(map[string]int{"spent": 10}))
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"spent":10}`, w.Body.String())

	w = render(t, response.JSONWithStatus(nil, 0))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = render(t, response.JSONWithStatus(map[string]string{"a": "b"}, http.StatusCreated))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestDecorators(t *testing.T) {
	t.Parallel()

	w := render(t, response.WithHeaders(response.String("x"), map[string]string{"X-Test": "1"}))
	assert.Equal(t, "1", w.Header().Get("X-Test"))

	w = render(t, response.WithCache(response.String("x"), time.Minute))
	assert.Equal(t, "private, max-age=60", w.Header().Get("Cache-Control"))

	w = render(t, response.WithCache(response.String("x"), 0))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")

	assert.Nil(t, response.WithCache(nil, time.Minute))
}

func TestHTTPErrorDetails(t *testing.T) {
	t.Parallel()

	base := response.ErrTooManyRequests
	withLimit := base.WithDetails(map[string]any{"limit": 5})
	withBoth := withLimit.WithDetails(map[string]any{"retry_after": 1})

	assert.Nil(t, base.Details)
	assert.Len(t, withLimit.Details, 1)
	assert.Equal(t, map[string]any{"limit": 5, "retry_after": 1}, withBoth.Details)
	assert.Equal(t, http.StatusTooManyRequests, withBoth.StatusCode())
	assert.Equal(t, "Too Many Requests", withBoth.Error())
}

func TestJSONErrorHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantCause  bool
	}{
		{"http error", response.ErrBadRequest.WithMessage("bad input"), http.StatusBadRequest, "bad_request", false},
		{"wrapped http error", errors.Join(errors.New("ctx"), response.ErrConflict), http.StatusConflict, "conflict", false},
		{"status code error", statusErr{status: http.StatusNotFound}, http.StatusNotFound, "not_found", true},
		{"router not found", router.ErrNotFound, http.StatusNotFound, "not_found", true},
		{"unknown status", statusErr{status: http.StatusTeapot}, http.StatusInternalServerError, "internal_server_error", false},
		{"plain error", errors.New("db down"), http.StatusInternalServerError, "internal_server_error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := router.New[*router.Context](router.WithErrorHandler(response.JSONErrorHandler[*router.Context]))
			r.Get("/", func(ctx *router.Context) handler.Response { return response.Error(tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var body response.HTTPError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			_, hasCause := body.Details["cause"]
			assert.Equal(t, tt.wantCause, hasCause)
		})
	}
}

func TestErrorHandlerDoesNotOverwrite(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context](router.WithErrorHandler(response.ErrorHandler[*router.Context]))
	r.Get("/", func(ctx *router.Context) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusAccepted)
			return errors.New("late failure")
		}
	})
	r.Get("/plain", func(ctx *router.Context) handler.Response {
		return response.Error(response.ErrForbidden)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Forbidden", w.Body.String())
}
