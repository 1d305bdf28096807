package response

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrymomot/budgetguard/core/handler"
)

// WithHeaders sets headers before the wrapped response renders.
func WithHeaders(response handler.Response, headers map[string]string) handler.Response {
	if response == nil || len(headers) == 0 {
		return response
	}
	return func(w http.ResponseWriter, r *http.Request) error {
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		return response(w, r)
	}
}

// WithCache sets Cache-Control before the wrapped response renders.
// maxAge > 0 allows caching for that long. Anything else marks the response
// no-store, which also keeps it out of the response cache.
func WithCache(response handler.Response, maxAge time.Duration) handler.Response {
	if response == nil {
		return nil
	}
	return func(w http.ResponseWriter, r *http.Request) error {
		if maxAge > 0 {
			w.Header().Set("Cache-Control", fmt.Sprintf("private, max-age=%d", int(maxAge.Seconds())))
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		return response(w, r)
	}
}
