package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HTTPObserver records one finished request. *metrics.Metrics implements it.
type HTTPObserver interface {
	ObserveHTTP(method, endpoint string, status int, elapsed time.Duration)
}

// Metrics returns a middleware that reports every request to obs.
//
// The endpoint label is chi's route pattern ("/github-data"), not the raw
// path, so query strings and unknown URLs cannot blow up label cardinality.
// Requests that matched no route are reported as "unmatched".
func Metrics(obs HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newStatusRecorder(w)

			next.ServeHTTP(wrapped, r)

			endpoint := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					endpoint = p
				}
			}
			obs.ObserveHTTP(r.Method, endpoint, wrapped.statusCode, time.Since(start))
		})
	}
}
