package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/fractal/internal/pkg/metrics"
)

// Metrics records request counts and latency per route. It must run inside
// the router so the matched route template is available.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.HTTPActiveRequests.Inc()
		defer metrics.HTTPActiveRequests.Dec()

		wrapped := wrapResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		metrics.RecordHTTPRequest(r.Method, routeLabel(r), wrapped.statusCode, time.Since(start))
	})
}

// routeLabel prefers the route template ("/api/v1/job/{job_id}") and falls
// back to the normalized path
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return metrics.NormalizeRoute(r.URL.Path)
}
