package client

import (
	"net/http"
	"time"

	"github.com/devilmonastery/fractal/internal/pkg/metrics"
)

// metricsTransport wraps an http.RoundTripper to collect metrics on every
// request issued by the gateway, including the login exchange.
type metricsTransport struct {
	base http.RoundTripper
}

// newMetricsTransport wraps base; a nil base uses http.DefaultTransport
func newMetricsTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &metricsTransport{base: base}
}

// RoundTrip implements http.RoundTripper
func (t *metricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}

	metrics.RecordClientRequest(req.Method, metrics.NormalizeRoute(req.URL.Path), statusCode, duration, err)
	return resp, err
}
