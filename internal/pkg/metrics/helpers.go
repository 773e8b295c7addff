package metrics

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var numericSegment = regexp.MustCompile(`/\d+`)

// NormalizeRoute replaces numeric path segments with ":id" so that
// per-resource URLs do not explode metric cardinality.
// "/api/v1/project/12/3" -> "/api/v1/project/:id/:id"
func NormalizeRoute(path string) string {
	if path == "" {
		return "/"
	}
	return numericSegment.ReplaceAllString(path, "/:id")
}

// RecordRepoOperation records a repository operation consistently
func RecordRepoOperation(repo, operation string, duration time.Duration, err error) {
	RepoDuration.WithLabelValues(repo, operation).Observe(float64(duration.Milliseconds()))

	status := "success"
	if err != nil {
		status = "error"
	}
	RepoOperations.WithLabelValues(repo, operation, status).Inc()
}

// RecordHTTPRequest records a served HTTP request consistently
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(float64(duration.Milliseconds()))
}

// RecordClientRequest records an outgoing request made through the gateway.
// statusCode is 0 when the transport failed before a response arrived.
func RecordClientRequest(method, route string, statusCode int, duration time.Duration, err error) {
	ClientRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	ClientDuration.WithLabelValues(method, route).Observe(float64(duration.Milliseconds()))

	if err != nil || statusCode >= 400 {
		ClientErrors.WithLabelValues(route, ClassifyHTTPError(statusCode, err)).Inc()
	}
}

// ClassifyHTTPError categorizes request failures for metrics
func ClassifyHTTPError(statusCode int, err error) string {
	if err != nil {
		errStr := strings.ToLower(err.Error())
		switch {
		case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
			return "timeout"
		case strings.Contains(errStr, "connection"):
			return "connection"
		case strings.Contains(errStr, "tls"):
			return "tls"
		default:
			return "network"
		}
	}

	switch {
	case statusCode == 400:
		return "bad_request"
	case statusCode == 401:
		return "unauthorized"
	case statusCode == 403:
		return "forbidden"
	case statusCode == 404:
		return "not_found"
	case statusCode == 422:
		return "unprocessable"
	case statusCode >= 500:
		return "server_error"
	case statusCode >= 400:
		return "client_error"
	default:
		return "unknown"
	}
}
