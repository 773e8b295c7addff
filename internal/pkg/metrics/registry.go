package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Repository Metrics
var (
	// RepoOperations tracks user directory and job registry operations
	RepoOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fractal_repo_operations_total",
			Help: "Total repository operations by repository, operation, and status",
		},
		[]string{"repo", "operation", "status"},
	)

	// RepoDuration tracks repository operation latency
	RepoDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "fractal_repo_operation_duration_ms",
			Help:                            "Repository operation duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"repo", "operation"},
	)
)

// Client (CLI gateway) Metrics
var (
	// ClientRequests tracks outgoing requests made through the gateway transport
	ClientRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fractal_client_requests_total",
			Help: "Total outgoing client requests by method, route (normalized path), and status code",
		},
		[]string{"method", "route", "status_code"},
	)

	// ClientDuration tracks outgoing request latency
	ClientDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "fractal_client_request_duration_ms",
			Help:                            "Outgoing client request duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "route"},
	)

	// ClientErrors tracks failed outgoing requests
	ClientErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fractal_client_errors_total",
			Help: "Total failed outgoing client requests by route and error type",
		},
		[]string{"route", "error_type"},
	)

	// TokenRefreshes tracks login exchanges performed by the token manager
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fractal_client_token_refreshes_total",
			Help: "Total login exchanges performed to refresh the bearer token, by result",
		},
		[]string{"result"},
	)
)

// HTTP Server Metrics
var (
	// HTTPRequests tracks HTTP requests
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fractal_http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration tracks HTTP request duration
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "fractal_http_request_duration_ms",
			Help:                            "HTTP request duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "route"},
	)

	// HTTPActiveRequests tracks active HTTP requests
	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fractal_http_active_requests",
			Help: "Number of active HTTP requests",
		},
	)
)

// Auth Metrics
var (
	// LoginAttempts tracks login exchanges served, by outcome
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fractal_auth_logins_total",
			Help: "Total login exchanges served by the server, by result",
		},
		[]string{"result"},
	)

	// TokensIssued tracks JWTs signed by the server
	TokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fractal_auth_tokens_issued_total",
			Help: "Total bearer tokens issued",
		},
	)
)

// Workflow Dispatcher Metrics
var (
	// JobsSubmitted tracks workflow submissions handed to the runner
	JobsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fractal_jobs_submitted_total",
			Help: "Total workflow jobs submitted to the runner",
		},
	)

	// JobsFinished tracks runner completions by status
	JobsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fractal_jobs_finished_total",
			Help: "Total workflow jobs finished by the runner, by status",
		},
		[]string{"status"},
	)

	// JobsRunning tracks jobs currently executing in the background
	JobsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fractal_jobs_running",
			Help: "Number of workflow jobs currently running",
		},
	)
)
