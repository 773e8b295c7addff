package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/devilmonastery/fractal/internal/auth"
	"github.com/devilmonastery/fractal/internal/pkg/logger"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	written     int64
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// LogRequest logs every request with its outcome. Liveness probes and
// metric scrapes are logged at debug level only.
func LogRequest(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			// The auth middleware runs further in; it records the user here
			holder := &userHolder{}
			next.ServeHTTP(wrapped, r.WithContext(withUserHolder(r.Context(), holder)))

			// Get real IP (consider X-Forwarded-For if behind proxy)
			clientIP := r.RemoteAddr
			if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
				clientIP = forwarded
			} else if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
				clientIP = realIP
			}

			reqLog := logger.WithHTTPRequest(log, r.Method, r.URL.Path)
			reqLog = logger.WithDuration(reqLog, time.Since(start))
			if user := holder.user; user != nil {
				reqLog = logger.WithUser(reqLog, user.Email)
			}

			attrs := []any{
				slog.Int("status", wrapped.statusCode),
				slog.Int64("bytes", wrapped.written),
				slog.String("request_id", RequestIDFromContext(r.Context())),
				slog.String("client_ip", clientIP),
				slog.String("user_agent", r.UserAgent()),
			}

			switch {
			case wrapped.statusCode >= 500:
				reqLog.Error("request", attrs...)
			case wrapped.statusCode >= 400:
				reqLog.Warn("request", attrs...)
			case isNoisePath(r.URL.Path):
				reqLog.Debug("request", attrs...)
			default:
				reqLog.Info("request", attrs...)
			}
		})
	}
}

func isNoisePath(path string) bool {
	return path == "/api/alive/" || path == "/metrics"
}

// userHolder lets inner middleware report the authenticated user outward
type userHolder struct {
	user *auth.UserContext
}

type holderKey struct{}

func withUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

// recordUser hands the authenticated user to an enclosing LogRequest
func recordUser(ctx context.Context, user *auth.UserContext) {
	if h, ok := ctx.Value(holderKey{}).(*userHolder); ok {
		h.user = user
	}
}
