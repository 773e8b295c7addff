package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/devilmonastery/fractal/internal/auth"
)

// Authenticator validates a raw bearer token
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.UserContext, error)
}

// BearerAuth rejects requests without a valid "Authorization: Bearer" token
// and stores the authenticated user in the request context otherwise.
type BearerAuth struct {
	authenticator Authenticator
	logger        *slog.Logger
}

// NewBearerAuth creates the bearer token middleware
func NewBearerAuth(authenticator Authenticator, logger *slog.Logger) *BearerAuth {
	return &BearerAuth{
		authenticator: authenticator,
		logger:        logger.With(slog.String("middleware", "auth")),
	}
}

// RequireAuth wraps next with the token check
func (m *BearerAuth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w)
			return
		}

		user, err := m.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			m.logger.Debug("rejected bearer token",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()))
			unauthorized(w)
			return
		}

		recordUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
	})
}

// bearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"detail": "Unauthorized"})
}
