package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/devilmonastery/fractal/internal/auth"
	"github.com/devilmonastery/fractal/internal/domain/entities"
	"github.com/devilmonastery/fractal/internal/domain/repositories"
	"github.com/devilmonastery/fractal/internal/pkg/metrics"
)

// IssuedToken is the outcome of a successful login exchange
type IssuedToken struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        *entities.User
}

// AuthService provides business logic for the login exchange
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtManager *auth.JWTManager
	log        *slog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repositories.UserRepository, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		log:        slog.Default().With(slog.String("service", "auth")),
	}
}

// Login verifies the credentials and signs a bearer token. Unknown users and
// wrong passwords both yield ErrBadCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*IssuedToken, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		reason := GetUserLookupFailureReason(err)
		metrics.LoginAttempts.WithLabelValues(reason).Inc()
		if IsUserNotFound(err) {
			s.log.Info("login rejected", slog.String("email", email), slog.String("reason", reason))
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.VerifyPassword(password) {
		metrics.LoginAttempts.WithLabelValues(GetUserLookupFailureReason(ErrBadCredentials)).Inc()
		s.log.Info("login rejected", slog.String("email", email), slog.String("reason", "bad_password"))
		return nil, ErrBadCredentials
	}

	if !user.Active() {
		metrics.LoginAttempts.WithLabelValues(GetUserLookupFailureReason(ErrUserInactive)).Inc()
		s.log.Info("login rejected", slog.String("email", email), slog.String("reason", "user_inactive"))
		return nil, ErrUserInactive
	}

	token, expiresAt, err := s.jwtManager.GenerateToken(user.ID, user.Email, user.IsSuperuser)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	metrics.TokensIssued.Inc()
	s.log.Info("token issued",
		slog.String("user_id", user.ID),
		slog.Time("expires_at", expiresAt))

	return &IssuedToken{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

// Authenticate validates a bearer token and returns the request user
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.UserContext, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	// Tokens of users removed or disabled since issue stop working
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrUnauthorized, err)
	}
	if !user.Active() {
		return nil, fmt.Errorf("%w: %v", auth.ErrUnauthorized, ErrUserInactive)
	}

	return auth.UserFromClaims(claims), nil
}

// CurrentUser returns the directory entry of the authenticated user
func (s *AuthService) CurrentUser(ctx context.Context) (*entities.User, error) {
	uc, err := auth.GetUserFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, uc.UserID)
}

// ListUsers returns the user directory; superusers only
func (s *AuthService) ListUsers(ctx context.Context) ([]*entities.User, error) {
	if err := auth.RequireSuperuser(ctx); err != nil {
		return nil, err
	}
	return s.userRepo.List(ctx)
}
