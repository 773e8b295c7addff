package auth

import (
	"context"
	"errors"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// UserContext contains authenticated user information
type UserContext struct {
	UserID    string
	Email     string
	Superuser bool
	TokenID   string
}

// UserFromClaims builds the request user out of validated token claims
func UserFromClaims(c *Claims) *UserContext {
	return &UserContext{
		UserID:    c.UserID,
		Email:     c.Email,
		Superuser: c.Superuser,
		TokenID:   c.ID,
	}
}

// contextKey is the key for storing user info in context
type contextKey string

const userContextKey contextKey = "user"

// GetUserFromContext extracts the authenticated user from the context
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// SetUserInContext stores the authenticated user in the context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// RequireSuperuser checks if the user is a superuser
func RequireSuperuser(ctx context.Context) error {
	user, err := GetUserFromContext(ctx)
	if err != nil {
		return err
	}

	if !user.Superuser {
		return ErrForbidden
	}

	return nil
}
