package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/devilmonastery/fractal/internal/auth"
	"github.com/devilmonastery/fractal/internal/config"
	"github.com/devilmonastery/fractal/internal/infrastructure/memory"
)

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newTestAuthService(t *testing.T) (*AuthService, *auth.JWTManager) {
	t.Helper()
	inactive := false
	users := memory.NewUserRepository([]config.UserConfig{
		{ID: "1", Email: "test@fake-exact-lab.it", PasswordHash: hash(t, "password")},
		{ID: "2", Email: "admin@fake-exact-lab.it", PasswordHash: hash(t, "admin"), Superuser: true},
		{ID: "3", Email: "gone@fake-exact-lab.it", PasswordHash: hash(t, "gone"), Active: &inactive},
	})
	jwtManager := auth.NewJWTManager("secret_key", time.Hour)
	return NewAuthService(users, jwtManager), jwtManager
}

func TestLogin(t *testing.T) {
	svc, jwtManager := newTestAuthService(t)

	issued, err := svc.Login(context.Background(), "TEST@fake-exact-lab.it", "password")
	require.NoError(t, err)
	assert.Equal(t, "bearer", issued.TokenType)
	assert.Equal(t, "1", issued.User.ID)

	claims, err := jwtManager.ValidateToken(issued.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.UserID)
	assert.Equal(t, "test@fake-exact-lab.it", claims.Email)
}

func TestLogin_Failures(t *testing.T) {
	svc, _ := newTestAuthService(t)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{name: "unknown user", email: "nobody@example.com", password: "password", want: ErrBadCredentials},
		{name: "wrong password", email: "test@fake-exact-lab.it", password: "nope", want: ErrBadCredentials},
		{name: "inactive user", email: "gone@fake-exact-lab.it", password: "gone", want: ErrUserInactive},
		{name: "inactive user wrong password", email: "gone@fake-exact-lab.it", password: "nope", want: ErrBadCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	svc, jwtManager := newTestAuthService(t)
	ctx := context.Background()

	issued, err := svc.Login(ctx, "admin@fake-exact-lab.it", "admin")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, issued.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "2", user.UserID)
	assert.True(t, user.Superuser)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// A validly signed token for a user missing from the directory
	orphan, _, err := jwtManager.GenerateToken("42", "ghost@example.com", false)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, orphan)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	// ... and for a disabled one
	disabled, _, err := jwtManager.GenerateToken("3", "gone@fake-exact-lab.it", false)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, disabled)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestCurrentUserAndListUsers(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.CurrentUser(context.Background())
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	userCtx := auth.SetUserInContext(context.Background(), &auth.UserContext{UserID: "1"})
	me, err := svc.CurrentUser(userCtx)
	require.NoError(t, err)
	assert.Equal(t, "test@fake-exact-lab.it", me.Email)

	_, err = svc.ListUsers(userCtx)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	adminCtx := auth.SetUserInContext(context.Background(), &auth.UserContext{UserID: "2", Superuser: true})
	users, err := svc.ListUsers(adminCtx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestGetUserLookupFailureReason(t *testing.T) {
	assert.Equal(t, "bad_password", GetUserLookupFailureReason(ErrBadCredentials))
	assert.Equal(t, "user_inactive", GetUserLookupFailureReason(ErrUserInactive))
	assert.Equal(t, "user_lookup_failed", GetUserLookupFailureReason(assert.AnError))
}
