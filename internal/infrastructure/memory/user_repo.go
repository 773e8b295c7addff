package memory

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/devilmonastery/fractal/internal/config"
	"github.com/devilmonastery/fractal/internal/domain/entities"
	"github.com/devilmonastery/fractal/internal/domain/repositories"
	"github.com/devilmonastery/fractal/internal/pkg/metrics"
)

// UserRepository serves the static user directory from the server config.
// It is read-only and safe for concurrent use.
type UserRepository struct {
	users   []*entities.User
	byEmail map[string]*entities.User
	byID    map[string]*entities.User
	log     *slog.Logger
}

// NewUserRepository builds the directory from configured users
func NewUserRepository(users []config.UserConfig) repositories.UserRepository {
	r := &UserRepository{
		byEmail: make(map[string]*entities.User, len(users)),
		byID:    make(map[string]*entities.User, len(users)),
		log:     slog.Default().With(slog.String("repo", "user")),
	}

	for _, u := range users {
		user := userFromConfig(u)
		r.users = append(r.users, user)
		r.byEmail[normalizeEmail(user.Email)] = user
		r.byID[user.ID] = user
	}

	r.log.Debug("user directory loaded", slog.Int("users", len(r.users)))
	return r
}

func userFromConfig(u config.UserConfig) *entities.User {
	hash := u.PasswordHash
	return &entities.User{
		ID:           u.ID,
		Email:        strings.TrimSpace(u.Email),
		PasswordHash: &hash,
		IsActive:     u.IsActive(),
		IsSuperuser:  u.Superuser,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetByID retrieves a user by their ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	start := time.Now()
	var err error
	defer func() {
		metrics.RecordRepoOperation("user", "get_by_id", time.Since(start), err)
	}()

	user, ok := r.byID[id]
	if !ok {
		err = repositories.ErrUserNotFound
		return nil, err
	}
	return copyUser(user), nil
}

// GetByEmail retrieves a user by their email address
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	start := time.Now()
	var err error
	defer func() {
		metrics.RecordRepoOperation("user", "get_by_email", time.Since(start), err)
	}()

	user, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		r.log.Debug("user not found", slog.String("email", email))
		err = repositories.ErrUserNotFound
		return nil, err
	}
	return copyUser(user), nil
}

// List returns every user in directory order
func (r *UserRepository) List(ctx context.Context) ([]*entities.User, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepoOperation("user", "list", time.Since(start), nil)
	}()

	out := make([]*entities.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, copyUser(u))
	}
	return out, nil
}

func copyUser(u *entities.User) *entities.User {
	c := *u
	return &c
}
