package repositories

import (
	"context"

	"github.com/devilmonastery/fractal/internal/domain/entities"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by their ID
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByEmail retrieves a user by their email address (case-insensitive)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// List returns every user in directory order
	List(ctx context.Context) ([]*entities.User, error)
}
