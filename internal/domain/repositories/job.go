package repositories

import (
	"context"

	"github.com/devilmonastery/fractal/internal/domain/entities"
)

// JobRepository tracks submitted workflow jobs
type JobRepository interface {
	// Create stores a new job
	Create(ctx context.Context, job *entities.Job) error

	// GetByID retrieves a job; a copy is returned
	GetByID(ctx context.Context, id int64) (*entities.Job, error)

	// Update replaces a stored job
	Update(ctx context.Context, job *entities.Job) error

	// ListByUser returns a user's jobs, oldest first
	ListByUser(ctx context.Context, userID string) ([]*entities.Job, error)
}
