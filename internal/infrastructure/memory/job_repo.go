package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/devilmonastery/fractal/internal/domain/entities"
	"github.com/devilmonastery/fractal/internal/domain/repositories"
	"github.com/devilmonastery/fractal/internal/pkg/metrics"
)

// JobRepository keeps submitted jobs in process memory. Jobs do not survive
// a restart.
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[int64]*entities.Job
	log  *slog.Logger
}

// NewJobRepository creates an empty job registry
func NewJobRepository() *JobRepository {
	return &JobRepository{
		jobs: make(map[int64]*entities.Job),
		log:  slog.Default().With(slog.String("repo", "job")),
	}
}

// Create stores a new job
func (r *JobRepository) Create(ctx context.Context, job *entities.Job) error {
	start := time.Now()
	var err error
	defer func() {
		metrics.RecordRepoOperation("job", "create", time.Since(start), err)
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		err = repositories.ErrJobExists
		return err
	}
	r.jobs[job.ID] = copyJob(job)

	r.log.Debug("job created",
		slog.Int64("id", job.ID),
		slog.String("user_id", job.UserID))
	return nil
}

// GetByID retrieves a job
func (r *JobRepository) GetByID(ctx context.Context, id int64) (*entities.Job, error) {
	start := time.Now()
	var err error
	defer func() {
		metrics.RecordRepoOperation("job", "get_by_id", time.Since(start), err)
	}()

	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		err = repositories.ErrJobNotFound
		return nil, err
	}
	return copyJob(job), nil
}

// Update replaces a stored job
func (r *JobRepository) Update(ctx context.Context, job *entities.Job) error {
	start := time.Now()
	var err error
	defer func() {
		metrics.RecordRepoOperation("job", "update", time.Since(start), err)
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; !ok {
		err = repositories.ErrJobNotFound
		return err
	}
	r.jobs[job.ID] = copyJob(job)
	return nil
}

// ListByUser returns a user's jobs, oldest first
func (r *JobRepository) ListByUser(ctx context.Context, userID string) ([]*entities.Job, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepoOperation("job", "list_by_user", time.Since(start), nil)
	}()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entities.Job
	for _, j := range r.jobs {
		if j.UserID == userID {
			out = append(out, copyJob(j))
		}
	}
	sort.Slice(out, func(i, k int) bool {
		return out[i].ID < out[k].ID
	})
	return out, nil
}

func copyJob(j *entities.Job) *entities.Job {
	c := *j
	if j.Log != nil {
		log := *j.Log
		c.Log = &log
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}
