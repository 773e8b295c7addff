package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/devilmonastery/fractal/internal/domain/entities"
	"github.com/devilmonastery/fractal/internal/domain/repositories"
	"github.com/devilmonastery/fractal/internal/pkg/idgen"
	"github.com/devilmonastery/fractal/internal/pkg/metrics"
)

// Runner executes a submitted workflow. It returns the run log; a non-nil
// error marks the job failed.
type Runner interface {
	Run(ctx context.Context, job *entities.Job) (log string, err error)
}

// LogRunner records the submission in the log and reports success. It stands
// in for the external workflow executor.
type LogRunner struct {
	log *slog.Logger
}

// NewLogRunner creates the default runner
func NewLogRunner() *LogRunner {
	return &LogRunner{log: slog.Default().With(slog.String("component", "runner"))}
}

// Run implements Runner
func (r *LogRunner) Run(ctx context.Context, job *entities.Job) (string, error) {
	r.log.Info("workflow submitted to runner",
		slog.Int64("job_id", job.ID),
		slog.Int64("project_id", job.ProjectID),
		slog.Int64("input_dataset_id", job.InputDatasetID),
		slog.Int64("workflow_id", job.WorkflowID))
	return "", nil
}

// Dispatcher hands ApplyWorkflow requests to a Runner in the background.
// A fixed pool of workers takes jobs from a FIFO queue, so jobs start in
// submission order and at most `workers` run at once.
type Dispatcher struct {
	runner Runner
	jobs   repositories.JobRepository
	now    func() time.Time
	log    *slog.Logger

	mu      sync.Mutex
	closed  bool
	pending []*entities.Job
	wake    chan struct{}

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewDispatcher creates a dispatcher and starts its workers; workers below 1
// is treated as 1. Shutdown stops them.
func NewDispatcher(runner Runner, jobs repositories.JobRepository, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		runner: runner,
		jobs:   jobs,
		now:    time.Now,
		log:    slog.Default().With(slog.String("component", "dispatcher")),
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

// Submit records a job and starts it in the background. It returns as soon
// as the job is recorded; the request context does not bound the run.
func (d *Dispatcher) Submit(ctx context.Context, req entities.ApplyWorkflow) (*entities.Job, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDispatcherClosed
	}

	job := entities.NewJob(idgen.GenerateJobID(), req, d.now())
	if err := d.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to record job: %w", err)
	}

	metrics.JobsSubmitted.Inc()
	d.log.Info("job submitted",
		slog.Int64("job_id", job.ID),
		slog.String("user_id", job.UserID),
		slog.Int64("workflow_id", job.WorkflowID))

	// The background run works on its own copy
	queued := *job
	d.pending = append(d.pending, &queued)
	d.signal()

	return job, nil
}

// Job returns a job owned by userID. Jobs of other users read as not found.
func (d *Dispatcher) Job(ctx context.Context, userID string, id int64) (*entities.Job, error) {
	job, err := d.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, repositories.ErrJobNotFound
	}
	return job, nil
}

// Jobs lists the jobs owned by userID
func (d *Dispatcher) Jobs(ctx context.Context, userID string) ([]*entities.Job, error) {
	return d.jobs.ListByUser(ctx, userID)
}

// Shutdown stops accepting jobs, fails the queued ones, cancels running ones
// and waits for the workers until ctx expires.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.cancel()
	queued := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, job := range queued {
		d.finish(job, entities.JobStatusFailed, "dispatcher shut down before the job started")
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// signal wakes one idle worker; a pending wakeup is never lost
func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for {
		job, ok := d.next()
		if !ok {
			return
		}
		d.run(job)
	}
}

// next blocks until the oldest queued job is available or the dispatcher
// shuts down
func (d *Dispatcher) next() (*entities.Job, bool) {
	for {
		d.mu.Lock()
		if d.ctx.Err() != nil {
			d.mu.Unlock()
			return nil, false
		}
		if len(d.pending) > 0 {
			job := d.pending[0]
			d.pending[0] = nil
			d.pending = d.pending[1:]
			more := len(d.pending) > 0
			d.mu.Unlock()

			if more {
				d.signal()
			}
			return job, true
		}
		d.mu.Unlock()

		select {
		case <-d.wake:
		case <-d.ctx.Done():
			return nil, false
		}
	}
}

func (d *Dispatcher) run(job *entities.Job) {
	metrics.JobsRunning.Inc()
	defer metrics.JobsRunning.Dec()

	job.Status = entities.JobStatusRunning
	if err := d.jobs.Update(d.ctx, job); err != nil {
		d.log.Error("failed to mark job running", slog.Int64("job_id", job.ID), slog.String("error", err.Error()))
	}

	start := d.now()
	runLog, err := d.safeRun(job)
	if err != nil {
		if runLog != "" {
			runLog += "\n"
		}
		d.finish(job, entities.JobStatusFailed, runLog+err.Error())
		return
	}

	d.log.Info("job finished",
		slog.Int64("job_id", job.ID),
		slog.Duration("duration", d.now().Sub(start)))
	d.finish(job, entities.JobStatusDone, runLog)
}

// safeRun converts a runner panic into a failed job
func (d *Dispatcher) safeRun(job *entities.Job) (runLog string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("runner panicked: %v", r)
		}
	}()
	return d.runner.Run(d.ctx, job)
}

func (d *Dispatcher) finish(job *entities.Job, status entities.JobStatus, runLog string) {
	job.Finish(status, runLog, d.now())
	metrics.JobsFinished.WithLabelValues(string(status)).Inc()

	if status == entities.JobStatusFailed {
		d.log.Warn("job failed", slog.Int64("job_id", job.ID), slog.String("log", runLog))
	}

	// The run context may be cancelled already; the final state must still land
	if err := d.jobs.Update(context.Background(), job); err != nil {
		d.log.Error("failed to record job result", slog.Int64("job_id", job.ID), slog.String("error", err.Error()))
	}
}
