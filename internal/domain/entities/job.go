package entities

import (
	"time"
)

// JobStatus is the lifecycle state of a submitted workflow
type JobStatus string

const (
	JobStatusSubmitted JobStatus = "submitted"
	JobStatusRunning   JobStatus = "running"
	JobStatusDone      JobStatus = "done"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the job will not change state again
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusFailed
}

// ApplyWorkflow is a request to run a workflow on an input dataset
type ApplyWorkflow struct {
	ProjectID      int64  `json:"project_id"`
	InputDatasetID int64  `json:"input_dataset_id"`
	WorkflowID     int64  `json:"workflow_id"`
	UserID         string `json:"user_id"`
}

// Job tracks one ApplyWorkflow handed to the runner
type Job struct {
	ID             int64      `json:"id"`
	ProjectID      int64      `json:"project_id"`
	InputDatasetID int64      `json:"input_dataset_id"`
	WorkflowID     int64      `json:"workflow_id"`
	UserID         string     `json:"user_id"`
	Status         JobStatus  `json:"status"`
	Log            *string    `json:"log"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// NewJob creates a job in the submitted state
func NewJob(id int64, req ApplyWorkflow, now time.Time) *Job {
	return &Job{
		ID:             id,
		ProjectID:      req.ProjectID,
		InputDatasetID: req.InputDatasetID,
		WorkflowID:     req.WorkflowID,
		UserID:         req.UserID,
		Status:         JobStatusSubmitted,
		SubmittedAt:    now,
	}
}

// Finish moves the job to a terminal state. A non-empty log is kept.
func (j *Job) Finish(status JobStatus, log string, now time.Time) {
	j.Status = status
	j.FinishedAt = &now
	if log != "" {
		j.Log = &log
	}
}
