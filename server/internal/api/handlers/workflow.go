package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/fractal/internal/auth"
	"github.com/devilmonastery/fractal/internal/domain/entities"
	"github.com/devilmonastery/fractal/internal/domain/repositories"
	"github.com/devilmonastery/fractal/internal/domain/services"
)

// ApplyResponse is the body of an accepted workflow submission
type ApplyResponse struct {
	Status string `json:"status"`
	JobID  int64  `json:"job_id"`
}

// WorkflowHandler hands workflow submissions to the dispatcher and reports
// on the resulting jobs
type WorkflowHandler struct {
	dispatcher *services.Dispatcher
	logger     *slog.Logger
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(dispatcher *services.Dispatcher, logger *slog.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		dispatcher: dispatcher,
		logger:     logger.With(slog.String("handler", "workflow")),
	}
}

// Apply handles POST /api/v1/project/apply/{project_id}/{input_dataset_id}/{workflow_id}
func (h *WorkflowHandler) Apply(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		WriteDetail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ids, verrs := pathIDs(r, "project_id", "input_dataset_id", "workflow_id")
	if len(verrs) > 0 {
		WriteValidationError(w, verrs...)
		return
	}

	job, err := h.dispatcher.Submit(r.Context(), entities.ApplyWorkflow{
		ProjectID:      ids[0],
		InputDatasetID: ids[1],
		WorkflowID:     ids[2],
		UserID:         user.UserID,
	})
	if err != nil {
		if errors.Is(err, services.ErrDispatcherClosed) {
			WriteDetail(w, http.StatusServiceUnavailable, "Server is shutting down")
			return
		}
		h.logger.Error("failed to submit workflow", slog.String("error", err.Error()))
		WriteDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	WriteJSON(w, http.StatusAccepted, ApplyResponse{
		Status: string(entities.JobStatusSubmitted),
		JobID:  job.ID,
	})
}

// GetJob handles GET /api/v1/job/{job_id}
func (h *WorkflowHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		WriteDetail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ids, verrs := pathIDs(r, "job_id")
	if len(verrs) > 0 {
		WriteValidationError(w, verrs...)
		return
	}

	job, err := h.dispatcher.Job(r.Context(), user.UserID, ids[0])
	switch {
	case errors.Is(err, repositories.ErrJobNotFound):
		WriteDetail(w, http.StatusNotFound, "Job not found")
		return
	case err != nil:
		h.logger.Error("failed to get job", slog.String("error", err.Error()))
		WriteDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/v1/job/
func (h *WorkflowHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		WriteDetail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	jobs, err := h.dispatcher.Jobs(r.Context(), user.UserID)
	if err != nil {
		h.logger.Error("failed to list jobs", slog.String("error", err.Error()))
		WriteDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if jobs == nil {
		jobs = []*entities.Job{}
	}
	WriteJSON(w, http.StatusOK, jobs)
}

// pathIDs parses integer path variables in order
func pathIDs(r *http.Request, names ...string) ([]int64, []ValidationError) {
	vars := mux.Vars(r)
	ids := make([]int64, len(names))
	var errs []ValidationError
	for i, name := range names {
		id, err := strconv.ParseInt(vars[name], 10, 64)
		if err != nil {
			errs = append(errs, invalidInteger("path", name))
			continue
		}
		ids[i] = id
	}
	return ids, errs
}
