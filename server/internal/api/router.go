package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devilmonastery/fractal/internal/domain/services"
	"github.com/devilmonastery/fractal/server/internal/api/handlers"
	"github.com/devilmonastery/fractal/server/internal/api/middleware"
)

// RouterConfig holds dependencies for the API router
type RouterConfig struct {
	AuthService    *services.AuthService
	Dispatcher     *services.Dispatcher
	DeploymentType string
	Version        string
	Logger         *slog.Logger
}

// NewRouter creates the HTTP handler serving the fractal API
func NewRouter(config RouterConfig) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.Metrics)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteDetail(w, http.StatusNotFound, "Not Found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	authMw := middleware.NewBearerAuth(config.AuthService, config.Logger)
	requireAuth := func(h http.HandlerFunc) http.Handler {
		return authMw.RequireAuth(h)
	}

	aliveHandler := handlers.NewAliveHandler(config.DeploymentType, config.Version)
	authHandler := handlers.NewAuthHandler(config.AuthService, config.Logger)
	workflowHandler := handlers.NewWorkflowHandler(config.Dispatcher, config.Logger)

	// Public routes
	router.HandleFunc("/api/alive/", aliveHandler.GetAlive).Methods("GET")
	router.HandleFunc("/auth/token/login", authHandler.Login).Methods("POST")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Authenticated routes
	router.Handle("/auth/whoami", requireAuth(authHandler.Whoami)).Methods("GET")
	router.Handle("/auth/users/", requireAuth(authHandler.ListUsers)).Methods("GET")
	router.Handle("/api/v1/project/apply/{project_id}/{input_dataset_id}/{workflow_id}",
		requireAuth(workflowHandler.Apply)).Methods("POST")
	router.Handle("/api/v1/job/", requireAuth(workflowHandler.ListJobs)).Methods("GET")
	router.Handle("/api/v1/job/{job_id}", requireAuth(workflowHandler.GetJob)).Methods("GET")

	// Outermost first: request ID, panic recovery, logging
	var handler http.Handler = router
	handler = middleware.LogRequest(config.Logger)(handler)
	handler = middleware.Recovery(config.Logger)(handler)
	handler = middleware.RequestID(handler)
	return handler
}
