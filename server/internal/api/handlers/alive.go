package handlers

import (
	"net/http"
)

// AliveResponse is the body of the liveness probe
type AliveResponse struct {
	Alive          bool   `json:"alive"`
	DeploymentType string `json:"deployment_type"`
	Version        string `json:"version"`
}

// AliveHandler answers the public liveness probe
type AliveHandler struct {
	deploymentType string
	version        string
}

// NewAliveHandler creates a new alive handler
func NewAliveHandler(deploymentType, version string) *AliveHandler {
	return &AliveHandler{deploymentType: deploymentType, version: version}
}

// GetAlive handles GET /api/alive/
func (h *AliveHandler) GetAlive(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, AliveResponse{
		Alive:          true,
		DeploymentType: h.deploymentType,
		Version:        h.version,
	})
}
