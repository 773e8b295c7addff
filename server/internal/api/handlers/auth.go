package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/devilmonastery/fractal/internal/auth"
	"github.com/devilmonastery/fractal/internal/domain/entities"
	"github.com/devilmonastery/fractal/internal/domain/services"
)

// TokenResponse is the body of a successful login exchange
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AuthHandler serves the login exchange and user lookups
type AuthHandler struct {
	authService *services.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger.With(slog.String("handler", "auth")),
	}
}

// Login handles POST /auth/token/login. The body is form-encoded with
// username and password fields.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Debug("malformed login form", slog.String("error", err.Error()))
		WriteValidationError(w, ValidationError{
			Loc:  []string{"body"},
			Msg:  "could not parse form body",
			Type: "value_error",
		})
		return
	}

	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	var missing []ValidationError
	if username == "" {
		missing = append(missing, missingField("body", "username"))
	}
	if password == "" {
		missing = append(missing, missingField("body", "password"))
	}
	if len(missing) > 0 {
		WriteValidationError(w, missing...)
		return
	}

	issued, err := h.authService.Login(r.Context(), username, password)
	switch {
	case errors.Is(err, services.ErrBadCredentials), errors.Is(err, services.ErrUserInactive):
		WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("login failed", slog.String("error", err.Error()))
		WriteDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: issued.AccessToken,
		TokenType:   issued.TokenType,
	})
}

// Whoami handles GET /auth/whoami
func (h *AuthHandler) Whoami(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.CurrentUser(r.Context())
	if err != nil {
		WriteDetail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// ListUsers handles GET /auth/users/ (superusers only)
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	switch {
	case errors.Is(err, auth.ErrForbidden):
		WriteDetail(w, http.StatusForbidden, "Forbidden")
		return
	case err != nil:
		h.logger.Error("failed to list users", slog.String("error", err.Error()))
		WriteDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if users == nil {
		users = []*entities.User{}
	}
	WriteJSON(w, http.StatusOK, users)
}
