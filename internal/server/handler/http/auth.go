// Package http provides the reference backend's HTTP handlers and router.
package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/GymKeeper/internal/middleware"
	"github.com/atinyakov/GymKeeper/internal/models"
)

// AuthService defines the authentication operations required by the
// handlers.
type AuthService interface {
	SignUp(ctx context.Context, name, email, password string) (models.UserProfile, error)
	SignIn(ctx context.Context, email, password string) (models.SessionResponse, error)
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
	UpdateUser(ctx context.Context, userID string, update models.ProfileUpdate) (models.UserProfile, error)
}

// AuthHandler handles sessions and user accounts.
type AuthHandler struct {
	AuthService AuthService
	Log         *zap.Logger
}

// SignUp handles POST /users.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if !decode(w, r, &req) {
		return
	}
	profile, err := h.AuthService.SignUp(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

// SignIn handles POST /sessions.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.AuthService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Refresh handles POST /sessions/refresh-token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if !decode(w, r, &req) {
		return
	}
	pair, err := h.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// UpdateUser handles PUT /users for the authenticated user.
func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdate
	if !decode(w, r, &req) {
		return
	}
	userID := middleware.GetUserIDFromContext(r.Context())
	profile, err := h.AuthService.UpdateUser(r.Context(), userID, req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
