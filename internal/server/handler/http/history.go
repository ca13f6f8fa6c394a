package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/GymKeeper/internal/middleware"
	"github.com/atinyakov/GymKeeper/internal/models"
)

// HistoryService defines the history operations required by the handlers.
type HistoryService interface {
	Register(ctx context.Context, userID, exerciseID string) error
	History(ctx context.Context, userID string) ([]models.HistoryEntry, error)
}

// HistoryHandler serves the user's exercise history.
type HistoryHandler struct {
	HistoryService HistoryService
	Log            *zap.Logger
}

// List handles GET /history.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	entries, err := h.HistoryService.History(r.Context(), userID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Create handles POST /history.
func (h *HistoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.HistoryCreateRequest
	if !decode(w, r, &req) {
		return
	}
	userID := middleware.GetUserIDFromContext(r.Context())
	if err := h.HistoryService.Register(r.Context(), userID, req.ExerciseID); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}
