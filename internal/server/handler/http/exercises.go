package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/GymKeeper/internal/models"
)

// ExerciseService defines the catalog operations required by the handlers.
type ExerciseService interface {
	Groups(ctx context.Context) ([]string, error)
	ByGroup(ctx context.Context, group string) ([]models.Exercise, error)
	Get(ctx context.Context, id string) (models.Exercise, error)
}

// ExerciseHandler serves the exercise catalog.
type ExerciseHandler struct {
	ExerciseService ExerciseService
	Log             *zap.Logger
}

// Groups handles GET /groups.
func (h *ExerciseHandler) Groups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.ExerciseService.Groups(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// ByGroup handles GET /exercises/bygroup/{group}.
func (h *ExerciseHandler) ByGroup(w http.ResponseWriter, r *http.Request) {
	list, err := h.ExerciseService.ByGroup(r.Context(), chi.URLParam(r, "group"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /exercises/{id}.
func (h *ExerciseHandler) Get(w http.ResponseWriter, r *http.Request) {
	ex, err := h.ExerciseService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}
