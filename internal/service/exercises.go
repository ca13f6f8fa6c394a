package service

import (
	"context"
	"errors"

	"github.com/atinyakov/GymKeeper/internal/models"
	"github.com/atinyakov/GymKeeper/internal/repository"
)

// ExerciseRepository defines catalog persistence.
type ExerciseRepository interface {
	ListGroups(ctx context.Context) ([]string, error)
	ListByGroup(ctx context.Context, group string) ([]models.Exercise, error)
	GetExercise(ctx context.Context, id string) (models.Exercise, error)
	UpsertExercises(ctx context.Context, exercises []models.Exercise) error
}

// ExerciseService serves the exercise catalog.
type ExerciseService struct {
	repo ExerciseRepository
}

// NewExerciseService constructs an ExerciseService.
func NewExerciseService(repo ExerciseRepository) *ExerciseService {
	return &ExerciseService{repo: repo}
}

// Groups lists the muscle groups.
func (s *ExerciseService) Groups(ctx context.Context) ([]string, error) {
	return s.repo.ListGroups(ctx)
}

// ByGroup lists the exercises of group.
func (s *ExerciseService) ByGroup(ctx context.Context, group string) ([]models.Exercise, error) {
	return s.repo.ListByGroup(ctx, group)
}

// Get returns one exercise.
func (s *ExerciseService) Get(ctx context.Context, id string) (models.Exercise, error) {
	ex, err := s.repo.GetExercise(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Exercise{}, ErrExerciseNotFound
	}
	return ex, err
}

// Seed loads DefaultCatalog.
func (s *ExerciseService) Seed(ctx context.Context) error {
	return s.repo.UpsertExercises(ctx, DefaultCatalog)
}

// DefaultCatalog is the catalog installed on first start.
var DefaultCatalog = []models.Exercise{
	{ID: "back-pulldown", Name: "Front lat pulldown", Series: 3, Repetitions: 12, Group: "back", Demo: "front-pulldown.gif", Thumb: "front-pulldown.png"},
	{ID: "back-row", Name: "Seated cable row", Series: 3, Repetitions: 12, Group: "back", Demo: "seated-row.gif", Thumb: "seated-row.png"},
	{ID: "biceps-curl", Name: "Dumbbell curl", Series: 3, Repetitions: 12, Group: "biceps", Demo: "dumbbell-curl.gif", Thumb: "dumbbell-curl.png"},
	{ID: "chest-bench", Name: "Bench press", Series: 4, Repetitions: 10, Group: "chest", Demo: "bench-press.gif", Thumb: "bench-press.png"},
	{ID: "legs-squat", Name: "Squat", Series: 4, Repetitions: 10, Group: "legs", Demo: "squat.gif", Thumb: "squat.png"},
	{ID: "legs-press", Name: "Leg press", Series: 3, Repetitions: 12, Group: "legs", Demo: "leg-press.gif", Thumb: "leg-press.png"},
	{ID: "shoulders-press", Name: "Overhead press", Series: 3, Repetitions: 10, Group: "shoulders", Demo: "overhead-press.gif", Thumb: "overhead-press.png"},
	{ID: "triceps-pushdown", Name: "Cable pushdown", Series: 3, Repetitions: 12, Group: "triceps", Demo: "pushdown.gif", Thumb: "pushdown.png"},
}
