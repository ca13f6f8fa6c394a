// Package catalog reads the exercise catalog and registers completed
// exercises. Every call goes through the HTTP facade so an expired session
// is handled the same way as everywhere else.
package catalog

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/atinyakov/GymKeeper/internal/models"
)

// Backend paths.
const (
	GroupsPath          = "/groups"
	ExercisesByGroupDir = "/exercises/bygroup/"
	ExercisesDir        = "/exercises/"
	HistoryPath         = "/history"
)

// ErrEmptyID is returned when a lookup is given a blank identifier.
var ErrEmptyID = errors.New("empty identifier")

// API is the subset of the HTTP facade the catalog uses.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// CompletionHook is called after a completion is registered on the server.
type CompletionHook func(ctx context.Context, at time.Time)

// Catalog is a thin typed client over the exercise endpoints.
type Catalog struct {
	api  API
	now  func() time.Time
	hook CompletionHook
}

// New returns a Catalog. hook may be nil.
func New(client API, hook CompletionHook) *Catalog {
	return &Catalog{api: client, now: time.Now, hook: hook}
}

// Groups lists the muscle groups.
func (c *Catalog) Groups(ctx context.Context) ([]string, error) {
	var groups []string
	if err := c.api.Get(ctx, GroupsPath, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ExercisesByGroup lists the exercises of group.
func (c *Catalog) ExercisesByGroup(ctx context.Context, group string) ([]models.Exercise, error) {
	if group == "" {
		return nil, ErrEmptyID
	}
	var exercises []models.Exercise
	if err := c.api.Get(ctx, ExercisesByGroupDir+url.PathEscape(group), &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// Exercise returns one exercise by id.
func (c *Catalog) Exercise(ctx context.Context, id string) (models.Exercise, error) {
	if id == "" {
		return models.Exercise{}, ErrEmptyID
	}
	var ex models.Exercise
	if err := c.api.Get(ctx, ExercisesDir+url.PathEscape(id), &ex); err != nil {
		return models.Exercise{}, err
	}
	return ex, nil
}

// RegisterCompletion marks the exercise as done today.
func (c *Catalog) RegisterCompletion(ctx context.Context, exerciseID string) error {
	if exerciseID == "" {
		return ErrEmptyID
	}
	req := models.HistoryCreateRequest{ExerciseID: exerciseID}
	if err := c.api.Post(ctx, HistoryPath, req, nil); err != nil {
		return err
	}
	if c.hook != nil {
		c.hook(ctx, c.now())
	}
	return nil
}
