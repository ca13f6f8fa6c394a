package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/GymKeeper/internal/models"
)

// DayLabelLayout formats the history day labels.
const DayLabelLayout = "02.01.2006"

// HistoryRepository defines the persistence of completed exercises.
type HistoryRepository interface {
	AddHistory(ctx context.Context, id, userID, exerciseID string, at time.Time) error
	ListHistory(ctx context.Context, userID string) ([]models.HistoryRecord, error)
}

// HistoryService registers completions and serves the grouped feed.
type HistoryService struct {
	repo      HistoryRepository
	exercises *ExerciseService
	loc       *time.Location
	now       func() time.Time
}

// NewHistoryService constructs a HistoryService. Days are cut in loc.
func NewHistoryService(repo HistoryRepository, exercises *ExerciseService, loc *time.Location) *HistoryService {
	if loc == nil {
		loc = time.Local
	}
	return &HistoryService{repo: repo, exercises: exercises, loc: loc, now: time.Now}
}

// Register records that userID completed exerciseID now.
func (s *HistoryService) Register(ctx context.Context, userID, exerciseID string) error {
	if exerciseID == "" {
		return ErrInvalidInput
	}
	if _, err := s.exercises.Get(ctx, exerciseID); err != nil {
		return err
	}
	return s.repo.AddHistory(ctx, uuid.NewString(), userID, exerciseID, s.now())
}

// History returns userID's records grouped by day, newest day first.
func (s *HistoryService) History(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	records, err := s.repo.ListHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	return GroupByDay(records, s.loc), nil
}

// GroupByDay groups records, assumed newest first, into day entries and
// fills in each record's Hour.
func GroupByDay(records []models.HistoryRecord, loc *time.Location) []models.HistoryEntry {
	entries := []models.HistoryEntry{}
	for _, rec := range records {
		at := rec.CreatedAt.In(loc)
		rec.Hour = at.Format("15:04")
		label := at.Format(DayLabelLayout)

		if n := len(entries); n > 0 && entries[n-1].Title == label {
			entries[n-1].Data = append(entries[n-1].Data, rec)
			continue
		}
		entries = append(entries, models.HistoryEntry{Title: label, Data: []models.HistoryRecord{rec}})
	}
	return entries
}
