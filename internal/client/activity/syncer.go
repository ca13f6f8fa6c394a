package activity

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/GymKeeper/internal/client/notify"
	"github.com/atinyakov/GymKeeper/internal/models"
)

// Source is what the syncer needs from the session manager.
type Source interface {
	FetchHistory(ctx context.Context) ([]models.HistoryEntry, error)
	CurrentUser() (models.UserProfile, bool)
}

// Syncer pushes the weekly exercise count to the tagger.
type Syncer struct {
	source Source
	tagger notify.Tagger
	now    func() time.Time
	log    *zap.Logger
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

// NewSyncer returns a Syncer reading history from source.
func NewSyncer(source Source, tagger notify.Tagger, log *zap.Logger, opts ...Option) *Syncer {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Syncer{source: source, tagger: tagger, now: time.Now, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncWeeklyExerciseCount computes the count for entries and sends it as a
// decimal string under notify.TagWeekExercisesCount.
func (s *Syncer) SyncWeeklyExerciseCount(ctx context.Context, entries []models.HistoryEntry) error {
	count, malformed := weeklyCount(entries, s.now())
	if malformed > 0 {
		s.log.Warn("skipped history entries with malformed day labels", zap.Int("count", malformed))
	}
	return s.tagger.SendTag(ctx, notify.TagWeekExercisesCount, strconv.Itoa(count))
}

// Refresh fetches the history and syncs the weekly count from it.
func (s *Syncer) Refresh(ctx context.Context) error {
	entries, err := s.source.FetchHistory(ctx)
	if err != nil {
		return err
	}
	return s.SyncWeeklyExerciseCount(ctx, entries)
}

// TagLastExerciseDate sends the unix time of the latest completed exercise.
func (s *Syncer) TagLastExerciseDate(ctx context.Context, at time.Time) error {
	return s.tagger.SendTag(ctx, notify.TagLastExercisesDate, strconv.FormatInt(at.Unix(), 10))
}

// StartAutoSync refreshes the weekly count every interval while a user is
// signed in, until ctx is cancelled. A non-positive interval disables it.
func (s *Syncer) StartAutoSync(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		s.log.Warn("auto sync disabled", zap.Duration("interval", interval))
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, ok := s.source.CurrentUser(); !ok {
					continue
				}
				if err := s.Refresh(ctx); err != nil {
					s.log.Warn("weekly exercise sync failed", zap.Error(err))
				}
			}
		}
	}()
}
