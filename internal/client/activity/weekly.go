// Package activity derives the weekly exercise count from the history feed
// and forwards it to the notification tagger.
package activity

import (
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/GymKeeper/internal/models"
)

// DayLabelLayout is the history feed's day label format: day.month.year.
const DayLabelLayout = "02.01.2006"

// ErrInvalidDayLabel is returned for labels not in DD.MM.YYYY form.
var ErrInvalidDayLabel = errors.New("invalid day label")

// ParseDayLabel parses a "DD.MM.YYYY" label as midnight in loc. The field
// order is fixed and independent of locale.
func ParseDayLabel(label string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DayLabelLayout, label, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %w", ErrInvalidDayLabel, label, err)
	}
	return t, nil
}

// MostRecentMonday returns midnight of the Monday starting now's week.
// Weeks start on Monday, so a Sunday maps to six days earlier.
func MostRecentMonday(now time.Time) time.Time {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	offset := (int(today.Weekday()) + 6) % 7
	return today.AddDate(0, 0, -offset)
}

// WeeklyExerciseCount counts the records of entries whose day falls in
// [MostRecentMonday(now), now]. Malformed and future-dated labels are
// skipped.
func WeeklyExerciseCount(entries []models.HistoryEntry, now time.Time) int {
	n, _ := weeklyCount(entries, now)
	return n
}

func weeklyCount(entries []models.HistoryEntry, now time.Time) (count, malformed int) {
	monday := MostRecentMonday(now)
	for _, e := range entries {
		day, err := ParseDayLabel(e.Title, now.Location())
		if err != nil {
			malformed++
			continue
		}
		if day.Before(monday) || day.After(now) {
			continue
		}
		count += len(e.Data)
	}
	return count, malformed
}
