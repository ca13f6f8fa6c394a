package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/GymKeeper/internal/models"
)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestMostRecentMonday(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"wednesday", day(2024, time.January, 17, 15), day(2024, time.January, 15, 0)},
		{"monday", day(2024, time.January, 15, 9), day(2024, time.January, 15, 0)},
		{"sunday", day(2024, time.January, 21, 23), day(2024, time.January, 15, 0)},
		{"across month", day(2024, time.March, 2, 8), day(2024, time.February, 26, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MostRecentMonday(tt.now))
		})
	}
}

func TestParseDayLabel(t *testing.T) {
	got, err := ParseDayLabel("10.01.2024", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.January, 10, 0), got)

	for _, bad := range []string{"", "2024-01-10", "32.01.2024", "1.1.2024", "10/01/2024"} {
		_, err := ParseDayLabel(bad, time.UTC)
		assert.ErrorIs(t, err, ErrInvalidDayLabel, bad)
	}
}

func records(n int) []models.HistoryRecord {
	return make([]models.HistoryRecord, n)
}

func TestWeeklyExerciseCount(t *testing.T) {
	now := day(2024, time.January, 16, 12)

	t.Run("previous week excluded", func(t *testing.T) {
		entries := []models.HistoryEntry{
			{Title: "10.01.2024", Data: records(3)},
			{Title: "15.01.2024", Data: records(2)},
		}
		assert.Equal(t, 2, WeeklyExerciseCount(entries, now))
	})

	t.Run("future entry excluded", func(t *testing.T) {
		entries := []models.HistoryEntry{
			{Title: "16.01.2024", Data: records(1)},
			{Title: "18.01.2024", Data: records(4)},
		}
		assert.Equal(t, 1, WeeklyExerciseCount(entries, now))
	})

	t.Run("malformed skipped", func(t *testing.T) {
		entries := []models.HistoryEntry{
			{Title: "yesterday", Data: records(5)},
			{Title: "15.01.2024", Data: records(1)},
		}
		assert.Equal(t, 1, WeeklyExerciseCount(entries, now))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Zero(t, WeeklyExerciseCount(nil, now))
	})
}
