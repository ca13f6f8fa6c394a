package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atinyakov/GymKeeper/internal/models"
)

// PostgresHistoryRepository stores completed exercises.
type PostgresHistoryRepository struct {
	DB *sql.DB
}

// NewPostgresHistoryRepository creates a repository over db.
func NewPostgresHistoryRepository(db *sql.DB) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{DB: db}
}

// AddHistory records that userID completed exerciseID at the given time.
func (r *PostgresHistoryRepository) AddHistory(ctx context.Context, id, userID, exerciseID string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO history (id, user_id, exercise_id, created_at) VALUES ($1, $2, $3, $4)`,
		id, userID, exerciseID, at,
	)
	if err != nil {
		return fmt.Errorf("AddHistory: %w", err)
	}
	return nil
}

// ListHistory returns userID's records joined with the catalog, newest first.
// Hour is left for the caller to format.
func (r *PostgresHistoryRepository) ListHistory(ctx context.Context, userID string) ([]models.HistoryRecord, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT h.id, h.exercise_id, e.name, e.group_name, h.created_at
		  FROM history h
		  JOIN exercises e ON e.id = h.exercise_id
		 WHERE h.user_id = $1
		 ORDER BY h.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListHistory: %w", err)
	}
	defer rows.Close()

	var records []models.HistoryRecord
	for rows.Next() {
		var rec models.HistoryRecord
		if err := rows.Scan(&rec.ID, &rec.ExerciseID, &rec.Name, &rec.Group, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
