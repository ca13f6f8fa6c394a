package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/GymKeeper/internal/models"
)

// PostgresExerciseRepository reads the exercise catalog.
type PostgresExerciseRepository struct {
	DB *sql.DB
}

// NewPostgresExerciseRepository creates a repository over db.
func NewPostgresExerciseRepository(db *sql.DB) *PostgresExerciseRepository {
	return &PostgresExerciseRepository{DB: db}
}

const exerciseColumns = `id, name, series, repetitions, group_name, demo, thumb`

// ListGroups returns the distinct muscle groups in alphabetical order.
func (r *PostgresExerciseRepository) ListGroups(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT group_name FROM exercises ORDER BY group_name`)
	if err != nil {
		return nil, fmt.Errorf("ListGroups: %w", err)
	}
	defer rows.Close()

	groups := []string{}
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// ListByGroup returns the exercises of group ordered by name.
func (r *PostgresExerciseRepository) ListByGroup(ctx context.Context, group string) ([]models.Exercise, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE group_name = $1 ORDER BY name`, group)
	if err != nil {
		return nil, fmt.Errorf("ListByGroup: %w", err)
	}
	defer rows.Close()

	exercises := []models.Exercise{}
	for rows.Next() {
		var ex models.Exercise
		if err := scanExercise(rows, &ex); err != nil {
			return nil, err
		}
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}

// GetExercise returns one exercise by id.
func (r *PostgresExerciseRepository) GetExercise(ctx context.Context, id string) (models.Exercise, error) {
	var ex models.Exercise
	err := scanExercise(r.DB.QueryRowContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id), &ex)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Exercise{}, ErrNotFound
	}
	return ex, err
}

// UpsertExercises inserts or replaces catalog entries in one transaction.
func (r *PostgresExerciseRepository) UpsertExercises(ctx context.Context, exercises []models.Exercise) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, ex := range exercises {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO exercises (`+exerciseColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				series = EXCLUDED.series,
				repetitions = EXCLUDED.repetitions,
				group_name = EXCLUDED.group_name,
				demo = EXCLUDED.demo,
				thumb = EXCLUDED.thumb
		`, ex.ID, ex.Name, ex.Series, ex.Repetitions, ex.Group, ex.Demo, ex.Thumb)
		if err != nil {
			return fmt.Errorf("upsert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExercise(s scanner, ex *models.Exercise) error {
	err := s.Scan(&ex.ID, &ex.Name, &ex.Series, &ex.Repetitions, &ex.Group, &ex.Demo, &ex.Thumb)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("scan: %w", err)
	}
	return err
}
