// Package repository provides the Postgres persistence of the reference
// backend.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/atinyakov/GymKeeper/internal/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a unique constraint is violated.
	ErrAlreadyExists = errors.New("already exists")
)

const uniqueViolation = "23505"

// PostgresAuthRepository stores users and refresh tokens.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a repository over db.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// CreateUser inserts u. A duplicate email yields ErrAlreadyExists.
func (r *PostgresAuthRepository) CreateUser(ctx context.Context, u models.User) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (id, name, email, avatar, password_hash) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Name, u.Email, u.Avatar, u.PasswordHash,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("CreateUser: %w", err)
	}
	return nil
}

// GetUserByEmail returns the user registered with email.
func (r *PostgresAuthRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.getUser(ctx, `SELECT id, name, email, avatar, password_hash FROM users WHERE email = $1`, email)
}

// GetUserByID returns the user with id.
func (r *PostgresAuthRepository) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return r.getUser(ctx, `SELECT id, name, email, avatar, password_hash FROM users WHERE id = $1`, id)
}

func (r *PostgresAuthRepository) getUser(ctx context.Context, query, arg string) (models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.Avatar, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("getUser: %w", err)
	}
	return u, nil
}

// UpdateUser sets the name and, when passwordHash is not nil, the password.
func (r *PostgresAuthRepository) UpdateUser(ctx context.Context, id, name string, passwordHash []byte) error {
	var (
		res sql.Result
		err error
	)
	if passwordHash == nil {
		res, err = r.DB.ExecContext(ctx, `UPDATE users SET name = $2 WHERE id = $1`, id, name)
	} else {
		res, err = r.DB.ExecContext(ctx,
			`UPDATE users SET name = $2, password_hash = $3 WHERE id = $1`, id, name, passwordHash)
	}
	if err != nil {
		return fmt.Errorf("UpdateUser: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// StoreRefreshToken saves a newly issued refresh token.
func (r *PostgresAuthRepository) StoreRefreshToken(ctx context.Context, t models.RefreshToken) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		t.Token, t.UserID, t.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("StoreRefreshToken: %w", err)
	}
	return nil
}

// ConsumeRefreshToken deletes token and returns it, so a refresh token can
// be exchanged only once.
func (r *PostgresAuthRepository) ConsumeRefreshToken(ctx context.Context, token string) (models.RefreshToken, error) {
	t := models.RefreshToken{Token: token}
	err := r.DB.QueryRowContext(ctx,
		`DELETE FROM refresh_tokens WHERE token = $1 RETURNING user_id, expires_at`,
		token,
	).Scan(&t.UserID, &t.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RefreshToken{}, ErrNotFound
	}
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("ConsumeRefreshToken: %w", err)
	}
	return t, nil
}
