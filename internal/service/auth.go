// Package service holds the reference backend's business logic, delegating
// persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/GymKeeper/internal/models"
	"github.com/atinyakov/GymKeeper/internal/repository"
)

// AuthRepository defines the persistence operations required by the
// authentication service.
type AuthRepository interface {
	CreateUser(ctx context.Context, u models.User) error
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	UpdateUser(ctx context.Context, id, name string, passwordHash []byte) error
	StoreRefreshToken(ctx context.Context, t models.RefreshToken) error
	ConsumeRefreshToken(ctx context.Context, token string) (models.RefreshToken, error)
}

// AuthService implements sign-up, sign-in, token rotation and profile
// updates.
type AuthService struct {
	repo   AuthRepository
	tokens *TokenService
}

// NewAuthService constructs an AuthService.
func NewAuthService(repo AuthRepository, tokens *TokenService) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

// SignUp registers a new user.
func (s *AuthService) SignUp(ctx context.Context, name, email, password string) (models.UserProfile, error) {
	name, email = strings.TrimSpace(name), normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return models.UserProfile{}, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{ID: uuid.NewString(), Name: name, Email: email, PasswordHash: hash}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return models.UserProfile{}, ErrEmailTaken
		}
		return models.UserProfile{}, err
	}
	return u.Profile(), nil
}

// SignIn checks the credentials and opens a session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (models.SessionResponse, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return models.SessionResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.SessionResponse{}, err
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return models.SessionResponse{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, u.ID)
	if err != nil {
		return models.SessionResponse{}, err
	}
	return models.SessionResponse{User: u.Profile(), Token: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// Refresh exchanges a refresh token for a new pair. The old refresh token
// stops working.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	if refreshToken == "" {
		return models.TokenPair{}, ErrRefreshTokenInvalid
	}
	rt, err := s.repo.ConsumeRefreshToken(ctx, refreshToken)
	if errors.Is(err, repository.ErrNotFound) {
		return models.TokenPair{}, ErrRefreshTokenInvalid
	}
	if err != nil {
		return models.TokenPair{}, err
	}
	if s.tokens.now().After(rt.ExpiresAt) {
		return models.TokenPair{}, ErrRefreshTokenInvalid
	}
	return s.issuePair(ctx, rt.UserID)
}

// Authenticate returns the user ID of a valid access token.
func (s *AuthService) Authenticate(token string) (string, error) {
	return s.tokens.VerifyAccessToken(token)
}

// UpdateUser changes the user's name and, when update.Password is set, the
// password after checking update.OldPassword.
func (s *AuthService) UpdateUser(ctx context.Context, userID string, update models.ProfileUpdate) (models.UserProfile, error) {
	name := strings.TrimSpace(update.Name)
	if name == "" {
		return models.UserProfile{}, ErrInvalidInput
	}
	u, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.UserProfile{}, ErrUserNotFound
	}
	if err != nil {
		return models.UserProfile{}, err
	}

	var hash []byte
	if update.Password != "" {
		if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(update.OldPassword)) != nil {
			return models.UserProfile{}, ErrWrongPassword
		}
		if hash, err = bcrypt.GenerateFromPassword([]byte(update.Password), bcrypt.DefaultCost); err != nil {
			return models.UserProfile{}, fmt.Errorf("hash password: %w", err)
		}
	}
	if err := s.repo.UpdateUser(ctx, userID, name, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.UserProfile{}, ErrUserNotFound
		}
		return models.UserProfile{}, err
	}

	u.Name = name
	return u.Profile(), nil
}

func (s *AuthService) issuePair(ctx context.Context, userID string) (models.TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, expiresAt := s.tokens.NewRefreshToken()
	rt := models.RefreshToken{Token: refresh, UserID: userID, ExpiresAt: expiresAt}
	if err := s.repo.StoreRefreshToken(ctx, rt); err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
