package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService signs and verifies HS256 access tokens and mints opaque
// refresh tokens.
type TokenService struct {
	secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService returns a TokenService signing with secret.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssueAccessToken returns a signed access token for userID.
func (ts *TokenService) IssueAccessToken(userID string) (string, error) {
	now := ts.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ts.AccessTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return token, nil
}

// NewRefreshToken returns a random refresh token and its expiry.
func (ts *TokenService) NewRefreshToken() (string, time.Time) {
	return uuid.NewString(), ts.now().Add(ts.RefreshTTL)
}

// VerifyAccessToken returns the user ID carried by token. It fails with
// ErrTokenExpired for an expired but otherwise valid token and with
// ErrTokenInvalid for everything else.
func (ts *TokenService) VerifyAccessToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.secret, nil
	}, jwt.WithTimeFunc(ts.now))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case err != nil:
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	case claims.Subject == "":
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}
