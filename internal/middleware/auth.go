// Package middleware provides HTTP middlewares for authentication, logging
// and metrics.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type ctxKey string

const userKey ctxKey = "user"

// Messages returned in 401 bodies. The client refreshes its token on
// MessageTokenExpired and signs out on anything else.
const (
	MessageTokenExpired = "token.expired"
	MessageTokenInvalid = "token.invalid"
)

// TokenVerifier resolves an access token to a user ID.
type TokenVerifier interface {
	Authenticate(token string) (string, error)
}

// BearerAuth rejects requests without a valid "Authorization: Bearer"
// token. Verifier errors matching expired are reported as
// MessageTokenExpired. On success the user ID is stored in the request
// context.
func BearerAuth(v TokenVerifier, expired error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, MessageTokenInvalid)
				return
			}
			userID, err := v.Authenticate(token)
			if err != nil {
				msg := MessageTokenInvalid
				if expired != nil && errors.Is(err, expired) {
					msg = MessageTokenExpired
				}
				unauthorized(w, msg)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext returns the user ID stored by BearerAuth, or an
// empty string.
func GetUserIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(userKey).(string); ok {
		return s
	}
	return ""
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
