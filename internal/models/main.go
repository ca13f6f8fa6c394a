// Package models defines the core data structures shared by the mobile client
// and the reference backend: users, token pairs, exercises and history.
package models

import "time"

// UserProfile is the identity record of the signed-in user.
type UserProfile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// IsZero reports whether p is the empty sentinel used for "no user".
func (p UserProfile) IsZero() bool {
	return p == UserProfile{}
}

// TokenPair holds the opaque access and refresh tokens issued on sign-in.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

func (t TokenPair) Valid() bool {
	return t.AccessToken != "" && t.RefreshToken != ""
}

// SessionResponse is the body returned by POST /sessions.
type SessionResponse struct {
	User         UserProfile `json:"user"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ProfileUpdate is the body accepted by PUT /users.
type ProfileUpdate struct {
	Name        string `json:"name"`
	OldPassword string `json:"old_password,omitempty"`
	Password    string `json:"password,omitempty"`
}

// Exercise is a catalog entry.
type Exercise struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Series      int    `json:"series"`
	Repetitions int    `json:"repetitions"`
	Group       string `json:"group"`
	Demo        string `json:"demo"`
	Thumb       string `json:"thumb"`
}

// HistoryRecord is a single completed exercise.
type HistoryRecord struct {
	ID         string    `json:"id"`
	ExerciseID string    `json:"exercise_id"`
	Name       string    `json:"name"`
	Group      string    `json:"group"`
	Hour       string    `json:"hour"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryEntry groups the records completed on one day. Title is the day
// label in "DD.MM.YYYY" form.
type HistoryEntry struct {
	Title string          `json:"title"`
	Data  []HistoryRecord `json:"data"`
}

type HistoryCreateRequest struct {
	ExerciseID string `json:"exercise_id"`
}

// User is the backend's persisted account, including the password hash.
type User struct {
	ID           string
	Name         string
	Email        string
	Avatar       string
	PasswordHash []byte
}

func (u User) Profile() UserProfile {
	return UserProfile{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}

// RefreshToken is a backend-side refresh token record.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}
