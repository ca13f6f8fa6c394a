package service

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = errors.New("email already in use")
	ErrWrongPassword       = errors.New("current password does not match")
	ErrUserNotFound        = errors.New("user not found")
	ErrExerciseNotFound    = errors.New("exercise not found")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenInvalid        = errors.New("token invalid")
	ErrRefreshTokenInvalid = errors.New("refresh token invalid")
)
