package session

import "errors"

var (
	// ErrCredentialPersistence wraps failures of the credential store.
	ErrCredentialPersistence = errors.New("credential persistence failed")

	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionChanged is returned by SignIn when a sign-out happened while
	// the request was in flight; the late result is discarded.
	ErrSessionChanged = errors.New("session changed while request was in flight")

	// ErrInvalidSessionResponse is returned when POST /sessions succeeds but
	// lacks the user or either token.
	ErrInvalidSessionResponse = errors.New("invalid session response")
)
