package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrNetwork wraps transport-level failures: the request never produced
	// an HTTP response.
	ErrNetwork = errors.New("network error")

	// ErrAuthenticationRejected is returned when the server answers 401 to a
	// request that carried no session, e.g. bad sign-in credentials.
	ErrAuthenticationRejected = errors.New("authentication rejected")

	// ErrSessionInvalidated is returned when the server rejects a previously
	// valid session. The authentication-failure handler has already run
	// unless the session changed while the request was in flight.
	ErrSessionInvalidated = errors.New("session invalidated")
)

// Server messages carried in 401 bodies for protected routes.
const (
	MessageTokenExpired = "token.expired"
	MessageTokenInvalid = "token.invalid"
)

const maxErrorBody = 64 << 10

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server error: %s", e.Message)
}

// newAPIError reads the backend's {"message": "..."} body, falling back to
// the raw text.
func newAPIError(resp *http.Response) *APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		msg = body.Message
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
