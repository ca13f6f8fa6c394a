package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

var errExpired = errors.New("expired")

type fakeVerifier map[string]error

func (f fakeVerifier) Authenticate(token string) (string, error) {
	if err, ok := f[token]; ok {
		return "", err
	}
	return "user-" + token, nil
}

func TestBearerAuth(t *testing.T) {
	verifier := fakeVerifier{
		"old": errExpired,
		"bad": errors.New("signature"),
	}

	var gotUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := BearerAuth(verifier, errExpired)(next)

	cases := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
		wantUser   string
	}{
		{"valid", "Bearer abc", http.StatusNoContent, "", "user-abc"},
		{"lowercase scheme", "bearer abc", http.StatusNoContent, "", "user-abc"},
		{"missing", "", http.StatusUnauthorized, MessageTokenInvalid, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, MessageTokenInvalid, ""},
		{"empty token", "Bearer  ", http.StatusUnauthorized, MessageTokenInvalid, ""},
		{"expired", "Bearer old", http.StatusUnauthorized, MessageTokenExpired, ""},
		{"invalid", "Bearer bad", http.StatusUnauthorized, MessageTokenInvalid, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotUser = ""
			req := httptest.NewRequest(http.MethodGet, "/history", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d; want %d", rr.Code, tc.wantStatus)
			}
			if gotUser != tc.wantUser {
				t.Errorf("user = %q; want %q", gotUser, tc.wantUser)
			}
			if tc.wantMsg == "" {
				return
			}
			var body struct {
				Message string `json:"message"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Message != tc.wantMsg {
				t.Errorf("message = %q; want %q", body.Message, tc.wantMsg)
			}
		})
	}
}

func TestGetUserIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetUserIDFromContext(req.Context()); got != "" {
		t.Errorf("GetUserIDFromContext = %q; want empty", got)
	}
}
