package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/atinyakov/GymKeeper/internal/middleware"
	"github.com/atinyakov/GymKeeper/internal/models"
	handler "github.com/atinyakov/GymKeeper/internal/server/handler/http"
	"github.com/atinyakov/GymKeeper/internal/service"
)

type fakeHistoryService struct {
	entries    []models.HistoryEntry
	registered []string
	err        error
}

func (f *fakeHistoryService) Register(_ context.Context, userID, exerciseID string) error {
	f.registered = append(f.registered, userID+":"+exerciseID)
	return f.err
}

func (f *fakeHistoryService) History(context.Context, string) ([]models.HistoryEntry, error) {
	return f.entries, f.err
}

type fakeExerciseService struct{}

func (fakeExerciseService) Groups(context.Context) ([]string, error) {
	return []string{"back", "legs"}, nil
}

func (fakeExerciseService) ByGroup(_ context.Context, group string) ([]models.Exercise, error) {
	return []models.Exercise{{ID: "e1", Group: group}}, nil
}

func (fakeExerciseService) Get(_ context.Context, id string) (models.Exercise, error) {
	if id != "e1" {
		return models.Exercise{}, service.ErrExerciseNotFound
	}
	return models.Exercise{ID: "e1", Name: "Row"}, nil
}

type verifier struct{ ts *service.TokenService }

func (v verifier) Authenticate(token string) (string, error) { return v.ts.VerifyAccessToken(token) }

type testServer struct {
	*httptest.Server
	tokens  *service.TokenService
	history *fakeHistoryService
	auth    *fakeAuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := service.NewTokenService("secret", time.Minute, time.Hour)
	reg := prometheus.NewRegistry()
	hist := &fakeHistoryService{entries: []models.HistoryEntry{{Title: "15.01.2024", Data: []models.HistoryRecord{{ID: "h1"}}}}}
	auth := &fakeAuthService{profile: models.UserProfile{ID: "u1", Name: "Anna"}}

	router := handler.NewRouter(handler.Handlers{
		Auth:      &handler.AuthHandler{AuthService: auth},
		History:   &handler.HistoryHandler{HistoryService: hist},
		Exercises: &handler.ExerciseHandler{ExerciseService: fakeExerciseService{}},
	}, verifier{ts}, reg, middleware.NewMetrics(reg), zap.NewNop())

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, tokens: ts, history: hist, auth: auth}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, s.URL+path, rdr)
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body.Message
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/history", "/groups", "/exercises/e1", "/exercises/bygroup/back"} {
		resp := s.do(t, http.MethodGet, path, "", "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d; want 401", path, resp.StatusCode)
		}
		if msg := decodeMessage(t, resp); msg != middleware.MessageTokenInvalid {
			t.Errorf("GET %s message = %q", path, msg)
		}
	}
}

func TestRouter_ExpiredToken(t *testing.T) {
	s := newTestServer(t)
	expired := service.NewTokenService("secret", -time.Minute, time.Hour)
	token, err := expired.IssueAccessToken("u1")
	if err != nil {
		t.Fatal(err)
	}

	resp := s.do(t, http.MethodGet, "/history", token, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d; want 401", resp.StatusCode)
	}
	if msg := decodeMessage(t, resp); msg != middleware.MessageTokenExpired {
		t.Errorf("message = %q; want %q", msg, middleware.MessageTokenExpired)
	}
}

func TestRouter_AuthenticatedFlow(t *testing.T) {
	s := newTestServer(t)
	token, err := s.tokens.IssueAccessToken("u1")
	if err != nil {
		t.Fatal(err)
	}

	resp := s.do(t, http.MethodGet, "/history", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /history status = %d", resp.StatusCode)
	}
	var entries []models.HistoryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil || len(entries) != 1 {
		t.Fatalf("entries = %+v, %v", entries, err)
	}

	resp = s.do(t, http.MethodPost, "/history", token, `{"exercise_id":"e1"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /history status = %d", resp.StatusCode)
	}
	if len(s.history.registered) != 1 || s.history.registered[0] != "u1:e1" {
		t.Errorf("registered = %v", s.history.registered)
	}

	resp = s.do(t, http.MethodPut, "/users", token, `{"name":"Anna"}`)
	if resp.StatusCode != http.StatusOK || s.auth.gotUserID != "u1" || s.auth.gotUpdate.Name != "Anna" {
		t.Errorf("PUT /users status = %d, user = %q, update = %+v", resp.StatusCode, s.auth.gotUserID, s.auth.gotUpdate)
	}

	resp = s.do(t, http.MethodGet, "/exercises/missing", token, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /exercises/missing status = %d; want 404", resp.StatusCode)
	}

	resp = s.do(t, http.MethodGet, "/exercises/bygroup/legs", token, "")
	var list []models.Exercise
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil || len(list) != 1 || list[0].Group != "legs" {
		t.Errorf("bygroup = %+v, %v", list, err)
	}
}

func TestRouter_PublicRoutes(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/sessions", "", `{"email":"a@b.c","password":"pw"}`)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("POST /sessions status = %d", resp.StatusCode)
	}

	resp = s.do(t, http.MethodGet, "/healthz", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz status = %d", resp.StatusCode)
	}

	resp = s.do(t, http.MethodGet, "/metrics", "", "")
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "gymkeeper_http_requests_total") {
		t.Errorf("metrics output missing request counter")
	}
}

func TestRouter_RejectsNonJSON(t *testing.T) {
	s := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, s.URL+"/sessions", strings.NewReader("email=a"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d; want 415", resp.StatusCode)
	}
}
