package shell

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/GymKeeper/internal/client/api"
	"github.com/atinyakov/GymKeeper/internal/client/notify"
	"github.com/atinyakov/GymKeeper/internal/models"
)

type fakeSession struct {
	user     *models.UserProfile
	signInFn func(email, password string) error
	updates  []models.ProfileUpdate
	history  []models.HistoryEntry
	err      error
}

func (f *fakeSession) SignIn(_ context.Context, email, password string) error {
	if err := f.signInFn(email, password); err != nil {
		return err
	}
	f.user = &models.UserProfile{ID: "u1", Name: "Ann", Email: email}
	return nil
}

func (f *fakeSession) SignUp(ctx context.Context, name, email, password string) error {
	if err := f.SignIn(ctx, email, password); err != nil {
		return err
	}
	f.user.Name = name
	return nil
}

func (f *fakeSession) SignOut() { f.user = nil }

func (f *fakeSession) CurrentUser() (models.UserProfile, bool) {
	if f.user == nil {
		return models.UserProfile{}, false
	}
	return *f.user, true
}

func (f *fakeSession) SubmitProfile(_ context.Context, u models.ProfileUpdate) error {
	f.updates = append(f.updates, u)
	f.user.Name = u.Name
	return f.err
}

func (f *fakeSession) FetchHistory(context.Context) ([]models.HistoryEntry, error) {
	return f.history, f.err
}

type fakeCatalog struct {
	done []string
}

func (f *fakeCatalog) Groups(context.Context) ([]string, error) { return []string{"back", "legs"}, nil }

func (f *fakeCatalog) ExercisesByGroup(_ context.Context, g string) ([]models.Exercise, error) {
	return []models.Exercise{{ID: "e1", Name: "Row", Group: g, Series: 3, Repetitions: 10}}, nil
}

func (f *fakeCatalog) Exercise(_ context.Context, id string) (models.Exercise, error) {
	if id != "e1" {
		return models.Exercise{}, &api.APIError{StatusCode: 404, Message: "exercise not found"}
	}
	return models.Exercise{ID: "e1", Name: "Row"}, nil
}

func (f *fakeCatalog) RegisterCompletion(_ context.Context, id string) error {
	f.done = append(f.done, id)
	return nil
}

type fakeActivity struct {
	tags    notify.Tagger
	entries []models.HistoryEntry
}

func (f *fakeActivity) SyncWeeklyExerciseCount(ctx context.Context, e []models.HistoryEntry) error {
	f.entries = e
	return f.tags.SendTag(ctx, notify.TagWeekExercisesCount, fmt.Sprint(len(e)))
}

func (f *fakeActivity) Refresh(ctx context.Context) error {
	return f.tags.SendTag(ctx, notify.TagWeekExercisesCount, "4")
}

func run(t *testing.T, sess *fakeSession, cat *fakeCatalog, input string) (string, *notify.Recorder, *fakeActivity) {
	t.Helper()
	rec := notify.NewRecorder(nil)
	act := &fakeActivity{tags: rec}
	var out bytes.Buffer
	New(strings.NewReader(input), &out, sess, cat, act, rec, nil).Run(context.Background())
	return out.String(), rec, act
}

func okSignIn(string, string) error { return nil }

func TestShell_SignInFlow(t *testing.T) {
	sess := &fakeSession{signInFn: okSignIn}
	out, rec, _ := run(t, sess, &fakeCatalog{}, "signin\nann@example.com\nsecret\nwhoami\nexit\n")

	assert.Contains(t, out, "Welcome, Ann")
	assert.Contains(t, out, "Ann <ann@example.com> (id u1)")
	assert.Contains(t, out, "Bye")
	v, _ := rec.Get(notify.TagUserAuthStatus)
	assert.Equal(t, string(notify.StatusAuthenticated), v)
}

func TestShell_SignInErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"rejected", fmt.Errorf("%w: %w", api.ErrAuthenticationRejected, &api.APIError{StatusCode: 401}), "Invalid email or password"},
		{"network", fmt.Errorf("%w: dial", api.ErrNetwork), "Server unreachable"},
		{"server message", &api.APIError{StatusCode: 400, Message: "email is required"}, "email is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &fakeSession{signInFn: func(string, string) error { return tt.err }}
			out, rec, _ := run(t, sess, &fakeCatalog{}, "signin\na@b.c\npw\n")
			assert.Contains(t, out, tt.want)
			v, _ := rec.Get(notify.TagUserAuthStatus)
			assert.Equal(t, string(notify.StatusUnauthenticated), v)
		})
	}
}

func TestShell_RequiresSignIn(t *testing.T) {
	out, _, _ := run(t, &fakeSession{}, &fakeCatalog{}, "history\ngroups\n")
	assert.Equal(t, 2, strings.Count(out, "Please sign in first"))
}

func TestShell_HistorySyncsWeeklyCount(t *testing.T) {
	sess := &fakeSession{
		user: &models.UserProfile{ID: "u1", Name: "Ann"},
		history: []models.HistoryEntry{
			{Title: "15.01.2024", Data: []models.HistoryRecord{{Name: "Row", Group: "back", Hour: "10:00"}}},
		},
	}
	out, rec, act := run(t, sess, &fakeCatalog{}, "history\ntags\n")

	assert.Contains(t, out, "15.01.2024")
	assert.Contains(t, out, "10:00  Row (back)")
	assert.Len(t, act.entries, 1)
	assert.Contains(t, out, "week_exercises_count=1")
	assert.Contains(t, rec.Tags(), notify.TagUserAuthStatus)
}

func TestShell_SessionExpired(t *testing.T) {
	sess := &fakeSession{
		user: &models.UserProfile{ID: "u1"},
		err:  fmt.Errorf("%w: %w", api.ErrSessionInvalidated, &api.APIError{StatusCode: 401, Message: api.MessageTokenInvalid}),
	}
	out, _, _ := run(t, sess, &fakeCatalog{}, "history\n")
	assert.Contains(t, out, "Your session has expired")
}

func TestShell_CatalogCommands(t *testing.T) {
	cat := &fakeCatalog{}
	sess := &fakeSession{user: &models.UserProfile{ID: "u1"}}
	out, _, _ := run(t, sess, cat, "groups\nexercises back\ndone e1\ndone nope\nexercises\nweek\n")

	assert.Contains(t, out, "legs")
	assert.Contains(t, out, "e1  Row  3x10")
	assert.Contains(t, out, "Registered Row")
	assert.Contains(t, out, "exercise not found")
	assert.Contains(t, out, "Usage: exercises <group>")
	assert.Contains(t, out, "Exercises this week: 4")
	assert.Equal(t, []string{"e1"}, cat.done)
}

func TestShell_Profile(t *testing.T) {
	sess := &fakeSession{user: &models.UserProfile{ID: "u1", Name: "Ann"}}
	out, _, _ := run(t, sess, &fakeCatalog{}, "profile\nAnna\nnewpw\noldpw\n")

	require.Len(t, sess.updates, 1)
	assert.Equal(t, models.ProfileUpdate{Name: "Anna", Password: "newpw", OldPassword: "oldpw"}, sess.updates[0])
	assert.Contains(t, out, "Profile updated")
}

func TestShell_ProfileKeepsName(t *testing.T) {
	sess := &fakeSession{user: &models.UserProfile{ID: "u1", Name: "Ann"}}
	run(t, sess, &fakeCatalog{}, "profile\n\n\n")

	require.Len(t, sess.updates, 1)
	assert.Equal(t, models.ProfileUpdate{Name: "Ann"}, sess.updates[0])
}

func TestShell_SignOutAndUnknown(t *testing.T) {
	sess := &fakeSession{user: &models.UserProfile{ID: "u1"}}
	out, rec, _ := run(t, sess, &fakeCatalog{}, "signout\nfoo\nhelp\n")

	assert.Contains(t, out, "Signed out")
	assert.Contains(t, out, "Unknown command")
	assert.Contains(t, out, helpText)
	v, _ := rec.Get(notify.TagUserAuthStatus)
	assert.Equal(t, string(notify.StatusUnauthenticated), v)
}

func TestShell_SignUp(t *testing.T) {
	sess := &fakeSession{signInFn: okSignIn}
	out, _, _ := run(t, sess, &fakeCatalog{}, "signup\nBob\nbob@example.com\npw\nwhoami\n")

	assert.Contains(t, out, "Welcome, Bob")
	assert.Contains(t, out, "Bob <bob@example.com>")
}

func TestShell_SignUpMissingFields(t *testing.T) {
	sess := &fakeSession{signInFn: okSignIn}
	out, _, _ := run(t, sess, &fakeCatalog{}, "signup\n\nbob@example.com\npw\n")

	assert.Contains(t, out, "Name, email and password are required")
	_, ok := sess.CurrentUser()
	assert.False(t, ok)
}
