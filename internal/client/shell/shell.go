// Package shell is the interactive command loop standing in for the mobile
// app's screens.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/GymKeeper/internal/client/api"
	"github.com/atinyakov/GymKeeper/internal/client/notify"
	"github.com/atinyakov/GymKeeper/internal/models"
)

// Session is the session manager as seen by the screens.
type Session interface {
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, name, email, password string) error
	SignOut()
	CurrentUser() (models.UserProfile, bool)
	SubmitProfile(ctx context.Context, update models.ProfileUpdate) error
	FetchHistory(ctx context.Context) ([]models.HistoryEntry, error)
}

// Catalog serves the home and exercise screens.
type Catalog interface {
	Groups(ctx context.Context) ([]string, error)
	ExercisesByGroup(ctx context.Context, group string) ([]models.Exercise, error)
	Exercise(ctx context.Context, id string) (models.Exercise, error)
	RegisterCompletion(ctx context.Context, exerciseID string) error
}

// Activity pushes the weekly exercise count.
type Activity interface {
	SyncWeeklyExerciseCount(ctx context.Context, entries []models.HistoryEntry) error
	Refresh(ctx context.Context) error
}

// TagRecorder exposes the tags sent so far.
type TagRecorder interface {
	notify.Tagger
	Tags() map[string]string
}

// Shell runs commands read from in and writes results to out.
type Shell struct {
	prompter
	session  Session
	catalog  Catalog
	activity Activity
	tags     TagRecorder
	log      *zap.Logger
}

// New returns a Shell.
func New(in io.Reader, out io.Writer, session Session, catalog Catalog, activity Activity, tags TagRecorder, log *zap.Logger) *Shell {
	if log == nil {
		log = zap.NewNop()
	}
	return &Shell{
		prompter: prompter{scanner: bufio.NewScanner(in), out: out},
		session:  session,
		catalog:  catalog,
		activity: activity,
		tags:     tags,
		log:      log,
	}
}

const helpText = "Available commands: help, signup, signin, signout, whoami, profile, history, groups, exercises <group>, done <id>, week, tags, exit"

// Run reads commands until "exit", end of input or ctx is done.
func (s *Shell) Run(ctx context.Context) {
	for ctx.Err() == nil {
		fmt.Fprint(s.out, "gymkeeper> ")
		if !s.scanner.Scan() {
			return
		}
		args := strings.Fields(s.scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			fmt.Fprintln(s.out, "Bye")
			return
		}
		s.dispatch(ctx, args)
	}
}

func (s *Shell) dispatch(ctx context.Context, args []string) {
	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "signup":
		s.signUp(ctx)
	case "signin":
		s.signIn(ctx)
	case "signout":
		s.session.SignOut()
		s.focus(ctx)
		fmt.Fprintln(s.out, "Signed out")
	case "whoami":
		s.whoami(ctx)
	case "profile":
		s.profile(ctx)
	case "history":
		s.history(ctx)
	case "groups":
		s.groups(ctx)
	case "exercises":
		if len(args) < 2 {
			fmt.Fprintln(s.out, "Usage: exercises <group>")
			return
		}
		s.exercises(ctx, args[1])
	case "done":
		if len(args) < 2 {
			fmt.Fprintln(s.out, "Usage: done <id>")
			return
		}
		s.done(ctx, args[1])
	case "week":
		s.week(ctx)
	case "tags":
		s.printTags()
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
}

// focus reports the auth status tag the way a screen does when it gains
// focus.
func (s *Shell) focus(ctx context.Context) bool {
	_, ok := s.session.CurrentUser()
	if err := notify.TagAuthStatus(ctx, s.tags, ok); err != nil {
		s.log.Warn("failed to send auth status tag", zap.Error(err))
	}
	return ok
}

// requireUser focuses an authenticated screen, refusing when signed out.
func (s *Shell) requireUser(ctx context.Context) (models.UserProfile, bool) {
	if !s.focus(ctx) {
		fmt.Fprintln(s.out, "Please sign in first")
		return models.UserProfile{}, false
	}
	return s.session.CurrentUser()
}

func (s *Shell) signIn(ctx context.Context) {
	if user, ok := s.session.CurrentUser(); ok {
		fmt.Fprintf(s.out, "Already signed in as %s\n", user.Email)
		return
	}
	s.focus(ctx)
	email, password, ok := s.promptCredentials()
	if !ok {
		return
	}
	if email == "" || password == "" {
		fmt.Fprintln(s.out, "Email and password are required")
		return
	}
	if err := s.session.SignIn(ctx, email, password); err != nil {
		s.report(err)
		return
	}
	user, _ := s.session.CurrentUser()
	s.focus(ctx)
	fmt.Fprintf(s.out, "Welcome, %s\n", user.Name)
}

func (s *Shell) signUp(ctx context.Context) {
	if user, ok := s.session.CurrentUser(); ok {
		fmt.Fprintf(s.out, "Already signed in as %s\n", user.Email)
		return
	}
	s.focus(ctx)
	name, ok := s.ask("Name: ")
	if !ok {
		return
	}
	email, password, ok := s.promptCredentials()
	if !ok {
		return
	}
	if name == "" || email == "" || password == "" {
		fmt.Fprintln(s.out, "Name, email and password are required")
		return
	}
	if err := s.session.SignUp(ctx, name, email, password); err != nil {
		s.report(err)
		return
	}
	s.focus(ctx)
	fmt.Fprintf(s.out, "Welcome, %s\n", name)
}

func (s *Shell) whoami(ctx context.Context) {
	user, ok := s.requireUser(ctx)
	if !ok {
		return
	}
	fmt.Fprintf(s.out, "%s <%s> (id %s)\n", user.Name, user.Email, user.ID)
}

func (s *Shell) profile(ctx context.Context) {
	user, ok := s.requireUser(ctx)
	if !ok {
		return
	}
	update, ok := s.promptProfileUpdate(user)
	if !ok {
		return
	}
	if err := s.session.SubmitProfile(ctx, update); err != nil {
		s.report(err)
		return
	}
	fmt.Fprintln(s.out, "Profile updated")
}

func (s *Shell) history(ctx context.Context) {
	if _, ok := s.requireUser(ctx); !ok {
		return
	}
	entries, err := s.session.FetchHistory(ctx)
	if err != nil {
		s.report(err)
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(s.out, "No exercises registered yet")
	}
	for _, e := range entries {
		fmt.Fprintln(s.out, e.Title)
		for _, r := range e.Data {
			fmt.Fprintf(s.out, "  %s  %s (%s)\n", r.Hour, r.Name, r.Group)
		}
	}
	if err := s.activity.SyncWeeklyExerciseCount(ctx, entries); err != nil {
		s.log.Warn("failed to send weekly exercise count", zap.Error(err))
	}
}

func (s *Shell) groups(ctx context.Context) {
	if _, ok := s.requireUser(ctx); !ok {
		return
	}
	groups, err := s.catalog.Groups(ctx)
	if err != nil {
		s.report(err)
		return
	}
	for _, g := range groups {
		fmt.Fprintln(s.out, g)
	}
}

func (s *Shell) exercises(ctx context.Context, group string) {
	if _, ok := s.requireUser(ctx); !ok {
		return
	}
	list, err := s.catalog.ExercisesByGroup(ctx, group)
	if err != nil {
		s.report(err)
		return
	}
	for _, ex := range list {
		fmt.Fprintf(s.out, "%s  %s  %dx%d\n", ex.ID, ex.Name, ex.Series, ex.Repetitions)
	}
}

func (s *Shell) done(ctx context.Context, id string) {
	if _, ok := s.requireUser(ctx); !ok {
		return
	}
	ex, err := s.catalog.Exercise(ctx, id)
	if err != nil {
		s.report(err)
		return
	}
	if err := s.catalog.RegisterCompletion(ctx, ex.ID); err != nil {
		s.report(err)
		return
	}
	fmt.Fprintf(s.out, "Registered %s\n", ex.Name)
}

func (s *Shell) week(ctx context.Context) {
	if _, ok := s.requireUser(ctx); !ok {
		return
	}
	if err := s.activity.Refresh(ctx); err != nil {
		s.report(err)
		return
	}
	fmt.Fprintf(s.out, "Exercises this week: %s\n", s.tags.Tags()[notify.TagWeekExercisesCount])
}

func (s *Shell) printTags() {
	tags := s.tags.Tags()
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(s.out, "%s=%s\n", k, tags[k])
	}
}

// report prints a user-facing message for err.
func (s *Shell) report(err error) {
	var apiErr *api.APIError
	switch {
	case errors.Is(err, api.ErrNetwork):
		fmt.Fprintln(s.out, "Server unreachable, try again later")
	case errors.Is(err, api.ErrAuthenticationRejected):
		fmt.Fprintln(s.out, "Invalid email or password")
	case errors.Is(err, api.ErrSessionInvalidated):
		fmt.Fprintln(s.out, "Your session has expired, please sign in again")
	case errors.As(err, &apiErr) && apiErr.Message != "":
		fmt.Fprintln(s.out, apiErr.Message)
	default:
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
	s.log.Debug("command failed", zap.Error(err))
}
