// Package notify holds the notification-tag contract: the keys the push
// provider segments users on, and Tagger implementations that deliver them.
package notify

import (
	"context"
	"maps"
	"sync"

	"go.uber.org/zap"
)

// Tag keys understood by the push provider.
const (
	TagUserAuthStatus     = "user_auth_status"
	TagWeekExercisesCount = "week_exercises_count"
	TagLastExercisesDate  = "last_exercises_date"
)

// AuthStatus is the value of TagUserAuthStatus.
type AuthStatus string

const (
	StatusAuthenticated   AuthStatus = "authenticated"
	StatusUnauthenticated AuthStatus = "unauthenticated"
)

// Tagger sends one key/value tag for the current device.
type Tagger interface {
	SendTag(ctx context.Context, key, value string) error
}

// TagAuthStatus records whether the user is looking at authenticated
// screens. Screens call it on focus.
func TagAuthStatus(ctx context.Context, t Tagger, authenticated bool) error {
	status := StatusUnauthenticated
	if authenticated {
		status = StatusAuthenticated
	}
	return t.SendTag(ctx, TagUserAuthStatus, string(status))
}

// LogTagger writes tags to the log instead of a push provider.
type LogTagger struct {
	log *zap.Logger
}

// NewLogTagger returns a LogTagger writing to log.
func NewLogTagger(log *zap.Logger) *LogTagger {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogTagger{log: log}
}

func (t *LogTagger) SendTag(_ context.Context, key, value string) error {
	t.log.Info("notification tag", zap.String("key", key), zap.String("value", value))
	return nil
}

// Recorder keeps the last value of every tag and forwards to next, if set.
type Recorder struct {
	next Tagger

	mu   sync.Mutex
	tags map[string]string
}

// NewRecorder returns a Recorder forwarding to next. next may be nil.
func NewRecorder(next Tagger) *Recorder {
	return &Recorder{next: next, tags: make(map[string]string)}
}

func (r *Recorder) SendTag(ctx context.Context, key, value string) error {
	r.mu.Lock()
	r.tags[key] = value
	r.mu.Unlock()

	if r.next == nil {
		return nil
	}
	return r.next.SendTag(ctx, key, value)
}

// Tags returns a copy of the recorded tags.
func (r *Recorder) Tags() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.tags)
}

// Get returns the last value sent for key.
func (r *Recorder) Get(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.tags[key]
	return v, ok
}
