package session

import "github.com/atinyakov/GymKeeper/internal/models"

// State is an immutable snapshot of the session. The zero value is the
// unauthenticated state.
type State struct {
	profile *models.UserProfile
}

// Unauthenticated is the signed-out state.
var Unauthenticated = State{}

// Authenticated returns the signed-in state for p.
func Authenticated(p models.UserProfile) State {
	return State{profile: &p}
}

// IsAuthenticated reports whether a user is signed in.
func (s State) IsAuthenticated() bool {
	return s.profile != nil
}

// Profile returns a copy of the signed-in user's profile.
func (s State) Profile() (models.UserProfile, bool) {
	if s.profile == nil {
		return models.UserProfile{}, false
	}
	return *s.profile, true
}

func (s State) String() string {
	if s.profile == nil {
		return "unauthenticated"
	}
	return "authenticated"
}

func (s State) equal(o State) bool {
	if s.profile == nil || o.profile == nil {
		return s.profile == o.profile
	}
	return *s.profile == *o.profile
}
