// Package session owns the signed-in user's identity on the client. It
// restores the session on launch, signs users in and out, keeps the
// credential store and the HTTP facade's bearer token in step, and signs
// out when the facade reports that the server rejected the session.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/atinyakov/GymKeeper/internal/client/api"
	"github.com/atinyakov/GymKeeper/internal/client/storage"
	"github.com/atinyakov/GymKeeper/internal/models"
)

// Backend paths used by the manager.
const (
	SessionsPath = "/sessions"
	HistoryPath  = "/history"
	UsersPath    = "/users"
)

// CredentialStore persists the profile and token pair across restarts.
type CredentialStore interface {
	ReadProfile() (models.UserProfile, error)
	WriteProfile(models.UserProfile) error
	ClearProfile() error
	ReadTokenPair() (models.TokenPair, error)
	WriteTokenPair(models.TokenPair) error
	ClearTokenPair() error
}

// API is the HTTP facade the manager drives.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	PostPublic(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	SetDefaultAuthorizationHeader(token string)
	OnAuthenticationFailure(fn func()) (unsubscribe func())
}

// Manager is the session lifecycle manager.
type Manager struct {
	store CredentialStore
	api   API
	log   *zap.Logger

	mu              sync.Mutex
	state           State
	epoch           uint64 // bumped by every sign-out
	bootstrapping   bool
	fetchingHistory bool
	watchers        map[int]func(State)
	nextWatcher     int

	// writeMu orders persistence + activation of SignIn and UpdateProfile.
	// SignOut never takes it.
	writeMu sync.Mutex

	history    singleflight.Group
	unregister func()
	closeOnce  sync.Once
}

// New returns a Manager in the bootstrapping state and registers SignOut as
// the facade's authentication-failure handler. Call Close when done.
func New(store CredentialStore, client API, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		store:         store,
		api:           client,
		log:           log,
		bootstrapping: true,
		watchers:      make(map[int]func(State)),
	}
	m.unregister = client.OnAuthenticationFailure(m.SignOut)
	return m
}

// Close removes the manager's handler from the facade.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		if m.unregister != nil {
			m.unregister()
		}
	})
}

// State returns the current session snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentUser returns the signed-in profile, if any.
func (m *Manager) CurrentUser() (models.UserProfile, bool) {
	return m.State().Profile()
}

// IsBootstrapping reports whether Bootstrap has not completed yet. Callers
// must not route on State while it is true.
func (m *Manager) IsBootstrapping() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bootstrapping
}

// IsFetchingHistory reports whether a history fetch is in flight.
func (m *Manager) IsFetchingHistory() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchingHistory
}

// Watch calls fn with every new state until the returned function is called.
func (m *Manager) Watch(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextWatcher
	m.nextWatcher++
	m.watchers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
	}
}

// Bootstrap restores a persisted session. Any read failure leaves the
// manager unauthenticated. It is not safe to run concurrently with itself.
func (m *Manager) Bootstrap() State {
	m.mu.Lock()
	m.bootstrapping = true
	epoch := m.epoch
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.bootstrapping = false
		m.mu.Unlock()
	}()

	profile, pair, err := m.loadCredentials()
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.log.Warn("credential read failed, starting signed out", zap.Error(err))
		}
		return m.State()
	}
	if exp, ok := api.AccessTokenExpiry(pair.AccessToken); ok && time.Now().After(exp) {
		m.log.Info("stored access token has expired, it will be refreshed on first use",
			zap.Time("expired_at", exp))
	}

	m.mu.Lock()
	if m.epoch != epoch || m.state.IsAuthenticated() {
		s := m.state
		m.mu.Unlock()
		return s
	}
	m.api.SetDefaultAuthorizationHeader(pair.AccessToken)
	next := Authenticated(profile)
	notify := m.setStateLocked(next)
	m.mu.Unlock()

	notify()
	m.log.Info("session restored", zap.String("user_id", profile.ID))
	return next
}

func (m *Manager) loadCredentials() (models.UserProfile, models.TokenPair, error) {
	profile, err := m.store.ReadProfile()
	if err != nil {
		return models.UserProfile{}, models.TokenPair{}, err
	}
	pair, err := m.store.ReadTokenPair()
	if err != nil {
		return models.UserProfile{}, models.TokenPair{}, err
	}
	if profile.IsZero() || !pair.Valid() {
		return models.UserProfile{}, models.TokenPair{}, storage.ErrNotFound
	}
	return profile, pair, nil
}

// SignIn authenticates against the backend, persists the session and only
// then activates it. Backend and network errors are returned unchanged, and
// rejected credentials never end an existing session.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()

	var resp models.SessionResponse
	req := models.SignInRequest{Email: email, Password: password}
	if err := m.api.PostPublic(ctx, SessionsPath, req, &resp); err != nil {
		return err
	}
	pair := models.TokenPair{AccessToken: resp.Token, RefreshToken: resp.RefreshToken}
	if resp.User.IsZero() || !pair.Valid() {
		return ErrInvalidSessionResponse
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if m.epochChanged(epoch) {
		return ErrSessionChanged
	}
	if err := m.persist(resp.User, pair); err != nil {
		return err
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.clearStore()
		return ErrSessionChanged
	}
	m.api.SetDefaultAuthorizationHeader(pair.AccessToken)
	notify := m.setStateLocked(Authenticated(resp.User))
	m.mu.Unlock()

	notify()
	m.log.Info("signed in", zap.String("user_id", resp.User.ID))
	return nil
}

// SignUp creates an account and signs in with it.
func (m *Manager) SignUp(ctx context.Context, name, email, password string) error {
	req := models.SignUpRequest{Name: name, Email: email, Password: password}
	if err := m.api.PostPublic(ctx, UsersPath, req, nil); err != nil {
		return err
	}
	return m.SignIn(ctx, email, password)
}

// persist writes profile and tokens together; a failed token write removes
// the profile again so the store never holds one without the other.
func (m *Manager) persist(profile models.UserProfile, pair models.TokenPair) error {
	if err := m.store.WriteProfile(profile); err != nil {
		return fmt.Errorf("%w: save profile: %w", ErrCredentialPersistence, err)
	}
	if err := m.store.WriteTokenPair(pair); err != nil {
		if cerr := m.store.ClearProfile(); cerr != nil {
			m.log.Error("failed to roll back profile", zap.Error(cerr))
		}
		return fmt.Errorf("%w: save tokens: %w", ErrCredentialPersistence, err)
	}
	return nil
}

// SignOut ends the session. It is idempotent, safe to call at any time and
// is the facade's authentication-failure handler. Store failures are logged
// and do not keep the manager authenticated.
func (m *Manager) SignOut() {
	m.mu.Lock()
	m.epoch++
	m.api.SetDefaultAuthorizationHeader("")
	notify := m.setStateLocked(Unauthenticated)
	m.mu.Unlock()

	notify()
	m.clearStore()
}

func (m *Manager) clearStore() {
	if err := m.store.ClearProfile(); err != nil {
		m.log.Warn("failed to clear stored profile", zap.Error(err))
	}
	if err := m.store.ClearTokenPair(); err != nil {
		m.log.Warn("failed to clear stored tokens", zap.Error(err))
	}
}

// UpdateProfile replaces the in-memory profile immediately and then
// persists it. A persistence failure is returned but the in-memory profile
// is kept.
func (m *Manager) UpdateProfile(profile models.UserProfile) error {
	m.mu.Lock()
	if !m.state.IsAuthenticated() {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	epoch := m.epoch
	notify := m.setStateLocked(Authenticated(profile))
	m.mu.Unlock()
	notify()

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if m.epochChanged(epoch) {
		return nil
	}
	if err := m.store.WriteProfile(profile); err != nil {
		return fmt.Errorf("%w: save profile: %w", ErrCredentialPersistence, err)
	}
	if m.epochChanged(epoch) {
		m.clearStore()
	}
	return nil
}

// SubmitProfile sends the edited profile to the backend and applies the
// server's copy locally.
func (m *Manager) SubmitProfile(ctx context.Context, update models.ProfileUpdate) error {
	current, ok := m.CurrentUser()
	if !ok {
		return ErrNotAuthenticated
	}

	var updated models.UserProfile
	if err := m.api.Put(ctx, UsersPath, update, &updated); err != nil {
		return err
	}
	if updated.IsZero() {
		updated = current
		updated.Name = update.Name
	}
	return m.UpdateProfile(updated)
}

// FetchHistory reads the history feed. Overlapping calls share one request.
func (m *Manager) FetchHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	v, err, _ := m.history.Do(HistoryPath, func() (any, error) {
		m.setFetchingHistory(true)
		defer m.setFetchingHistory(false)

		var entries []models.HistoryEntry
		if err := m.api.Get(ctx, HistoryPath, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]models.HistoryEntry)), nil
}

func (m *Manager) setFetchingHistory(v bool) {
	m.mu.Lock()
	m.fetchingHistory = v
	m.mu.Unlock()
}

func (m *Manager) epochChanged(epoch uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch != epoch
}

// setStateLocked swaps the state and returns a function that notifies the
// watchers outside the lock. m.mu must be held.
func (m *Manager) setStateLocked(next State) func() {
	if m.state.equal(next) {
		return func() {}
	}
	m.state = next

	fns := make([]func(State), 0, len(m.watchers))
	for _, fn := range m.watchers {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(next)
		}
	}
}
