// Package api is the client's HTTP facade: it decorates every request with
// the current bearer token, classifies failures and notifies a single
// registered handler when the server stops accepting the session.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/atinyakov/GymKeeper/internal/models"
)

// RefreshPath is the endpoint that rotates a token pair.
const RefreshPath = "/sessions/refresh-token"

var errSessionChanged = errors.New("session changed during refresh")

// TokenStore is the part of the credential store the facade needs to
// rotate tokens.
type TokenStore interface {
	ReadTokenPair() (models.TokenPair, error)
	WriteTokenPair(models.TokenPair) error
}

// Client issues JSON requests against the backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	log     *zap.Logger

	mu      sync.Mutex
	token   string
	handler *registration

	refresh singleflight.Group
}

type registration struct {
	fn func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenStore enables transparent refresh of expired access tokens.
func WithTokenStore(ts TokenStore) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetDefaultAuthorizationHeader installs the access token attached to every
// subsequent request. An empty token removes the header.
func (c *Client) SetDefaultAuthorizationHeader(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the access token currently attached to requests.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// OnAuthenticationFailure registers fn to run once per request that fails
// because the server no longer accepts the session. Only one handler is
// held; registering replaces the previous one. The returned function
// removes fn and is safe to call more than once.
func (c *Client) OnAuthenticationFailure(fn func()) (unsubscribe func()) {
	reg := &registration{fn: fn}

	c.mu.Lock()
	c.handler = reg
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			if c.handler == reg {
				c.handler = nil
			}
			c.mu.Unlock()
		})
	}
}

// Get decodes the JSON response of GET path into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body as JSON and decodes the response into out. out may be nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put sends body as JSON and decodes the response into out. out may be nil.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// PostPublic posts to an endpoint that authenticates by its body, such as
// sign-in. No bearer token is sent, a 401 is always reported as
// ErrAuthenticationRejected and the failure handler never runs.
func (c *Client) PostPublic(ctx context.Context, path string, body, out any) error {
	err := c.send(ctx, http.MethodPost, path, "", body, out)
	if apiErr, ok := unauthorized(err); ok {
		return fmt.Errorf("%w: %w", ErrAuthenticationRejected, apiErr)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token := c.Token()
	err := c.send(ctx, method, path, token, body, out)

	apiErr, ok := unauthorized(err)
	if !ok {
		return err
	}
	if token == "" {
		return fmt.Errorf("%w: %w", ErrAuthenticationRejected, apiErr)
	}

	switch current := c.Token(); {
	case current == "":
		// signed out while the request was in flight
		return fmt.Errorf("%w: %w", ErrSessionInvalidated, apiErr)
	case current != token:
		// rotated by another request while this one was in flight
		err = c.send(ctx, method, path, current, body, out)
		if apiErr, ok = unauthorized(err); !ok {
			return err
		}
		token = current
	case apiErr.Message == MessageTokenExpired && c.tokens != nil:
		fresh, rerr := c.refreshAccessToken(ctx, token)
		if rerr == nil {
			err = c.send(ctx, method, path, fresh, body, out)
			if apiErr, ok = unauthorized(err); !ok {
				return err
			}
			token = fresh
		} else {
			c.log.Warn("token refresh failed", zap.String("path", path), zap.Error(rerr))
		}
	}

	return c.invalidate(method, path, token, apiErr)
}

// invalidate reports a rejected session. The handler only runs when the
// rejected token is still the installed one, so a request that raced a
// sign-out or a newer session never signs that session out.
func (c *Client) invalidate(method, path, token string, apiErr *APIError) error {
	if c.Token() == token {
		c.log.Info("session rejected by server",
			zap.String("method", method), zap.String("path", path), zap.String("reason", apiErr.Message))
		c.notifyAuthFailure()
	}
	return fmt.Errorf("%w: %w", ErrSessionInvalidated, apiErr)
}

func unauthorized(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		return apiErr, true
	}
	return nil, false
}

func (c *Client) notifyAuthFailure() {
	c.mu.Lock()
	reg := c.handler
	c.mu.Unlock()

	if reg != nil && reg.fn != nil {
		reg.fn()
	}
}

// refreshAccessToken rotates the token pair once for all callers that saw
// the same stale token expire. It gives up without touching the server when
// stale is no longer the installed token.
func (c *Client) refreshAccessToken(ctx context.Context, stale string) (string, error) {
	v, err, _ := c.refresh.Do(stale, func() (any, error) {
		if c.Token() != stale {
			return "", errSessionChanged
		}
		pair, err := c.tokens.ReadTokenPair()
		if err != nil {
			return "", fmt.Errorf("read refresh token: %w", err)
		}

		var rotated models.TokenPair
		req := models.RefreshRequest{RefreshToken: pair.RefreshToken}
		if err := c.send(ctx, http.MethodPost, RefreshPath, "", req, &rotated); err != nil {
			return "", err
		}
		if !rotated.Valid() {
			return "", errors.New("refresh response missing tokens")
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.token != stale {
			return "", errSessionChanged
		}
		if err := c.tokens.WriteTokenPair(rotated); err != nil {
			return "", fmt.Errorf("persist refreshed tokens: %w", err)
		}
		c.token = rotated.AccessToken
		return rotated.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) send(ctx context.Context, method, path, token string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}
