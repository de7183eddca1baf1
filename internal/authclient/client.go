// Package authclient is the client side of the session: it keeps the cookie
// jar and the authenticated/loading flags a storefront UI renders from.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is a snapshot of the client auth context
type State struct {
	IsAuthenticated bool
	IsLoading       bool
}

// User is the public identity returned by the API
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// APIError carries a non-2xx response. Message is the server's message unchanged.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("authclient: %d %s", e.Status, e.Message)
}

type Option func(*Client)

// WithHTTPClient sets the underlying client. hc is copied, so a jar added
// for a nil Jar never leaks back to the caller.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for failed probes
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// OnChange registers fn to be called after every state transition
func OnChange(fn func(State)) Option {
	return func(c *Client) { c.listeners = append(c.listeners, fn) }
}

type Client struct {
	baseURL   *url.URL
	http      *http.Client
	logger    zerolog.Logger
	listeners []func(State)

	mu     sync.Mutex
	state  State
	probed chan struct{}
	once   sync.Once
}

// New returns a client in the loading state. baseURL is the server root, e.g. http://localhost:3000.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL: u,
		logger:  zerolog.Nop(),
		state:   State{IsAuthenticated: false, IsLoading: true},
		probed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	} else {
		hc := *c.http
		c.http = &hc
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

// State returns the current snapshot
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until the first Probe has resolved or ctx is done.
func (c *Client) Wait(ctx context.Context) (State, error) {
	select {
	case <-c.probed:
		return c.State(), nil
	case <-ctx.Done():
		return c.State(), ctx.Err()
	}
}

// Probe asks the server whether the session cookie is still good. Any failure
// leaves the client unauthenticated; the returned error is informational.
func (c *Client) Probe(ctx context.Context) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Authentication check failed")
		c.transition(func(s *State) { *s = State{IsAuthenticated: false, IsLoading: false} })
		c.once.Do(func() { close(c.probed) })
		return nil, err
	}
	c.transition(func(s *State) { *s = State{IsAuthenticated: true, IsLoading: false} })
	c.once.Do(func() { close(c.probed) })
	return &user, nil
}

type authResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// Register creates an account and signs in. Failures leave the state untouched.
func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	var res authResponse
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &res); err != nil {
		return nil, err
	}
	c.setAuthenticated(true)
	return &res.User, nil
}

// Login signs in. Failures leave the state untouched.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var res authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &res); err != nil {
		return nil, err
	}
	c.setAuthenticated(true)
	return &res.User, nil
}

// Logout clears the session cookie. The client is unauthenticated afterwards
// even if the request failed.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.setAuthenticated(false)
	return err
}

func (c *Client) setAuthenticated(v bool) {
	c.transition(func(s *State) { s.IsAuthenticated = v })
}

// transition applies update under the lock and notifies listeners outside it.
func (c *Client) transition(update func(*State)) {
	c.mu.Lock()
	prev := c.state
	update(&c.state)
	next := c.state
	changed := prev != next
	c.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range c.listeners {
		fn(next)
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil || msg.Message == "" {
			msg.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
