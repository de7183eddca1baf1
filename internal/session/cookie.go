// Package session carries the session token between server and browser in an HTTP-only cookie.
//
// Security attributes are decided once, from the deployment mode, and captured in CookieConfig:
// production cookies are Secure and SameSite=None so a frontend on another origin can send them,
// development cookies are plain-HTTP friendly and SameSite=Lax.
package session

import (
	"errors"
	"net/http"
	"time"
)

const (
	// CookieName is the name of the session cookie
	CookieName = "token"
	// TokenTTL is both the token validity and the cookie max age
	TokenTTL = 7 * 24 * time.Hour
)

// ErrNoCookie is returned by Read when the request carries no session cookie.
var ErrNoCookie = errors.New("no session cookie")

// CookieConfig holds the attributes applied to every session cookie.
type CookieConfig struct {
	Name     string
	Path     string
	MaxAge   time.Duration
	Secure   bool
	SameSite http.SameSite
}

// NewCookieConfig returns the cookie policy for the given deployment mode.
func NewCookieConfig(production bool) CookieConfig {
	cfg := CookieConfig{
		Name:     CookieName,
		Path:     "/",
		MaxAge:   TokenTTL,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	}
	if production {
		cfg.Secure = true
		cfg.SameSite = http.SameSiteNoneMode
	}
	return cfg
}

// Transport sets, clears and reads the session cookie.
type Transport struct {
	cfg CookieConfig
	now func() time.Time
}

func NewTransport(cfg CookieConfig) *Transport {
	if cfg.Name == "" {
		cfg.Name = CookieName
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &Transport{cfg: cfg, now: time.Now}
}

// Config returns the policy the transport applies.
func (t *Transport) Config() CookieConfig {
	return t.cfg
}

// Set attaches token as an HTTP-only cookie that lives for MaxAge.
func (t *Transport) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     t.cfg.Name,
		Value:    token,
		Path:     t.cfg.Path,
		MaxAge:   int(t.cfg.MaxAge / time.Second),
		Expires:  t.now().Add(t.cfg.MaxAge),
		HttpOnly: true,
		Secure:   t.cfg.Secure,
		SameSite: t.cfg.SameSite,
	})
}

// Clear overwrites the cookie with an empty value that expired at the Unix epoch.
func (t *Transport) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     t.cfg.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   t.cfg.Secure,
		SameSite: t.cfg.SameSite,
	})
}

// Read returns the token carried by r.
func (t *Transport) Read(r *http.Request) (string, error) {
	c, err := r.Cookie(t.cfg.Name)
	if err != nil || c.Value == "" {
		return "", ErrNoCookie
	}
	return c.Value, nil
}
