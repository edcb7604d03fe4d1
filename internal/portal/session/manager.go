// Package session keeps the admin's backend login in a signed, encrypted cookie.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const (
	defaultCookieName  = "portal_admin_session"
	defaultCookiePath  = "/"
	defaultLifetime    = 12 * time.Hour
	defaultIdleTimeout = 30 * time.Minute
)

var (
	// ErrExpired indicates the stored session passed its idle or absolute limit.
	ErrExpired = errors.New("session expired")
	// ErrInvalidConfig indicates the manager was given missing or invalid options.
	ErrInvalidConfig = errors.New("session: invalid config")
)

// Config controls cookie encoding and lifecycle limits.
type Config struct {
	CookieName     string
	HashKey        []byte
	BlockKey       []byte
	CookiePath     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite

	IdleTimeout time.Duration
	Lifetime    time.Duration
	Now         func() time.Time
}

// Manager encodes sessions into cookies with gorilla/securecookie.
type Manager struct {
	cfg   Config
	codec *securecookie.SecureCookie
}

// NewManager validates cfg and fills in defaults.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.HashKey) == 0 {
		return nil, fmt.Errorf("%w: hash key is required", ErrInvalidConfig)
	}
	switch len(cfg.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: block key must be 16, 24 or 32 bytes", ErrInvalidConfig)
	}

	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = defaultCookiePath
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = defaultLifetime
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.CookieSameSite == 0 || cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(cfg.Lifetime.Seconds()))

	return &Manager{cfg: cfg, codec: codec}, nil
}

// GenerateKey returns n random bytes for use as a hash or block key.
func GenerateKey(n int) []byte {
	return securecookie.GenerateRandomKey(n)
}

// Load decodes the request's session. A missing or undecodable cookie yields
// a fresh session; an expired one yields ErrExpired.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return m.New(), nil
	}
	var data payload
	if err := m.codec.Decode(m.cfg.CookieName, cookie.Value, &data); err != nil || data.ID == "" {
		return m.New(), nil
	}
	sess := &Session{data: data}
	if sess.expired(m.cfg.Now(), m.cfg.IdleTimeout) {
		return nil, ErrExpired
	}
	return sess, nil
}

// New returns an anonymous session.
func (m *Manager) New() *Session {
	now := m.cfg.Now().UTC()
	return &Session{data: payload{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		LastActive: now,
		ExpiresAt:  now.Add(m.cfg.Lifetime),
	}}
}

// Save writes the session cookie. Destroyed sessions clear it and anonymous
// sessions nobody touched are not written at all.
func (m *Manager) Save(w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return errors.New("session: nil session")
	}
	if sess.destroyed {
		m.Destroy(w)
		return nil
	}
	if !sess.signedIn() && !sess.dirty {
		return nil
	}

	now := m.cfg.Now()
	sess.Touch(now)
	encoded, err := m.codec.Encode(m.cfg.CookieName, sess.data)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	remaining := sess.data.ExpiresAt.Sub(now)
	maxAge := int(remaining.Round(time.Second).Seconds())
	if remaining <= 0 {
		maxAge = -1
	}
	http.SetCookie(w, m.cookie(encoded, maxAge, sess.data.ExpiresAt))
	return nil
}

// Destroy expires the cookie on the client.
func (m *Manager) Destroy(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie("", -1, time.Unix(0, 0)))
}

func (m *Manager) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     m.cfg.CookiePath,
		Domain:   m.cfg.CookieDomain,
		Expires:  expires.UTC(),
		MaxAge:   maxAge,
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: m.cfg.CookieSameSite,
	}
}
