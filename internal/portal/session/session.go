package session

import "time"

// Admin identifies the signed-in administrator.
type Admin struct {
	Username   string    `json:"username"`
	SignedInAt time.Time `json:"signedInAt"`
}

// payload is what the cookie carries.
type payload struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Admin      *Admin    `json:"admin,omitempty"`
	// Backend is the Cookie header value the backend issued at login.
	Backend string `json:"backend,omitempty"`
}

// Session is the admin state for one request. Changes are written back by
// Manager.Save.
type Session struct {
	data      payload
	dirty     bool
	destroyed bool
}

// ID returns the stable session identifier.
func (s *Session) ID() string { return s.data.ID }

// CreatedAt returns when the session was first issued.
func (s *Session) CreatedAt() time.Time { return s.data.CreatedAt }

// Admin returns a copy of the signed-in administrator, or nil.
func (s *Session) Admin() *Admin {
	if s.data.Admin == nil {
		return nil
	}
	a := *s.data.Admin
	return &a
}

// BackendCredentials returns the backend session cookie to forward on admin calls.
func (s *Session) BackendCredentials() string { return s.data.Backend }

// SignIn records the administrator and their backend session.
func (s *Session) SignIn(username, credentials string, at time.Time) {
	s.data.Admin = &Admin{Username: username, SignedInAt: at.UTC()}
	s.data.Backend = credentials
	s.dirty = true
}

// SignOut forgets the administrator and the backend cookie but keeps the session id.
func (s *Session) SignOut() {
	if s.data.Admin == nil && s.data.Backend == "" {
		return
	}
	s.data.Admin = nil
	s.data.Backend = ""
	s.dirty = true
}

// Destroy clears the cookie when the session is saved.
func (s *Session) Destroy() {
	s.destroyed = true
}

// Touch slides the idle window forward.
func (s *Session) Touch(now time.Time) {
	if now = now.UTC(); now.After(s.data.LastActive) {
		s.data.LastActive = now
		s.dirty = true
	}
}

func (s *Session) signedIn() bool {
	return s.data.Admin != nil
}

func (s *Session) expired(now time.Time, idle time.Duration) bool {
	now = now.UTC()
	if !s.data.ExpiresAt.IsZero() && now.After(s.data.ExpiresAt) {
		return true
	}
	last := s.data.LastActive
	if last.IsZero() {
		last = s.data.CreatedAt
	}
	return !last.IsZero() && now.Sub(last) > idle
}
