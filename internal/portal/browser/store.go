package browser

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired page sessions.
var ErrSessionNotFound = errors.New("browser: page session not found")

const defaultTTL = 30 * time.Minute

// Store keeps page sessions in memory with sliding expiry.
type Store struct {
	ttl   time.Duration
	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	sessions map[string]*Session

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides page-session id generation.
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewStore creates a store whose sessions expire ttl after their last use.
func NewStore(ttl time.Duration, opts ...StoreOption) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	s := &Store{
		ttl:      ttl,
		now:      time.Now,
		newID:    uuid.NewString,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a page session in lang and returns its id.
func (s *Store) Create(lang string) string {
	sess := newSession(s.newID(), lang)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess.expiresAt = s.now().Add(s.ttl)
	s.sessions[sess.id] = sess
	return sess.id
}

// Update runs fn on the session under the store lock and extends its expiry.
func (s *Store) Update(id string, fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	now := s.now()
	if !now.Before(sess.expiresAt) {
		delete(s.sessions, id)
		return ErrSessionNotFound
	}
	sess.expiresAt = now.Add(s.ttl)
	if fn == nil {
		return nil
	}
	return fn(sess)
}

// Get returns a copy of the session and extends its expiry.
func (s *Store) Get(id string) (Snapshot, error) {
	var snap Snapshot
	err := s.Update(id, func(sess *Session) error {
		snap = sess.Snapshot()
		return nil
	})
	return snap, err
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if !now.Before(sess.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps expired sessions every interval until Close.
func (s *Store) StartJanitor(interval time.Duration) {
	if interval <= 0 {
		interval = s.ttl / 2
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

// Close stops the janitor.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}
