// Package browser holds the per-page-load state of the public service browser.
package browser

import (
	"errors"
	"time"

	"citizenportal.org/portal-web/internal/portal/catalog"
)

// State is the drill-down depth of a page session.
type State int

const (
	StateIdle State = iota
	StateServicesLoaded
	StateSubservicesShown
	StateQuestionsShown
	StateAnswerShown
)

var stateNames = [...]string{"idle", "services_loaded", "subservices_shown", "questions_shown", "answer_shown"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

var (
	// ErrNotFound is returned when a selection index is out of range.
	ErrNotFound = errors.New("browser: selection not found")
	// ErrOutOfOrder is returned when a deeper level is requested before its parent is shown.
	ErrOutOfOrder = errors.New("browser: selection out of order")
)

// Session is the context of one page load: the active language, the catalog
// fetched for it and the current selection path.
type Session struct {
	id        string
	lang      string
	catalog   catalog.Catalog
	state     State
	service   int
	sub       int
	question  int
	expiresAt time.Time
}

func newSession(id, lang string) *Session {
	return &Session{id: id, lang: lang, service: -1, sub: -1, question: -1}
}

// ID returns the page-session identifier.
func (s *Session) ID() string { return s.id }

// Lang returns the active language.
func (s *Session) Lang() string { return s.lang }

// State returns the drill-down state.
func (s *Session) State() State { return s.state }

// LoadServices caches a freshly fetched catalog for lang and clears the deeper panes.
func (s *Session) LoadServices(lang string, c catalog.Catalog) {
	s.lang = lang
	s.catalog = c
	s.state = StateServicesLoaded
	s.service, s.sub, s.question = -1, -1, -1
}

// SelectService shows the subservices of service si.
func (s *Session) SelectService(si int) (catalog.Entry, error) {
	if s.state < StateServicesLoaded {
		return catalog.Entry{}, ErrOutOfOrder
	}
	entry, ok := s.catalog.Service(si)
	if !ok {
		return catalog.Entry{}, ErrNotFound
	}
	s.service, s.sub, s.question = si, -1, -1
	s.state = StateSubservicesShown
	return entry, nil
}

// SelectSubservice shows the questions of subservice ssi under service si.
func (s *Session) SelectSubservice(si, ssi int) (catalog.Subservice, error) {
	if s.state < StateServicesLoaded {
		return catalog.Subservice{}, ErrOutOfOrder
	}
	entry, ok := s.catalog.Service(si)
	if !ok {
		return catalog.Subservice{}, ErrNotFound
	}
	sub, ok := entry.Subservice(ssi)
	if !ok {
		return catalog.Subservice{}, ErrNotFound
	}
	s.service, s.sub, s.question = si, ssi, -1
	s.state = StateQuestionsShown
	return sub, nil
}

// SelectQuestion shows the answer to question qi.
func (s *Session) SelectQuestion(si, ssi, qi int) (catalog.Question, error) {
	if s.state < StateServicesLoaded {
		return catalog.Question{}, ErrOutOfOrder
	}
	entry, ok := s.catalog.Service(si)
	if !ok {
		return catalog.Question{}, ErrNotFound
	}
	sub, ok := entry.Subservice(ssi)
	if !ok {
		return catalog.Question{}, ErrNotFound
	}
	q, ok := sub.Question(qi)
	if !ok {
		return catalog.Question{}, ErrNotFound
	}
	s.service, s.sub, s.question = si, ssi, qi
	s.state = StateAnswerShown
	return q, nil
}

// CurrentServiceName returns the localized name of the selected service.
func (s *Session) CurrentServiceName() string {
	entry, ok := s.catalog.Service(s.service)
	if !ok {
		return ""
	}
	return entry.Name.In(s.lang)
}

// CurrentQuestion returns the localized text of the answered question.
func (s *Session) CurrentQuestion() string {
	if s.state != StateAnswerShown {
		return ""
	}
	entry, _ := s.catalog.Service(s.service)
	sub, _ := entry.Subservice(s.sub)
	q, ok := sub.Question(s.question)
	if !ok {
		return ""
	}
	return q.Q.In(s.lang)
}

// Snapshot is a read-only copy of a session for rendering outside the store lock.
type Snapshot struct {
	ID       string
	Lang     string
	State    State
	Catalog  catalog.Catalog
	Service  int
	Sub      int
	Question int
}

// Snapshot copies the session fields.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:       s.id,
		Lang:     s.lang,
		State:    s.state,
		Catalog:  s.catalog,
		Service:  s.service,
		Sub:      s.sub,
		Question: s.question,
	}
}
