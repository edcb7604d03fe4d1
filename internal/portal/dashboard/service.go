package dashboard

import (
	"context"
	"errors"
	"io"

	"citizenportal.org/portal-web/internal/portal/catalog"
	"citizenportal.org/portal-web/internal/portal/engagement"
)

var (
	// ErrNotConfigured indicates the dashboard service dependency has not been provided.
	ErrNotConfigured = errors.New("dashboard service not configured")
	// ErrServiceNotFound is returned when the backend has no service with the id.
	ErrServiceNotFound = errors.New("dashboard: service not found")
	// ErrServiceIDRequired rejects an upsert without an id.
	ErrServiceIDRequired = errors.New("dashboard: service id required")
)

// TopQuestionsLimit bounds the top-questions chart.
const TopQuestionsLimit = 10

// Service exposes the admin analytics backed by the citizen-portal API.
// credentials is the backend session cookie captured at login.
type Service interface {
	// FetchInsights returns the aggregate snapshot.
	FetchInsights(ctx context.Context, credentials string) (InsightsSnapshot, error)
	// FetchEngagements returns the most recent engagement records.
	FetchEngagements(ctx context.Context, credentials string) ([]engagement.Record, error)
	// Login submits the admin form to the backend.
	Login(ctx context.Context, username, password string) (LoginResult, error)
	// Logout ends the backend session. Callers clear local state regardless.
	Logout(ctx context.Context, credentials string) error
	// ExportCSV opens the backend CSV export. Callers must close the reader.
	ExportCSV(ctx context.Context, credentials string) (io.ReadCloser, error)

	// ListServices returns the catalog as the admin API stores it.
	ListServices(ctx context.Context, credentials string) (catalog.Catalog, error)
	// FetchService returns one service by id.
	FetchService(ctx context.Context, credentials, id string) (catalog.Entry, error)
	// SaveService creates the service or replaces the one with the same id.
	SaveService(ctx context.Context, credentials string, entry catalog.Entry) error
	// DeleteService removes the service with id.
	DeleteService(ctx context.Context, credentials, id string) error
}

// InsightsSnapshot is the aggregate analytics payload.
type InsightsSnapshot struct {
	AgeGroups          Counts              `json:"age_groups"`
	Jobs               Counts              `json:"jobs"`
	Services           Counts              `json:"services"`
	Questions          Counts              `json:"questions"`
	Desires            Counts              `json:"desires"`
	PremiumSuggestions []PremiumSuggestion `json:"premium_suggestions"`
}

// TopQuestions returns the questions chart data: the first TopQuestionsLimit
// questions in the order the backend reported them.
func (s InsightsSnapshot) TopQuestions() Counts {
	return s.Questions.Head(TopQuestionsLimit)
}

// PremiumSuggestion flags a visitor who repeatedly asked the same question.
type PremiumSuggestion struct {
	User     string `json:"user"`
	Question string `json:"question"`
	Count    int    `json:"count"`
}

// LoginResult reports the outcome of a backend login.
type LoginResult struct {
	// Redirect is the path the backend redirected to, empty when it did not redirect.
	Redirect string
	// Credentials is the backend session cookie to forward on admin calls.
	Credentials string
}

// Succeeded reports whether the backend accepted the login with a redirect.
func (r LoginResult) Succeeded() bool {
	return r.Redirect != ""
}
