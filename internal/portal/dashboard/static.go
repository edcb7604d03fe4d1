package dashboard

import (
	"context"
	"crypto/subtle"
	"io"
	"strings"
	"sync"

	"citizenportal.org/portal-web/internal/portal/backend"
	"citizenportal.org/portal-web/internal/portal/catalog"
	"citizenportal.org/portal-web/internal/portal/engagement"
	"citizenportal.org/portal-web/internal/portal/export"
)

const staticCredentials = "portal_static_session=dev"

// StaticService provides canned responses for development and tests.
type StaticService struct {
	Username string
	Password string

	mu          sync.RWMutex
	insights    InsightsSnapshot
	engagements []engagement.Record
	services    catalog.Catalog
}

// NewStaticService returns a StaticService populated with sample data. The
// dev login mirrors the backend's seeded admin account and the managed
// services start out as the sample catalog.
func NewStaticService() *StaticService {
	var services catalog.Catalog
	if sample, err := catalog.NewSampleService(); err == nil {
		services, _ = sample.FetchCatalog(context.Background())
	}
	return &StaticService{
		services: services,
		Username: "admin",
		Password: "admin123",
		insights: InsightsSnapshot{
			AgeGroups: NewCounts(
				CountEntry{"<18", 2},
				CountEntry{"18-25", 9},
				CountEntry{"26-40", 14},
				CountEntry{"41-60", 6},
				CountEntry{"60+", 3},
			),
			Jobs: NewCounts(
				CountEntry{"Nurse", 7},
				CountEntry{"Farmer", 5},
				CountEntry{"Student", 11},
				CountEntry{"Unknown", 4},
			),
			Services: NewCounts(
				CountEntry{"Health", 16},
				CountEntry{"Education", 9},
				CountEntry{"Transport", 6},
			),
			Questions: NewCounts(
				CountEntry{"Open now?", 8},
				CountEntry{"How do I apply?", 6},
				CountEntry{"Which documents are needed?", 6},
				CountEntry{"Where is the nearest office?", 3},
			),
			Desires: NewCounts(
				CountEntry{"Jobs", 5},
				CountEntry{"Housing", 3},
			),
			PremiumSuggestions: []PremiumSuggestion{
				{User: "visitor-7f3a", Question: "Open now?", Count: 3},
			},
		},
		engagements: []engagement.Record{
			{UserID: "visitor-7f3a", Age: "34", Job: "Nurse", Desires: []string{"Jobs"}, QuestionClicked: "Open now?", Service: "Health", Timestamp: "2025-01-02T09:15:00"},
			{UserID: "visitor-7f3a", Age: "34", Job: "Nurse", Desires: []string{"Jobs", "Housing"}, QuestionClicked: "Open now?", Service: "Health", Timestamp: "2025-01-02T09:20:00"},
			{Job: "Student", QuestionClicked: "How do I apply?", Service: "Education"},
		},
	}
}

// SetInsights replaces the canned snapshot.
func (s *StaticService) SetInsights(snapshot InsightsSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insights = snapshot
}

// SetEngagements replaces the canned records.
func (s *StaticService) SetEngagements(records []engagement.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engagements = append([]engagement.Record(nil), records...)
}

// FetchInsights returns the canned snapshot for an authenticated caller.
func (s *StaticService) FetchInsights(_ context.Context, credentials string) (InsightsSnapshot, error) {
	if credentials != staticCredentials {
		return InsightsSnapshot{}, backend.ErrAuthRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.insights, nil
}

// FetchEngagements returns the canned records for an authenticated caller.
func (s *StaticService) FetchEngagements(_ context.Context, credentials string) ([]engagement.Record, error) {
	if credentials != staticCredentials {
		return nil, backend.ErrAuthRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]engagement.Record(nil), s.engagements...), nil
}

// Login accepts the configured username and password.
func (s *StaticService) Login(_ context.Context, username, password string) (LoginResult, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.Password)) == 1
	if !userOK || !passOK {
		return LoginResult{}, nil
	}
	return LoginResult{Redirect: "/admin", Credentials: staticCredentials}, nil
}

// Logout is a no-op.
func (s *StaticService) Logout(context.Context, string) error {
	return nil
}

// ExportCSV renders the canned records in backend CSV layout.
func (s *StaticService) ExportCSV(ctx context.Context, credentials string) (io.ReadCloser, error) {
	records, err := s.FetchEngagements(ctx, credentials)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	if err := export.WriteCSV(&b, records); err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(b.String())), nil
}

// ListServices returns the managed services.
func (s *StaticService) ListServices(_ context.Context, credentials string) (catalog.Catalog, error) {
	if credentials != staticCredentials {
		return nil, backend.ErrAuthRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(catalog.Catalog(nil), s.services...), nil
}

// FetchService returns the managed service with id.
func (s *StaticService) FetchService(_ context.Context, _ string, id string) (catalog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.services[i], nil
	}
	return catalog.Entry{}, ErrServiceNotFound
}

// SaveService replaces the service with the same id or appends a new one.
func (s *StaticService) SaveService(_ context.Context, credentials string, entry catalog.Entry) error {
	if credentials != staticCredentials {
		return backend.ErrAuthRequired
	}
	if entry.ID = strings.TrimSpace(entry.ID); entry.ID == "" {
		return ErrServiceIDRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(entry.ID); i >= 0 {
		s.services[i] = entry
		return nil
	}
	s.services = append(s.services, entry)
	return nil
}

// DeleteService removes the service with id. Unknown ids are ignored, as the
// backend does.
func (s *StaticService) DeleteService(_ context.Context, credentials, id string) error {
	if credentials != staticCredentials {
		return backend.ErrAuthRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		s.services = append(s.services[:i:i], s.services[i+1:]...)
	}
	return nil
}

func (s *StaticService) indexOf(id string) int {
	for i, e := range s.services {
		if e.ID == id {
			return i
		}
	}
	return -1
}
