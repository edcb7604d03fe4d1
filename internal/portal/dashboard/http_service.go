package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"citizenportal.org/portal-web/internal/portal/backend"
	"citizenportal.org/portal-web/internal/portal/engagement"
)

const (
	loginPath       = "/admin/login"
	logoutPath      = "/api/admin/logout"
	insightsPath    = "/api/admin/insights"
	engagementsPath = "/api/admin/engagements"
	exportCSVPath   = "/api/admin/export_csv"
)

// HTTPService implements Service against the citizen-portal REST API.
type HTTPService struct {
	client *backend.Client
}

// NewHTTPService wraps a backend client.
func NewHTTPService(client *backend.Client) (*HTTPService, error) {
	if client == nil {
		return nil, ErrNotConfigured
	}
	return &HTTPService{client: client}, nil
}

// FetchInsights retrieves the aggregate snapshot.
func (s *HTTPService) FetchInsights(ctx context.Context, credentials string) (InsightsSnapshot, error) {
	var snapshot InsightsSnapshot
	if err := s.client.GetJSON(ctx, insightsPath, credentials, &snapshot); err != nil {
		return InsightsSnapshot{}, fmt.Errorf("dashboard: fetch insights: %w", err)
	}
	return snapshot, nil
}

// FetchEngagements retrieves recent engagement records.
func (s *HTTPService) FetchEngagements(ctx context.Context, credentials string) ([]engagement.Record, error) {
	var records []engagement.Record
	if err := s.client.GetJSON(ctx, engagementsPath, credentials, &records); err != nil {
		return nil, fmt.Errorf("dashboard: fetch engagements: %w", err)
	}
	return records, nil
}

// Login posts the form to the backend without following the redirect.
func (s *HTTPService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	res, err := s.client.SubmitForm(ctx, loginPath, url.Values{
		"username": {username},
		"password": {password},
	})
	if err != nil {
		return LoginResult{}, fmt.Errorf("dashboard: login: %w", err)
	}
	if !res.Redirected() {
		return LoginResult{}, nil
	}
	return LoginResult{
		Redirect:    redirectPath(res.Location),
		Credentials: res.Credentials,
	}, nil
}

// Logout ends the backend session.
func (s *HTTPService) Logout(ctx context.Context, credentials string) error {
	if _, err := s.client.Post(ctx, logoutPath, credentials); err != nil {
		return fmt.Errorf("dashboard: logout: %w", err)
	}
	return nil
}

// ExportCSV streams the backend export.
func (s *HTTPService) ExportCSV(ctx context.Context, credentials string) (io.ReadCloser, error) {
	resp, err := s.client.Stream(ctx, exportCSVPath, credentials)
	if err != nil {
		return nil, fmt.Errorf("dashboard: export csv: %w", err)
	}
	return resp.Body, nil
}

func redirectPath(location string) string {
	u, err := url.Parse(location)
	if err != nil || u.Path == "" {
		return "/"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
