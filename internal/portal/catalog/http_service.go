package catalog

import (
	"context"
	"fmt"

	"citizenportal.org/portal-web/internal/portal/backend"
	"citizenportal.org/portal-web/internal/portal/engagement"
)

const (
	servicesPath   = "/api/services"
	engagementPath = "/api/engagement"
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

// FetchCatalog retrieves the full catalog.
func (s *HTTPService) FetchCatalog(ctx context.Context) (Catalog, error) {
	var out Catalog
	if err := s.client.GetJSON(ctx, servicesPath, "", &out); err != nil {
		return nil, fmt.Errorf("catalog: fetch services: %w", err)
	}
	return out, nil
}

// SubmitEngagement posts the record. It is never retried.
func (s *HTTPService) SubmitEngagement(ctx context.Context, record engagement.Record) error {
	if record.Desires == nil {
		record.Desires = []string{}
	}
	if err := s.client.PostJSON(ctx, engagementPath, "", record); err != nil {
		return fmt.Errorf("catalog: submit engagement: %w", err)
	}
	return nil
}
