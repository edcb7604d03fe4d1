package dashboard

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"citizenportal.org/portal-web/internal/portal/catalog"
)

const (
	adminServicesPath = "/api/admin/services"
	publicServicePath = "/api/service/"
)

// ListServices retrieves every stored service.
func (s *HTTPService) ListServices(ctx context.Context, credentials string) (catalog.Catalog, error) {
	var out catalog.Catalog
	if err := s.client.GetJSON(ctx, adminServicesPath, credentials, &out); err != nil {
		return nil, fmt.Errorf("dashboard: list services: %w", err)
	}
	return out, nil
}

// FetchService reads one service from the public endpoint. The backend answers
// an unknown id with an empty object.
func (s *HTTPService) FetchService(ctx context.Context, credentials, id string) (catalog.Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return catalog.Entry{}, ErrServiceNotFound
	}
	var entry catalog.Entry
	if err := s.client.GetJSON(ctx, publicServicePath+url.PathEscape(id), credentials, &entry); err != nil {
		return catalog.Entry{}, fmt.Errorf("dashboard: fetch service %s: %w", id, err)
	}
	if entry.ID == "" {
		return catalog.Entry{}, ErrServiceNotFound
	}
	return entry, nil
}

// SaveService upserts entry by id.
func (s *HTTPService) SaveService(ctx context.Context, credentials string, entry catalog.Entry) error {
	if entry.ID = strings.TrimSpace(entry.ID); entry.ID == "" {
		return ErrServiceIDRequired
	}
	if err := s.client.PostJSON(ctx, adminServicesPath, credentials, entry); err != nil {
		return fmt.Errorf("dashboard: save service %s: %w", entry.ID, err)
	}
	return nil
}

// DeleteService removes a service by id.
func (s *HTTPService) DeleteService(ctx context.Context, credentials, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrServiceNotFound
	}
	if err := s.client.Delete(ctx, adminServicesPath+"/"+url.PathEscape(id), credentials); err != nil {
		return fmt.Errorf("dashboard: delete service %s: %w", id, err)
	}
	return nil
}
