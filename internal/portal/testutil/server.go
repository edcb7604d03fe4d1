package testutil

import (
	"net/http/httptest"
	"testing"
	"time"

	"citizenportal.org/portal-web/internal/portal/browser"
	"citizenportal.org/portal-web/internal/portal/catalog"
	"citizenportal.org/portal-web/internal/portal/dashboard"
	"citizenportal.org/portal-web/internal/portal/httpserver"
	"citizenportal.org/portal-web/internal/portal/i18n"
)

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*httpserver.Config)

// WithBasePath sets a custom base path for the admin routes.
func WithBasePath(path string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.BasePath = path
	}
}

// WithDashboardService wires a custom dashboard service implementation.
func WithDashboardService(service dashboard.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.DashboardService = service
	}
}

// WithCatalogService wires a custom catalog service implementation.
func WithCatalogService(service catalog.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.CatalogService = service
	}
}

// WithPageSessions shares a page-session store with the test.
func WithPageSessions(store *browser.Store) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.PageSessions = store
	}
}

// WithBundle replaces the UI string bundle.
func WithBundle(bundle *i18n.Bundle) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Bundle = bundle
	}
}

// WithCSRFHeader changes the header htmx echoes the CSRF token in.
func WithCSRFHeader(name string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.CSRFHeaderName = name
	}
}

// NewServer constructs an httptest server running the portal HTTP stack with sensible defaults.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	cfg := httpserver.Config{
		Address:          ":0",
		BasePath:         "/admin",
		Environment:      "Test",
		CSRFCookieName:   "csrf_token",
		CSRFHeaderName:   "X-CSRF-Token",
		DashboardService: dashboard.NewStaticService(),
		EngagementDelay:  10 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	srv, err := httpserver.New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}
