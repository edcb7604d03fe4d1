package ui

import (
	"net/http"
	"time"

	"citizenportal.org/portal-web/internal/portal/browser"
	"citizenportal.org/portal-web/internal/portal/catalog"
	"citizenportal.org/portal-web/internal/portal/dashboard"
	custommw "citizenportal.org/portal-web/internal/portal/httpserver/middleware"
	"citizenportal.org/portal-web/internal/portal/i18n"
	dashboardtpl "citizenportal.org/portal-web/internal/portal/templates/dashboard"
	"citizenportal.org/portal-web/internal/portal/templates/helpers"
)

const defaultEngagementDelay = 1500 * time.Millisecond

// Dependencies collects external services required by the UI handlers.
type Dependencies struct {
	DashboardService dashboard.Service
	CatalogService   catalog.Service
	PageSessions     *browser.Store
	Bundle           *i18n.Bundle
	EngagementDelay  time.Duration
	LoginPath        string
	CookieSecure     bool
	Now              func() time.Time
}

// Handlers exposes HTTP handlers for the admin dashboard and the service browser.
type Handlers struct {
	dashboard       dashboard.Service
	catalog         catalog.Service
	pages           *browser.Store
	bundle          *i18n.Bundle
	engagementDelay time.Duration
	loginPath       string
	cookieSecure    bool
	now             func() time.Time
}

// NewHandlers wires the UI handler set. Missing services fall back to the
// in-memory development implementations.
func NewHandlers(deps Dependencies) (*Handlers, error) {
	dash := deps.DashboardService
	if dash == nil {
		dash = dashboard.NewStaticService()
	}
	cat := deps.CatalogService
	if cat == nil {
		sample, err := catalog.NewSampleService()
		if err != nil {
			return nil, err
		}
		cat = sample
	}
	bundle := deps.Bundle
	if bundle == nil {
		loaded, err := i18n.Load("en", []string{"en", "si", "ta"})
		if err != nil {
			return nil, err
		}
		bundle = loaded
	}
	pages := deps.PageSessions
	if pages == nil {
		pages = browser.NewStore(0)
	}
	delay := deps.EngagementDelay
	if delay <= 0 {
		delay = defaultEngagementDelay
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Handlers{
		dashboard:       dash,
		catalog:         cat,
		pages:           pages,
		bundle:          bundle,
		engagementDelay: delay,
		loginPath:       deps.LoginPath,
		cookieSecure:    deps.CookieSecure,
		now:             now,
	}, nil
}

// Translator exposes the UI string bundle.
func (h *Handlers) Translator() *i18n.Bundle {
	return h.bundle
}

// AdminLanguage is the language of the admin pages. The dashboard is not
// localized, so it stays on the base language whatever the browser default is.
func (h *Handlers) AdminLanguage() string {
	return i18n.Base
}

// DashboardPage wraps a fragment in the full admin page payload.
func (h *Handlers) DashboardPage(r *http.Request, fragment dashboardtpl.FragmentData) dashboardtpl.PageData {
	ctx := r.Context()
	lang := h.AdminLanguage()
	labels := dashboardtpl.BuildLabels(h.bundle, lang)
	return dashboardtpl.PageData{
		Title:     labels.Title,
		Lang:      lang,
		Username:  custommw.AdminUsername(ctx),
		CSRFToken: custommw.CSRFTokenFromContext(ctx),
		Endpoints: dashboardtpl.BuildEndpoints(ctx),
		Labels:    labels,
		Fragment:  fragment,
	}
}

func (h *Handlers) adminLoginPath(r *http.Request) string {
	if h.loginPath != "" {
		return h.loginPath
	}
	return helpers.AdminPath(r.Context(), "/login")
}
