package ui

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"citizenportal.org/portal-web/internal/portal/backend"
	custommw "citizenportal.org/portal-web/internal/portal/httpserver/middleware"
	"citizenportal.org/portal-web/internal/portal/export"
	"citizenportal.org/portal-web/internal/portal/observability"
	dashboardtpl "citizenportal.org/portal-web/internal/portal/templates/dashboard"
)

// Dashboard renders the admin page. The backend decides whether the stored
// session is still valid; a 401 shows the login form instead of the data.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.RenderDashboard(w, r, false)
}

// DashboardFragment re-renders the dashboard section for htmx refreshes.
func (h *Handlers) DashboardFragment(w http.ResponseWriter, r *http.Request) {
	h.RenderDashboard(w, r, false)
}

// RenderDashboard loads the snapshot and writes either the fragment (htmx) or
// the full page. loginFailed adds the failure notice to the login form.
func (h *Handlers) RenderDashboard(w http.ResponseWriter, r *http.Request, loginFailed bool) {
	fragment, status := h.loadDashboard(r, loginFailed)

	var component templ.Component
	if custommw.IsHTMXRequest(r.Context()) {
		component = dashboardtpl.Fragment(fragment)
	} else {
		component = dashboardtpl.Index(h.DashboardPage(r, fragment))
	}
	templ.Handler(component, templ.WithStatus(status)).ServeHTTP(w, r)
}

func (h *Handlers) loadDashboard(r *http.Request, loginFailed bool) (dashboardtpl.FragmentData, int) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)
	lang := h.AdminLanguage()
	endpoints := dashboardtpl.BuildEndpoints(ctx)
	csrf := custommw.CSRFTokenFromContext(ctx)

	login := func() (dashboardtpl.FragmentData, int) {
		status := http.StatusOK
		if loginFailed {
			status = http.StatusUnauthorized
		}
		return dashboardtpl.LoginFragment(h.bundle, lang, endpoints, csrf, loginFailed), status
	}

	creds := custommw.BackendCredentials(ctx)
	if creds == "" {
		return login()
	}

	snapshot, err := h.dashboard.FetchInsights(ctx, creds)
	if errors.Is(err, backend.ErrAuthRequired) {
		logger.Info("dashboard: backend session rejected")
		h.signOut(r)
		return login()
	}
	if err != nil {
		logger.Error("dashboard: fetch insights failed", zap.Error(err))
		return dashboardtpl.ErrorFragment(h.bundle, lang, endpoints, csrf), http.StatusBadGateway
	}

	records, err := h.dashboard.FetchEngagements(ctx, creds)
	if errors.Is(err, backend.ErrAuthRequired) {
		h.signOut(r)
		return login()
	}
	fragment := dashboardtpl.DashboardFragment(h.bundle, lang, endpoints, csrf, snapshot, records)
	if err != nil {
		logger.Error("dashboard: fetch engagements failed", zap.Error(err))
		fragment.Error = h.bundle.T(lang, "admin.error")
	}
	return fragment, http.StatusOK
}

func (h *Handlers) signOut(r *http.Request) {
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		sess.SignOut()
	}
}

// ExportCSV streams the backend CSV export to the browser as a download.
func (h *Handlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	body, err := h.dashboard.ExportCSV(ctx, custommw.BackendCredentials(ctx))
	if errors.Is(err, backend.ErrAuthRequired) {
		custommw.HandleUnauthorized(w, r, h.adminLoginPath(r))
		return
	}
	if err != nil {
		logger.Error("export: csv download failed", zap.Error(err))
		http.Error(w, h.bundle.T(h.AdminLanguage(), "admin.error"), http.StatusBadGateway)
		return
	}
	defer body.Close()

	setAttachment(w, "text/csv; charset=utf-8", export.CSVFilename)
	if _, err := io.Copy(w, body); err != nil {
		logger.Warn("export: csv stream interrupted", zap.Error(err))
	}
}

// ExportXLSX builds a workbook from the engagement records.
func (h *Handlers) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	records, err := h.dashboard.FetchEngagements(ctx, custommw.BackendCredentials(ctx))
	if errors.Is(err, backend.ErrAuthRequired) {
		custommw.HandleUnauthorized(w, r, h.adminLoginPath(r))
		return
	}
	if err != nil {
		logger.Error("export: fetch engagements failed", zap.Error(err))
		http.Error(w, h.bundle.T(h.AdminLanguage(), "admin.error"), http.StatusBadGateway)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, records); err != nil {
		logger.Error("export: build workbook failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	setAttachment(w, export.XLSXMimeType, export.XLSXFilename)
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		logger.Warn("export: xlsx write interrupted", zap.Error(err))
	}
}

func setAttachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
