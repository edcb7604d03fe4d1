package ui

import (
	"errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"citizenportal.org/portal-web/internal/portal/backend"
	"citizenportal.org/portal-web/internal/portal/catalog"
	"citizenportal.org/portal-web/internal/portal/dashboard"
	custommw "citizenportal.org/portal-web/internal/portal/httpserver/middleware"
	"citizenportal.org/portal-web/internal/portal/observability"
	dashboardtpl "citizenportal.org/portal-web/internal/portal/templates/dashboard"
	"citizenportal.org/portal-web/internal/portal/templates/helpers"
)

// ManageServices lists the stored services next to an empty create form.
func (h *Handlers) ManageServices(w http.ResponseWriter, r *http.Request) {
	h.renderManage(w, r, dashboardtpl.ManageData{}, http.StatusOK)
}

// EditService loads one service into the form. htmx requests get the form alone.
func (h *Handlers) EditService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := h.AdminLanguage()

	entry, err := h.dashboard.FetchService(ctx, custommw.BackendCredentials(ctx), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, backend.ErrAuthRequired):
		custommw.HandleUnauthorized(w, r, h.adminLoginPath(r))
		return
	case errors.Is(err, dashboard.ErrServiceNotFound):
		http.Error(w, h.bundle.T(lang, "admin.manage.not_found"), http.StatusNotFound)
		return
	case err != nil:
		observability.FromContext(ctx).Error("manage: fetch service failed", zap.Error(err))
		http.Error(w, h.bundle.T(lang, "admin.error"), http.StatusBadGateway)
		return
	}

	definition, err := catalog.EntryYAML(entry)
	if err != nil {
		observability.FromContext(ctx).Error("manage: encode service failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	form := dashboardtpl.ServiceForm{ID: entry.ID, Definition: definition, Editing: true}

	if custommw.IsHTMXRequest(ctx) {
		data := h.manageShell(r)
		data.Form = form
		templ.Handler(dashboardtpl.ServiceFormFragment(data)).ServeHTTP(w, r)
		return
	}
	h.renderManage(w, r, dashboardtpl.ManageData{Form: form}, http.StatusOK)
}

// SaveService creates or replaces a service from the id field and the YAML
// definition.
func (h *Handlers) SaveService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := h.AdminLanguage()
	form := dashboardtpl.ServiceForm{
		ID:         strings.TrimSpace(r.PostFormValue("id")),
		Definition: r.PostFormValue("definition"),
		Editing:    r.PostFormValue("editing") != "",
	}
	if form.ID == "" {
		form.Error = h.bundle.T(lang, "admin.manage.id_required")
		h.renderManage(w, r, dashboardtpl.ManageData{Form: form}, http.StatusUnprocessableEntity)
		return
	}
	entry, err := catalog.ParseEntryYAML([]byte(form.Definition))
	if err != nil {
		form.Error = h.bundle.Tf(lang, "admin.manage.invalid", err.Error())
		h.renderManage(w, r, dashboardtpl.ManageData{Form: form}, http.StatusUnprocessableEntity)
		return
	}
	entry.ID = form.ID

	if err := h.dashboard.SaveService(ctx, custommw.BackendCredentials(ctx), entry); err != nil {
		h.manageFailed(w, r, form, err)
		return
	}
	observability.FromContext(ctx).Info("manage: service saved", zap.String("service_id", entry.ID))
	h.manageDone(w, r, h.bundle.Tf(lang, "admin.manage.saved", entry.ID))
}

// DeleteService removes the service named in the path.
func (h *Handlers) DeleteService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := h.dashboard.DeleteService(ctx, custommw.BackendCredentials(ctx), id); err != nil {
		h.manageFailed(w, r, dashboardtpl.ServiceForm{}, err)
		return
	}
	observability.FromContext(ctx).Info("manage: service deleted", zap.String("service_id", id))
	h.manageDone(w, r, h.bundle.Tf(h.AdminLanguage(), "admin.manage.deleted", id))
}

// manageDone re-renders the list with notice for htmx and redirects plain posts.
func (h *Handlers) manageDone(w http.ResponseWriter, r *http.Request, notice string) {
	if custommw.IsHTMXRequest(r.Context()) {
		h.renderManage(w, r, dashboardtpl.ManageData{Notice: notice}, http.StatusOK)
		return
	}
	http.Redirect(w, r, helpers.AdminPath(r.Context(), "/manage"), http.StatusSeeOther)
}

func (h *Handlers) manageFailed(w http.ResponseWriter, r *http.Request, form dashboardtpl.ServiceForm, err error) {
	lang := h.AdminLanguage()
	switch {
	case errors.Is(err, backend.ErrAuthRequired):
		custommw.HandleUnauthorized(w, r, h.adminLoginPath(r))
	case errors.Is(err, dashboard.ErrServiceIDRequired):
		form.Error = h.bundle.T(lang, "admin.manage.id_required")
		h.renderManage(w, r, dashboardtpl.ManageData{Form: form}, http.StatusUnprocessableEntity)
	case errors.Is(err, dashboard.ErrServiceNotFound):
		h.renderManage(w, r, dashboardtpl.ManageData{Form: form, Error: h.bundle.T(lang, "admin.manage.not_found")}, http.StatusNotFound)
	default:
		observability.FromContext(r.Context()).Error("manage: backend call failed", zap.Error(err))
		h.renderManage(w, r, dashboardtpl.ManageData{Form: form, Error: h.bundle.T(lang, "admin.error")}, http.StatusBadGateway)
	}
}

// renderManage fills in the service rows and writes the fragment (htmx) or the
// full page with status.
func (h *Handlers) renderManage(w http.ResponseWriter, r *http.Request, state dashboardtpl.ManageData, status int) {
	ctx := r.Context()
	lang := h.AdminLanguage()

	data := h.manageShell(r)
	data.Form = state.Form
	data.Notice = state.Notice
	data.Error = state.Error

	services, err := h.dashboard.ListServices(ctx, custommw.BackendCredentials(ctx))
	switch {
	case errors.Is(err, backend.ErrAuthRequired):
		custommw.HandleUnauthorized(w, r, h.adminLoginPath(r))
		return
	case err != nil:
		observability.FromContext(ctx).Error("manage: list services failed", zap.Error(err))
		data.Error = h.bundle.T(lang, "admin.error")
		status = http.StatusBadGateway
	default:
		data.Rows = dashboardtpl.ServiceRows(ctx, services, lang)
	}

	var component templ.Component
	if custommw.IsHTMXRequest(ctx) {
		component = dashboardtpl.ManageFragment(data)
	} else {
		page := h.DashboardPage(r, dashboardtpl.FragmentData{})
		component = dashboardtpl.ManageIndex(dashboardtpl.ManagePageData{
			Title:     data.Labels.Title,
			Lang:      page.Lang,
			Username:  page.Username,
			CSRFToken: page.CSRFToken,
			Endpoints: page.Endpoints,
			Labels:    page.Labels,
			Fragment:  data,
		})
	}
	templ.Handler(component, templ.WithStatus(status)).ServeHTTP(w, r)
}

func (h *Handlers) manageShell(r *http.Request) dashboardtpl.ManageData {
	ctx := r.Context()
	return dashboardtpl.ManageData{
		Endpoints: dashboardtpl.BuildEndpoints(ctx),
		Labels:    dashboardtpl.BuildManageLabels(h.bundle, h.AdminLanguage()),
		CSRFToken: custommw.CSRFTokenFromContext(ctx),
	}
}
