package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"citizenportal.org/portal-web/internal/portal/dashboard"
	custommw "citizenportal.org/portal-web/internal/portal/httpserver/middleware"
	"citizenportal.org/portal-web/internal/portal/httpserver/ui"
	"citizenportal.org/portal-web/internal/portal/observability"
	dashboardtpl "citizenportal.org/portal-web/internal/portal/templates/dashboard"
)

// backendAdminRoot is the path the backend redirects to after a login.
const backendAdminRoot = "/admin"

type authHandlers struct {
	service   dashboard.Service
	ui        *ui.Handlers
	basePath  string
	loginPath string
	now       func() time.Time
}

func newAuthHandlers(service dashboard.Service, handlers *ui.Handlers, basePath, loginPath string) *authHandlers {
	if service == nil {
		panic("auth: dashboard service is required")
	}
	if strings.TrimSpace(basePath) == "" {
		basePath = "/"
	}
	if strings.TrimSpace(loginPath) == "" {
		loginPath = resolveLoginPath(basePath, "")
	}
	return &authHandlers{
		service:   service,
		ui:        handlers,
		basePath:  basePath,
		loginPath: loginPath,
		now:       time.Now,
	}
}

// LoginForm shows the login form, or sends a signed-in admin to the dashboard.
func (h *authHandlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if custommw.BackendCredentials(r.Context()) != "" {
		http.Redirect(w, r, h.basePath, http.StatusFound)
		return
	}
	h.renderLogin(w, r, false, http.StatusOK)
}

// LoginSubmit forwards the form to the backend. A redirect means success and
// carries the backend session cookie; anything else falls through to the
// dashboard load, which shows the login form again when unauthenticated.
func (h *authHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, true, http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	result, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		logger.Warn("admin login request failed", zap.Error(err))
		h.renderLogin(w, r, true, http.StatusBadGateway)
		return
	}

	if !result.Succeeded() {
		logger.Info("admin login rejected", zap.String("username", username))
		h.ui.RenderDashboard(w, r, true)
		return
	}

	if sess, ok := custommw.SessionFromContext(r.Context()); ok && result.Credentials != "" {
		sess.SignIn(username, result.Credentials, h.now())
	}
	logger.Info("admin signed in", zap.String("username", username))
	custommw.Redirect(w, r, mapBackendRedirect(h.basePath, result.Redirect))
}

// Logout ends the backend session and forgets the local one whatever the backend says.
func (h *authHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context())
	if creds := custommw.BackendCredentials(r.Context()); creds != "" {
		if err := h.service.Logout(r.Context(), creds); err != nil {
			logger.Warn("backend logout failed", zap.Error(err))
		}
	}
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		sess.Destroy()
	}
	custommw.Redirect(w, r, h.basePath)
}

func (h *authHandlers) renderLogin(w http.ResponseWriter, r *http.Request, failed bool, status int) {
	fragment := dashboardtpl.LoginFragment(h.ui.Translator(), h.ui.AdminLanguage(), dashboardtpl.BuildEndpoints(r.Context()), custommw.CSRFTokenFromContext(r.Context()), failed)
	var component templ.Component
	if custommw.IsHTMXRequest(r.Context()) {
		component = dashboardtpl.Fragment(fragment)
	} else {
		component = dashboardtpl.Index(h.ui.DashboardPage(r, fragment))
	}
	templ.Handler(component, templ.WithStatus(status)).ServeHTTP(w, r)
}

// mapBackendRedirect maps the backend's post-login path onto the portal
// admin base, so /admin?x=1 becomes {base}?x=1.
func mapBackendRedirect(basePath, target string) string {
	pathPart, query, _ := strings.Cut(target, "?")
	rest := ""
	switch {
	case pathPart == backendAdminRoot || pathPart == backendAdminRoot+"/":
	case strings.HasPrefix(pathPart, backendAdminRoot+"/"):
		rest = strings.TrimPrefix(pathPart, backendAdminRoot)
	}
	out := basePath
	if rest != "" {
		out = strings.TrimRight(basePath, "/") + rest
	}
	if query != "" {
		out += "?" + query
	}
	return out
}
