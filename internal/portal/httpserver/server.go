package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"citizenportal.org/portal-web/internal/portal/browser"
	"citizenportal.org/portal-web/internal/portal/catalog"
	"citizenportal.org/portal-web/internal/portal/config"
	"citizenportal.org/portal-web/internal/portal/dashboard"
	custommw "citizenportal.org/portal-web/internal/portal/httpserver/middleware"
	"citizenportal.org/portal-web/internal/portal/httpserver/ui"
	"citizenportal.org/portal-web/internal/portal/i18n"
	"citizenportal.org/portal-web/internal/portal/observability"
	appsession "citizenportal.org/portal-web/internal/portal/session"
	"citizenportal.org/portal-web/public"
)

// Config holds runtime options for the portal HTTP server.
type Config struct {
	Address        string
	BasePath       string
	LoginPath      string
	Environment    string
	CookieSecure   bool
	CORSOrigins    []string
	CSRFCookieName string
	CSRFHeaderName string

	Logger           *zap.Logger
	Sessions         custommw.SessionStore
	DashboardService dashboard.Service
	CatalogService   catalog.Service
	PageSessions     *browser.Store
	Bundle           *i18n.Bundle
	EngagementDelay  time.Duration
}

// New constructs the HTTP server with middleware stack and embedded assets.
func New(cfg Config) (*http.Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	basePath := config.NormalizeBasePath(cfg.BasePath)
	loginPath := resolveLoginPath(basePath, cfg.LoginPath)

	sessions := cfg.Sessions
	if sessions == nil {
		manager, err := appsession.NewManager(appsession.Config{
			HashKey:      appsession.GenerateKey(32),
			BlockKey:     appsession.GenerateKey(32),
			CookiePath:   basePath,
			CookieSecure: cfg.CookieSecure,
		})
		if err != nil {
			return nil, fmt.Errorf("httpserver: session manager: %w", err)
		}
		sessions = manager
	}

	handlers, err := ui.NewHandlers(ui.Dependencies{
		DashboardService: cfg.DashboardService,
		CatalogService:   cfg.CatalogService,
		PageSessions:     cfg.PageSessions,
		Bundle:           cfg.Bundle,
		EngagementDelay:  cfg.EngagementDelay,
		LoginPath:        loginPath,
		CookieSecure:     cfg.CookieSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("httpserver: handlers: %w", err)
	}

	dashboardService := cfg.DashboardService
	if dashboardService == nil {
		dashboardService = dashboard.NewStaticService()
	}
	auth := newAuthHandlers(dashboardService, handlers, basePath, loginPath)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.InjectLogger(logger))
	router.Use(observability.RequestLogger())
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(60 * time.Second))
	router.Use(custommw.SiteInfo(basePath, cfg.Environment))
	router.Use(custommw.HTMX())

	staticContent, err := public.StaticFS()
	if err != nil {
		return nil, fmt.Errorf("embed static: %w", err)
	}
	router.Handle("/public/static/*", http.StripPrefix("/public/static/", http.FileServer(http.FS(staticContent))))
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	csrfCfg := custommw.CSRFConfig{
		CookieName: cfg.CSRFCookieName,
		CookiePath: "/",
		HeaderName: cfg.CSRFHeaderName,
		Secure:     cfg.CookieSecure,
	}

	mountBrowserRoutes(router, handlers, browserOptions{
		Bundle:       handlers.Translator(),
		CookieSecure: cfg.CookieSecure,
		CORSOrigins:  cfg.CORSOrigins,
		CSRF:         csrfCfg,
	})
	mountAdminRoutes(router, basePath, handlers, auth, adminOptions{
		Sessions:  sessions,
		LoginPath: loginPath,
		CSRF:      csrfCfg,
	})

	return &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, nil
}

type browserOptions struct {
	Bundle       *i18n.Bundle
	CookieSecure bool
	CORSOrigins  []string
	CSRF         custommw.CSRFConfig
}

func mountBrowserRoutes(router chi.Router, h *ui.Handlers, opts browserOptions) {
	router.Group(func(r chi.Router) {
		if len(opts.CORSOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   opts.CORSOrigins,
				AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders:   []string{"Accept", "Content-Type", "HX-Request", "HX-Target", "HX-Current-URL", "HX-Trigger", opts.CSRF.HeaderName},
				AllowCredentials: true,
				MaxAge:           300,
			}))
		}
		r.Use(custommw.NoStore())
		r.Use(custommw.Locale(opts.Bundle, opts.CookieSecure))
		r.Use(custommw.Visitor(opts.CookieSecure))
		r.Use(custommw.CSRF(opts.CSRF))

		r.Get("/", h.BrowserPage)
		r.Post("/browser/language", h.SetLanguage)
		r.Route("/browser/{ps}", func(r chi.Router) {
			RegisterFragment(r, "/services", h.ServicesFragment)
			RegisterFragment(r, "/services/{si}", h.SubservicesFragment)
			RegisterFragment(r, "/services/{si}/subservices/{ssi}", h.QuestionsFragment)
			RegisterFragment(r, "/services/{si}/subservices/{ssi}/questions/{qi}", h.AnswerFragment)
			RegisterFragment(r, "/engagement", h.EngagementForm)
			r.Post("/engagement", h.SubmitEngagement)
		})
	})
}

type adminOptions struct {
	Sessions  custommw.SessionStore
	LoginPath string
	CSRF      custommw.CSRFConfig
}

func mountAdminRoutes(router chi.Router, base string, h *ui.Handlers, auth *authHandlers, opts adminOptions) {
	admin := func(r chi.Router) {
		r.Use(custommw.NoStore())
		r.Use(custommw.Session(opts.Sessions))
		r.Use(custommw.CSRF(opts.CSRF))

		r.Get("/", h.Dashboard)
		RegisterFragment(r, "/fragments/dashboard", h.DashboardFragment)
		r.Get("/login", auth.LoginForm)
		r.Post("/login", auth.LoginSubmit)
		r.Post("/logout", auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(custommw.RequireAdmin(opts.LoginPath))
			r.Get("/export.csv", h.ExportCSV)
			r.Get("/export.xlsx", h.ExportXLSX)
			r.Get("/manage", h.ManageServices)
			r.Get("/manage/services/{id}/edit", h.EditService)
			r.Post("/manage/services", h.SaveService)
			r.Post("/manage/services/{id}/delete", h.DeleteService)
		})
	}

	if base == "/" {
		router.Group(admin)
		return
	}
	router.Route(base, admin)
}

func resolveLoginPath(base string, override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	if base == "/" {
		return "/login"
	}
	return base + "/login"
}

// RegisterFragment registers a GET handler intended for htmx fragment rendering.
func RegisterFragment(r chi.Router, pattern string, handler http.HandlerFunc) {
	r.With(custommw.RequireHTMX()).Get(pattern, handler)
}
