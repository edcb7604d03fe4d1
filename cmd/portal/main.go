package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"citizenportal.org/portal-web/internal/portal/backend"
	"citizenportal.org/portal-web/internal/portal/browser"
	"citizenportal.org/portal-web/internal/portal/catalog"
	"citizenportal.org/portal-web/internal/portal/config"
	"citizenportal.org/portal-web/internal/portal/dashboard"
	"citizenportal.org/portal-web/internal/portal/httpserver"
	"citizenportal.org/portal-web/internal/portal/i18n"
	"citizenportal.org/portal-web/internal/portal/observability"
	appsession "citizenportal.org/portal-web/internal/portal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("portal server failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	dashboardService, catalogService, err := buildServices(cfg, logger)
	if err != nil {
		return err
	}

	bundle, err := i18n.Load(cfg.Browser.DefaultLanguage, cfg.Browser.Languages)
	if err != nil {
		return err
	}

	sessions, err := buildSessionManager(cfg, logger)
	if err != nil {
		return err
	}

	pages := browser.NewStore(cfg.Browser.PageSessionTTL)
	pages.StartJanitor(0)
	defer pages.Close()

	srv, err := httpserver.New(httpserver.Config{
		Address:          cfg.Server.Address,
		BasePath:         cfg.Server.AdminBasePath,
		Environment:      cfg.Server.Environment,
		CookieSecure:     cfg.Server.CookieSecure,
		CORSOrigins:      cfg.Server.CORSOrigins,
		Logger:           logger,
		Sessions:         sessions,
		DashboardService: dashboardService,
		CatalogService:   catalogService,
		PageSessions:     pages,
		Bundle:           bundle,
		EngagementDelay:  cfg.Browser.EngagementDelay,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("portal server listening",
		zap.String("addr", cfg.Server.Address),
		zap.String("admin_base_path", cfg.Server.AdminBasePath),
		zap.String("environment", cfg.Server.Environment),
	)

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("portal server stopped")
	return nil
}

// buildServices talks to the real backend when a URL is configured and falls
// back to the in-memory services otherwise.
func buildServices(cfg config.Config, logger *zap.Logger) (dashboard.Service, catalog.Service, error) {
	var catalogService catalog.Service
	if path := cfg.Browser.StaticCatalog; path != "" {
		static, err := catalog.LoadFile(path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("serving catalog from file", zap.String("path", path))
		catalogService = static
	}

	if cfg.Backend.URL == "" {
		logger.Warn("PORTAL_BACKEND_URL not set; using static dashboard and sample catalog")
		return dashboard.NewStaticService(), catalogService, nil
	}

	client, err := backend.New(cfg.Backend.URL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithRetryMaxElapsed(cfg.Backend.RetryMaxElapsed),
	)
	if err != nil {
		return nil, nil, err
	}
	dashboardService, err := dashboard.NewHTTPService(client)
	if err != nil {
		return nil, nil, err
	}
	if catalogService == nil {
		httpCatalog, err := catalog.NewHTTPService(client)
		if err != nil {
			return nil, nil, err
		}
		catalogService = httpCatalog
	}
	logger.Info("backend configured", zap.String("url", client.BaseURL()))
	return dashboardService, catalogService, nil
}

func buildSessionManager(cfg config.Config, logger *zap.Logger) (*appsession.Manager, error) {
	hashKey := []byte(cfg.Session.HashKey)
	if len(hashKey) == 0 {
		logger.Warn("PORTAL_SESSION_HASH_KEY not set; admin sessions will not survive a restart")
		hashKey = appsession.GenerateKey(32)
	}
	blockKey := []byte(cfg.Session.BlockKey)
	if len(blockKey) == 0 {
		blockKey = appsession.GenerateKey(32)
	}
	return appsession.NewManager(appsession.Config{
		HashKey:      hashKey,
		BlockKey:     blockKey,
		CookiePath:   cfg.Server.AdminBasePath,
		CookieSecure: cfg.Server.CookieSecure,
		IdleTimeout:  cfg.Session.IdleTimeout,
		Lifetime:     cfg.Session.Lifetime,
	})
}
