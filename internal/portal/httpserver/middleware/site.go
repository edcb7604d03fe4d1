package middleware

import (
	"context"
	"net/http"
	"strings"

	"citizenportal.org/portal-web/internal/portal/config"
)

type siteContextKey struct{}

const defaultEnvironment = "Development"

// Site is deployment-wide data the templates need: where the admin pages are
// mounted and which environment badge to show.
type Site struct {
	AdminBase   string
	Environment string
}

// WithSite stores s in ctx.
func WithSite(ctx context.Context, s Site) context.Context {
	return context.WithValue(ctx, siteContextKey{}, s)
}

// SiteInfo attaches the admin base path and environment label to every request.
func SiteInfo(adminBase, environment string) func(http.Handler) http.Handler {
	site := Site{
		AdminBase:   config.NormalizeBasePath(adminBase),
		Environment: strings.TrimSpace(environment),
	}
	if site.Environment == "" {
		site.Environment = defaultEnvironment
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithSite(r.Context(), site)))
		})
	}
}

// BasePathFromContext returns the admin base path, or "/" outside a request.
func BasePathFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(siteContextKey{}).(Site); ok && s.AdminBase != "" {
		return s.AdminBase
	}
	return "/"
}

// EnvironmentFromContext returns the environment label.
func EnvironmentFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(siteContextKey{}).(Site); ok && s.Environment != "" {
		return s.Environment
	}
	return defaultEnvironment
}
