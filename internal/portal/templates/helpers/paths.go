package helpers

import (
	"context"
	"strings"

	"citizenportal.org/portal-web/internal/portal/httpserver/middleware"
)

// BasePath returns the configured admin base path.
func BasePath(ctx context.Context) string {
	return normalizeRoute(middleware.BasePathFromContext(ctx))
}

// AdminPath joins suffix onto the admin base path.
func AdminPath(ctx context.Context, suffix string) string {
	return JoinPath(BasePath(ctx), suffix)
}

// JoinPath joins a base path and a suffix without doubling slashes.
func JoinPath(base, suffix string) string {
	base = normalizeRoute(base)
	if suffix == "" || suffix == "/" {
		return base
	}
	if !strings.HasPrefix(suffix, "/") {
		suffix = "/" + suffix
	}
	if base == "/" {
		return suffix
	}
	return base + suffix
}

func normalizeRoute(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}
