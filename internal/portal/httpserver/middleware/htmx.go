package middleware

import (
	"context"
	"net/http"
	"strings"
)

type htmxContextKey struct{}

// HTMXInfo is what the portal reads from the HX-* request headers.
type HTMXInfo struct {
	// Request is set for any htmx-issued request.
	Request bool
	// HistoryRestore marks a cache-miss history restore. htmx expects a full
	// page back, so it is not treated as a fragment request.
	HistoryRestore bool
	Target         string
	CurrentURL     string
}

// Fragment reports whether the response should be a fragment.
func (i HTMXInfo) Fragment() bool {
	return i.Request && !i.HistoryRestore
}

// HTMX records the HX-* headers in the context. The same URL can answer
// with a page or a fragment, so responses vary on HX-Request.
func HTMX() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := HTMXInfo{
				Request:        headerTrue(r, "HX-Request"),
				HistoryRestore: headerTrue(r, "HX-History-Restore-Request"),
				Target:         r.Header.Get("HX-Target"),
				CurrentURL:     r.Header.Get("HX-Current-URL"),
			}
			w.Header().Add("Vary", "HX-Request")
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), htmxContextKey{}, info)))
		})
	}
}

// HTMXInfoFromContext returns the recorded headers, or the zero value.
func HTMXInfoFromContext(ctx context.Context) HTMXInfo {
	info, _ := ctx.Value(htmxContextKey{}).(HTMXInfo)
	return info
}

// IsHTMXRequest reports whether the handler should render a fragment.
func IsHTMXRequest(ctx context.Context) bool {
	return HTMXInfoFromContext(ctx).Fragment()
}

// RequireHTMX hides fragment-only routes from direct navigation with a 404.
func RequireHTMX() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsHTMXRequest(r.Context()) {
				http.NotFound(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Redirect navigates the whole page to target: HX-Redirect for htmx, 303 otherwise.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	navigate(w, r, "HX-Redirect", target, target)
}

// Refresh reloads the current page under htmx, or sends plain requests to fallback.
func Refresh(w http.ResponseWriter, r *http.Request, fallback string) {
	navigate(w, r, "HX-Refresh", "true", fallback)
}

func navigate(w http.ResponseWriter, r *http.Request, header, value, fallback string) {
	if !IsHTMXRequest(r.Context()) {
		http.Redirect(w, r, fallback, http.StatusSeeOther)
		return
	}
	w.Header().Set(header, value)
	w.WriteHeader(http.StatusNoContent)
}

func headerTrue(r *http.Request, name string) bool {
	return strings.EqualFold(strings.TrimSpace(r.Header.Get(name)), "true")
}
