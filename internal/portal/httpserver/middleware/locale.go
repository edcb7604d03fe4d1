package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type localeContextKey struct{}

type visitorContextKey struct{}

const (
	// LangCookie remembers the visitor's language choice.
	LangCookie = "portal_lang"
	// VisitorCookie carries the anonymous visitor id sent with engagements.
	VisitorCookie = "portal_visitor"

	langCookieMaxAge    = 365 * 24 * time.Hour
	visitorCookieMaxAge = 2 * 365 * 24 * time.Hour
)

// LanguageResolver is the subset of the i18n bundle the locale middleware needs.
type LanguageResolver interface {
	IsSupported(lang string) bool
	Resolve(acceptLanguage string) string
}

// Locale picks the active language from the lang query parameter, then the
// language cookie, then Accept-Language. An explicit query choice is remembered.
func Locale(resolver LanguageResolver, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := ""
			if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("lang"))); q != "" && resolver.IsSupported(q) {
				lang = q
				SetLanguageCookie(w, lang, secure)
			}
			if lang == "" {
				if c, err := r.Cookie(LangCookie); err == nil && resolver.IsSupported(c.Value) {
					lang = strings.ToLower(c.Value)
				}
			}
			if lang == "" {
				lang = resolver.Resolve(r.Header.Get("Accept-Language"))
			}
			ctx := context.WithValue(r.Context(), localeContextKey{}, lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetLanguageCookie stores lang for later visits.
func SetLanguageCookie(w http.ResponseWriter, lang string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookie,
		Value:    lang,
		Path:     "/",
		MaxAge:   int(langCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// LanguageFromContext returns the resolved language or "" when unavailable.
func LanguageFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(localeContextKey{}).(string); ok {
		return lang
	}
	return ""
}

// Visitor issues a random visitor id cookie on first contact.
func Visitor(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(VisitorCookie); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     VisitorCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int(visitorCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := context.WithValue(r.Context(), visitorContextKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// VisitorFromContext returns the visitor id or "".
func VisitorFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(visitorContextKey{}).(string); ok {
		return id
	}
	return ""
}
