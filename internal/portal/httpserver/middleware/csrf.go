package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"citizenportal.org/portal-web/internal/portal/observability"
)

type csrfContextKey struct{}

type csrfContext struct {
	token  string
	header string
}

// CSRFFormField is the hidden form field carrying the token for plain form posts.
const CSRFFormField = "_csrf"

const (
	defaultCSRFCookie = "portal_csrf"
	defaultCSRFHeader = "X-CSRF-Token"
	csrfTokenBytes    = 32
)

var errTokenGeneration = errors.New("csrf: token generation failed")

// CSRFConfig controls cookie/header behaviour.
type CSRFConfig struct {
	CookieName string
	CookiePath string
	HeaderName string
	FormField  string
	MaxAge     time.Duration
	Secure     bool
}

type csrfGuard struct {
	cookie    string
	path      string
	header    string
	field     string
	maxAge    int
	secure    bool
	encodeLen int
}

func newCSRFGuard(cfg CSRFConfig) csrfGuard {
	g := csrfGuard{
		cookie:    cfg.CookieName,
		path:      cfg.CookiePath,
		header:    cfg.HeaderName,
		field:     cfg.FormField,
		maxAge:    int(cfg.MaxAge.Seconds()),
		secure:    cfg.Secure,
		encodeLen: base64.RawURLEncoding.EncodedLen(csrfTokenBytes),
	}
	if g.cookie == "" {
		g.cookie = defaultCSRFCookie
	}
	if g.path == "" {
		g.path = "/"
	}
	if g.header == "" {
		g.header = defaultCSRFHeader
	}
	if g.field == "" {
		g.field = CSRFFormField
	}
	if g.maxAge <= 0 {
		g.maxAge = int((24 * time.Hour).Seconds())
	}
	return g
}

// CSRF applies double-submit cookie protection to the portal's form posts and
// htmx requests. Every request gets a token in its context; POSTs must echo
// the cookie value in the header (htmx, via hx-headers on <body>) or in the
// _csrf form field.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	guard := newCSRFGuard(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := observability.FromContext(r.Context())

			token, err := guard.token(w, r)
			if err != nil {
				logger.Error("csrf token unavailable", zap.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			if mutates(r.Method) && !guard.matches(r, token) {
				logger.Warn("csrf validation failed", zap.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), csrfContextKey{}, csrfContext{token: token, header: guard.header})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CSRFTokenFromContext returns the token issued for the current request (to embed in forms or meta tags).
func CSRFTokenFromContext(ctx context.Context) string {
	c, _ := ctx.Value(csrfContextKey{}).(csrfContext)
	return c.token
}

// CSRFHeaderFromContext returns the header name htmx must echo the token in.
func CSRFHeaderFromContext(ctx context.Context) string {
	if c, ok := ctx.Value(csrfContextKey{}).(csrfContext); ok && c.header != "" {
		return c.header
	}
	return defaultCSRFHeader
}

// token returns the cookie token, minting a new one when the cookie is
// missing or does not look like one of ours.
func (g csrfGuard) token(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(g.cookie); err == nil && len(c.Value) == g.encodeLen {
		return c.Value, nil
	}

	raw := securecookie.GenerateRandomKey(csrfTokenBytes)
	if raw == nil {
		return "", errTokenGeneration
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	http.SetCookie(w, &http.Cookie{
		Name:     g.cookie,
		Value:    token,
		Path:     g.path,
		HttpOnly: true,
		Secure:   g.secure || r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   g.maxAge,
	})
	return token, nil
}

func (g csrfGuard) matches(r *http.Request, token string) bool {
	submitted := r.Header.Get(g.header)
	if submitted == "" {
		submitted = r.PostFormValue(g.field)
	}
	return submitted != "" && subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) == 1
}

func mutates(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	}
	return true
}
