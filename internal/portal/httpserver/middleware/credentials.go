package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"citizenportal.org/portal-web/internal/portal/observability"
)

// BackendCredentials returns the backend session cookie stored for the
// signed-in administrator, or "" when nobody is signed in.
func BackendCredentials(ctx context.Context) string {
	sess, ok := SessionFromContext(ctx)
	if !ok || sess.Admin() == nil {
		return ""
	}
	return sess.BackendCredentials()
}

// AdminUsername returns the signed-in administrator's name, if any.
func AdminUsername(ctx context.Context) string {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return ""
	}
	if admin := sess.Admin(); admin != nil {
		return admin.Username
	}
	return ""
}

// RequireAdmin sends anonymous visitors to loginPath. It only checks the local
// session; the backend still has the final say on every forwarded call.
func RequireAdmin(loginPath string) func(http.Handler) http.Handler {
	if loginPath == "" {
		loginPath = "/admin/login"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if BackendCredentials(r.Context()) == "" {
				observability.FromContext(r.Context()).Info("admin session required", zap.String("reason", "missing_session"))
				HandleUnauthorized(w, r, loginPath)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HandleUnauthorized clears the local admin state and routes the browser to loginPath.
func HandleUnauthorized(w http.ResponseWriter, r *http.Request, loginPath string) {
	if sess, ok := SessionFromContext(r.Context()); ok {
		sess.SignOut()
	}
	if IsHTMXRequest(r.Context()) {
		w.Header().Set("HX-Redirect", loginPath)
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusFound)
}
