package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRequireAdminMiddleware(t *testing.T) {
	clock := &sessionTestClock{now: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)}
	store := newSessionStoreForTest(t, clock)

	signIn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromContext(r.Context())
		sess.SignIn("admin", "session=abc", clock.now)
		w.WriteHeader(http.StatusNoContent)
	})
	protected := HTMX()(Session(store)(RequireAdmin("/admin/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := BackendCredentials(r.Context()); got != "session=abc" {
			t.Fatalf("expected backend credentials in context, got %q", got)
		}
		if got := AdminUsername(r.Context()); got != "admin" {
			t.Fatalf("expected admin username, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))))

	t.Run("anonymous request redirects", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/export.csv", nil)
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		if rr.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rr.Code)
		}
		if location := rr.Header().Get("Location"); location != "/admin/login" {
			t.Fatalf("expected redirect to /admin/login, got %s", location)
		}
	})

	t.Run("htmx anonymous request returns 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/export.csv", nil)
		req.Header.Set("HX-Request", "true")
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
		if rr.Header().Get("HX-Redirect") != "/admin/login" {
			t.Fatalf("expected HX-Redirect header to /admin/login")
		}
	})

	t.Run("signed-in session passes through", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Session(store)(signIn).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/login", nil))
		cookie := findCookie(rr.Result().Cookies(), "test_session")
		if cookie == nil {
			t.Fatalf("expected session cookie after sign in")
		}

		req := httptest.NewRequest(http.MethodGet, "/admin/export.csv", nil)
		req.AddCookie(cookie)
		rr = httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})
}

func TestCSRFMiddleware(t *testing.T) {
	mw := CSRF(CSRFConfig{CookieName: "csrf", HeaderName: "X-CSRF-Token"})
	csrfToken := strings.Repeat("k", 43)

	t.Run("replaces malformed cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "csrf", Value: "short"})
		rr := httptest.NewRecorder()
		var seen string
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = CSRFTokenFromContext(r.Context())
		})).ServeHTTP(rr, req)

		if seen == "short" || len(seen) != 43 {
			t.Fatalf("expected fresh token, got %q", seen)
		}
		cookies := rr.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Value != seen {
			t.Fatalf("expected replacement cookie, got %+v", cookies)
		}
	})

	t.Run("issues cookie on GET", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		rr := httptest.NewRecorder()
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := CSRFTokenFromContext(r.Context())
			if token == "" {
				t.Fatalf("expected token in context")
			}
			w.WriteHeader(http.StatusOK)
		})).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		found := false
		for _, c := range rr.Result().Cookies() {
			if c.Name == "csrf" && c.Value != "" {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected csrf cookie to be set")
		}
	})

	t.Run("rejects unsafe request without header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: "csrf", Value: csrfToken})
		rr := httptest.NewRecorder()
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
	})

	t.Run("allows unsafe request with matching header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: "csrf", Value: csrfToken})
		req.Header.Set("X-CSRF-Token", csrfToken)
		rr := httptest.NewRecorder()
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})).ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("allows form post with matching field", func(t *testing.T) {
		form := url.Values{CSRFFormField: {csrfToken}, "username": {"admin"}}
		req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: "csrf", Value: csrfToken})
		rr := httptest.NewRecorder()
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.PostFormValue("username") != "admin" {
				t.Fatalf("expected form to remain readable")
			}
			w.WriteHeader(http.StatusOK)
		})).ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})
}

func TestHTMXMiddleware(t *testing.T) {
	base := HTMX()

	t.Run("detects htmx", func(t *testing.T) {
		handler := base(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsHTMXRequest(r.Context()) {
				t.Fatalf("expected htmx request")
			}
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/admin/fragments/dashboard", nil)
		req.Header.Set("HX-Request", "true")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("RequireHTMX blocks non-htmx", func(t *testing.T) {
		handler := base(RequireHTMX()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))
		req := httptest.NewRequest(http.MethodGet, "/admin/fragments/dashboard", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})

	t.Run("history restore renders full page", func(t *testing.T) {
		var fragment bool
		handler := base(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fragment = IsHTMXRequest(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("HX-Request", "true")
		req.Header.Set("HX-History-Restore-Request", "true")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if fragment {
			t.Fatalf("history restore must not be treated as a fragment request")
		}
		if rr.Header().Get("Vary") != "HX-Request" {
			t.Fatalf("expected Vary: HX-Request, got %q", rr.Header().Get("Vary"))
		}
	})

	t.Run("Refresh sets HX-Refresh for htmx", func(t *testing.T) {
		handler := base(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Refresh(w, r, "/")
		}))
		req := httptest.NewRequest(http.MethodGet, "/browser/gone/services", nil)
		req.Header.Set("HX-Request", "true")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Header().Get("HX-Refresh") != "true" {
			t.Fatalf("expected HX-Refresh header")
		}

		rr = httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/browser/gone/services", nil))
		if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/" {
			t.Fatalf("expected redirect to /, got %d %s", rr.Code, rr.Header().Get("Location"))
		}
	})
}

func TestNoStoreMiddleware(t *testing.T) {
	handler := NoStore()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Cache-Control"); got != "no-store, max-age=0" {
		t.Fatalf("unexpected Cache-Control: %s", got)
	}
	if got := rr.Header().Get("Pragma"); got != "no-cache" {
		t.Fatalf("unexpected Pragma: %s", got)
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

type stubResolver struct{}

func (stubResolver) IsSupported(lang string) bool {
	switch strings.ToLower(lang) {
	case "en", "si", "ta":
		return true
	}
	return false
}

func (stubResolver) Resolve(accept string) string {
	if strings.HasPrefix(accept, "ta") {
		return "ta"
	}
	return "en"
}

func TestLocaleMiddleware(t *testing.T) {
	var got string
	handler := Locale(stubResolver{}, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LanguageFromContext(r.Context())
	}))

	t.Run("query wins and is remembered", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?lang=SI", nil)
		req.AddCookie(&http.Cookie{Name: LangCookie, Value: "ta"})
		req.Header.Set("Accept-Language", "ta")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if got != "si" {
			t.Fatalf("expected si, got %s", got)
		}
		if c := findCookie(rr.Result().Cookies(), LangCookie); c == nil || c.Value != "si" {
			t.Fatalf("expected language cookie to be set")
		}
	})

	t.Run("cookie beats header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: LangCookie, Value: "si"})
		req.Header.Set("Accept-Language", "ta")
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if got != "si" {
			t.Fatalf("expected si, got %s", got)
		}
	})

	t.Run("unsupported query falls through to header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?lang=fr", nil)
		req.Header.Set("Accept-Language", "ta-LK")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if got != "ta" {
			t.Fatalf("expected ta, got %s", got)
		}
		if c := findCookie(rr.Result().Cookies(), LangCookie); c != nil {
			t.Fatalf("unexpected language cookie %v", c)
		}
	})
}

func TestVisitorMiddleware(t *testing.T) {
	var got string
	handler := Visitor(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = VisitorFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := findCookie(rr.Result().Cookies(), VisitorCookie)
	if cookie == nil {
		t.Fatalf("expected visitor cookie")
	}
	if _, err := uuid.Parse(got); err != nil || got != cookie.Value {
		t.Fatalf("expected uuid visitor id, got %q", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got != cookie.Value {
		t.Fatalf("expected visitor id to be reused")
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Fatalf("expected no new cookie for returning visitor")
	}
}

func TestSiteInfoMiddleware(t *testing.T) {
	var base, env string
	handler := SiteInfo("ops/", " Staging ")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base = BasePathFromContext(r.Context())
		env = EnvironmentFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if base != "/ops" {
		t.Fatalf("expected /ops, got %q", base)
	}
	if env != "Staging" {
		t.Fatalf("expected Staging, got %q", env)
	}

	bare := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := BasePathFromContext(bare.Context()); got != "/" {
		t.Fatalf("expected / without site info, got %q", got)
	}
	if got := EnvironmentFromContext(bare.Context()); got != "Development" {
		t.Fatalf("expected Development default, got %q", got)
	}
}
