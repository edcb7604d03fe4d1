package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"citizenportal.org/portal-web/internal/portal/browser"
	"citizenportal.org/portal-web/internal/portal/catalog"
	custommw "citizenportal.org/portal-web/internal/portal/httpserver/middleware"
)

type fixture struct {
	handlers *Handlers
	catalog  *catalog.StaticService
	pages    *browser.Store
	router   http.Handler
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	sample, err := catalog.NewSampleService()
	require.NoError(t, err)
	pages := browser.NewStore(time.Minute)

	h, err := NewHandlers(Dependencies{
		CatalogService:  sample,
		PageSessions:    pages,
		EngagementDelay: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(custommw.HTMX())
	r.Get("/admin", h.Dashboard)
	r.Get("/browser/{ps}/services", h.ServicesFragment)
	r.Get("/browser/{ps}/services/{si}", h.SubservicesFragment)
	r.Get("/browser/{ps}/services/{si}/subservices/{ssi}/questions/{qi}", h.AnswerFragment)
	r.Get("/browser/{ps}/engagement", h.EngagementForm)
	r.Post("/browser/{ps}/engagement", h.SubmitEngagement)

	return fixture{handlers: h, catalog: sample, pages: pages, router: r}
}

// answered returns a page session whose answer pane shows Health > Clinics > Open now?.
func (f fixture) answered(t *testing.T) string {
	t.Helper()
	c, err := f.catalog.FetchCatalog(context.Background())
	require.NoError(t, err)
	ps := f.pages.Create("en")
	require.NoError(t, f.pages.Update(ps, func(s *browser.Session) error {
		s.LoadServices("en", c)
		_, err := s.SelectQuestion(0, 0, 0)
		return err
	}))
	return ps
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func (f fixture) serve(req *http.Request, htmx bool) *httptest.ResponseRecorder {
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitEngagementFallsBackToSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ps := f.answered(t)

	form := url.Values{"age": {"20"}}
	req := httptest.NewRequest(http.MethodPost, "/browser/"+ps+"/engagement", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := f.serve(req, true)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, rec.Body.Len())

	subs := f.catalog.Submissions()
	require.Len(t, subs, 1)
	require.Equal(t, "Open now?", subs[0].QuestionClicked)
	require.Equal(t, "Health", subs[0].Service)
	require.Equal(t, "20", subs[0].Age.String())
	require.NotNil(t, subs[0].Desires)
	require.Empty(t, subs[0].Desires)
}

func TestSubmitEngagementPlainFormRedirects(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ps := f.answered(t)

	req := httptest.NewRequest(http.MethodPost, "/browser/"+ps+"/engagement", strings.NewReader("job=Farmer"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := f.serve(req, false)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Len(t, f.catalog.Submissions(), 1)
}

func TestEngagementFormOnlyAfterAnswer(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	idle := f.pages.Create("en")

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/browser/"+idle+"/engagement", nil), true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, rec.Body.Len())

	ps := f.answered(t)
	rec = f.serve(httptest.NewRequest(http.MethodGet, "/browser/"+ps+"/engagement", nil), true)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseBody(t, rec)
	require.Equal(t, 1, doc.Find("form[data-engagement-form]").Length())
	require.Equal(t, 1, doc.Find("[data-engagement-dismiss]").Length())
}

func TestAnswerFragmentSchedulesEngagement(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c, err := f.catalog.FetchCatalog(context.Background())
	require.NoError(t, err)
	ps := f.pages.Create("en")
	require.NoError(t, f.pages.Update(ps, func(s *browser.Session) error {
		s.LoadServices("en", c)
		return nil
	}))

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/browser/"+ps+"/services/0/subservices/0/questions/1", nil), true)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseBody(t, rec)
	require.Equal(t, "clinic-registration.pdf", strings.TrimSpace(doc.Find("[data-downloads] a").Text()))
	require.Equal(t, 1, doc.Find("[data-location]").Length())
	require.Equal(t, 1, doc.Find("[data-instructions] strong").Length())
	require.Equal(t, "load delay:20ms", doc.Find(".engagement-slot").AttrOr("hx-trigger", ""))

	snap, err := f.pages.Get(ps)
	require.NoError(t, err)
	require.Equal(t, browser.StateAnswerShown, snap.State)
}

func TestPageSessionErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/browser/unknown/services/0", nil), false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	idle := f.pages.Create("en")
	rec = f.serve(httptest.NewRequest(http.MethodGet, "/browser/"+idle+"/services/0", nil), true)
	require.Equal(t, http.StatusConflict, rec.Code)

	ps := f.answered(t)
	rec = f.serve(httptest.NewRequest(http.MethodGet, "/browser/"+ps+"/services/abc", nil), true)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.serve(httptest.NewRequest(http.MethodGet, "/browser/"+ps+"/services/7", nil), true)
	require.Equal(t, http.StatusNotFound, rec.Code)

	snap, err := f.pages.Get(ps)
	require.NoError(t, err)
	require.Equal(t, browser.StateAnswerShown, snap.State, "failed selection leaves the state alone")
}

func TestServicesFragmentReloadsAndClears(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ps := f.answered(t)

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/browser/"+ps+"/services", nil), true)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseBody(t, rec)
	require.Equal(t, 2, doc.Find("button.link").Length())
	require.Equal(t, 3, doc.Find("[hx-swap-oob]").Length())

	snap, err := f.pages.Get(ps)
	require.NoError(t, err)
	require.Equal(t, browser.StateServicesLoaded, snap.State)
}

func TestDashboardWithoutSessionShowsLogin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/admin", nil), true)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseBody(t, rec)
	require.Zero(t, doc.Find("title").Length(), "htmx gets the fragment only")
	require.Equal(t, 1, doc.Find("#login-form").Length())
	_, hidden := doc.Find("#dashboard").Attr("hidden")
	require.True(t, hidden)
}
