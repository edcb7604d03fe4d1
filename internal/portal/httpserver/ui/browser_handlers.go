package ui

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"citizenportal.org/portal-web/internal/portal/browser"
	"citizenportal.org/portal-web/internal/portal/engagement"
	custommw "citizenportal.org/portal-web/internal/portal/httpserver/middleware"
	"citizenportal.org/portal-web/internal/portal/observability"
	browsertpl "citizenportal.org/portal-web/internal/portal/templates/browser"
)

// BrowserPage starts a fresh page session, fetches the catalog in the active
// language and renders the service list.
func (h *Handlers) BrowserPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := h.requestLanguage(r)
	ps := h.pages.Create(lang)

	observability.FromContext(ctx).Debug("page session started", zap.String("page_session", ps), zap.String("lang", lang))

	page := h.browserPage(r, ps, lang, h.loadServices(r, ps, lang))
	templ.Handler(browsertpl.Index(page)).ServeHTTP(w, r)
}

// SetLanguage switches the page session to another language. The catalog is
// fetched again and every pane below the service list is cleared.
func (h *Handlers) SetLanguage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	lang := strings.ToLower(strings.TrimSpace(r.PostFormValue("lang")))
	if !h.bundle.IsSupported(lang) {
		http.Error(w, "unsupported language", http.StatusBadRequest)
		return
	}
	custommw.SetLanguageCookie(w, lang, h.cookieSecure)

	if !custommw.IsHTMXRequest(r.Context()) {
		http.Redirect(w, r, "/?lang="+url.QueryEscape(lang), http.StatusSeeOther)
		return
	}

	ps := r.PostFormValue("ps")
	if err := h.pages.Update(ps, nil); err != nil {
		h.pageSessionError(w, r, err)
		return
	}
	page := h.browserPage(r, ps, lang, h.loadServices(r, ps, lang))
	templ.Handler(browsertpl.Root(page)).ServeHTTP(w, r)
}

// ServicesFragment reloads the service list for the page session's language.
func (h *Handlers) ServicesFragment(w http.ResponseWriter, r *http.Request) {
	ps := chi.URLParam(r, "ps")
	snap, err := h.pages.Get(ps)
	if err != nil {
		h.pageSessionError(w, r, err)
		return
	}
	templ.Handler(browsertpl.ServicesFragment(h.loadServices(r, ps, snap.Lang))).ServeHTTP(w, r)
}

// SubservicesFragment lists the subservices of one service from the cached catalog.
func (h *Handlers) SubservicesFragment(w http.ResponseWriter, r *http.Request) {
	ps := chi.URLParam(r, "ps")
	si, ok := indexParams(r, "si")
	if !ok {
		http.NotFound(w, r)
		return
	}
	var pane browsertpl.ListPane
	err := h.pages.Update(ps, func(s *browser.Session) error {
		entry, err := s.SelectService(si[0])
		if err != nil {
			return err
		}
		pane = browsertpl.BuildSubservicesPane(s.Lang(), ps, si[0], entry)
		return nil
	})
	if err != nil {
		h.pageSessionError(w, r, err)
		return
	}
	templ.Handler(browsertpl.SubservicesFragment(pane)).ServeHTTP(w, r)
}

// QuestionsFragment lists the questions of one subservice.
func (h *Handlers) QuestionsFragment(w http.ResponseWriter, r *http.Request) {
	ps := chi.URLParam(r, "ps")
	idx, ok := indexParams(r, "si", "ssi")
	if !ok {
		http.NotFound(w, r)
		return
	}
	var pane browsertpl.ListPane
	err := h.pages.Update(ps, func(s *browser.Session) error {
		sub, err := s.SelectSubservice(idx[0], idx[1])
		if err != nil {
			return err
		}
		pane = browsertpl.BuildQuestionsPane(s.Lang(), ps, idx[0], idx[1], sub)
		return nil
	})
	if err != nil {
		h.pageSessionError(w, r, err)
		return
	}
	templ.Handler(browsertpl.QuestionsFragment(pane)).ServeHTTP(w, r)
}

// AnswerFragment shows the answer to one question. It replaces whatever
// answer was visible before.
func (h *Handlers) AnswerFragment(w http.ResponseWriter, r *http.Request) {
	ps := chi.URLParam(r, "ps")
	idx, ok := indexParams(r, "si", "ssi", "qi")
	if !ok {
		http.NotFound(w, r)
		return
	}
	var pane browsertpl.AnswerPane
	err := h.pages.Update(ps, func(s *browser.Session) error {
		q, err := s.SelectQuestion(idx[0], idx[1], idx[2])
		if err != nil {
			return err
		}
		pane = browsertpl.BuildAnswerPane(h.bundle, s.Lang(), ps, q, h.engagementDelay)
		return nil
	})
	if err != nil {
		h.pageSessionError(w, r, err)
		return
	}
	templ.Handler(browsertpl.AnswerFragment(pane)).ServeHTTP(w, r)
}

// EngagementForm renders the delayed demographic prompt for the current answer.
func (h *Handlers) EngagementForm(w http.ResponseWriter, r *http.Request) {
	ps := chi.URLParam(r, "ps")
	var form browsertpl.EngagementForm
	shown := false
	err := h.pages.Update(ps, func(s *browser.Session) error {
		if s.State() != browser.StateAnswerShown {
			return nil
		}
		shown = true
		form = browsertpl.BuildEngagementForm(h.bundle, s.Lang(), ps,
			custommw.CSRFTokenFromContext(r.Context()), s.CurrentQuestion(), s.CurrentServiceName())
		return nil
	})
	if err != nil {
		h.pageSessionError(w, r, err)
		return
	}
	if !shown {
		w.WriteHeader(http.StatusOK)
		return
	}
	templ.Handler(browsertpl.EngagementFormFragment(form)).ServeHTTP(w, r)
}

// SubmitEngagement forwards the optional demographic answers to the backend.
// The outcome is never shown to the visitor; the form just disappears.
func (h *Handlers) SubmitEngagement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)
	ps := chi.URLParam(r, "ps")

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	record := engagement.Record{
		UserID:          custommw.VisitorFromContext(ctx),
		Age:             engagement.FlexString(strings.TrimSpace(r.PostFormValue("age"))),
		Job:             strings.TrimSpace(r.PostFormValue("job")),
		Desires:         []string{},
		QuestionClicked: strings.TrimSpace(r.PostFormValue("question")),
		Service:         strings.TrimSpace(r.PostFormValue("service")),
	}
	if interest := strings.TrimSpace(r.PostFormValue("interest")); interest != "" {
		record.Desires = []string{interest}
	}
	if record.QuestionClicked == "" || record.Service == "" {
		_ = h.pages.Update(ps, func(s *browser.Session) error {
			if record.QuestionClicked == "" {
				record.QuestionClicked = s.CurrentQuestion()
			}
			if record.Service == "" {
				record.Service = s.CurrentServiceName()
			}
			return nil
		})
	}

	if err := h.catalog.SubmitEngagement(ctx, record); err != nil {
		logger.Warn("engagement submission failed", zap.Error(err))
	}

	if !custommw.IsHTMXRequest(ctx) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) loadServices(r *http.Request, ps, lang string) browsertpl.ServicesPane {
	ctx := r.Context()
	c, err := h.catalog.FetchCatalog(ctx)
	if err != nil {
		observability.FromContext(ctx).Error("catalog: fetch services failed", zap.Error(err))
		return browsertpl.FailedServicesPane(h.bundle, lang)
	}
	if err := h.pages.Update(ps, func(s *browser.Session) error {
		s.LoadServices(lang, c)
		return nil
	}); err != nil {
		observability.FromContext(ctx).Warn("page session vanished during load", zap.Error(err))
	}
	return browsertpl.BuildServicesPane(h.bundle, lang, ps, c)
}

func (h *Handlers) browserPage(r *http.Request, ps, lang string, services browsertpl.ServicesPane) browsertpl.PageData {
	labels := browsertpl.BuildLabels(h.bundle, lang)
	return browsertpl.PageData{
		Title:       labels.Title,
		Lang:        lang,
		CSRFToken:   custommw.CSRFTokenFromContext(r.Context()),
		PageSession: ps,
		Languages:   browsertpl.LanguageOptions(h.bundle, h.bundle.Supported(), lang),
		Labels:      labels,
		Services:    services,
	}
}

func (h *Handlers) requestLanguage(r *http.Request) string {
	if lang := custommw.LanguageFromContext(r.Context()); lang != "" {
		return lang
	}
	return h.bundle.Fallback()
}

// pageSessionError maps store and selection errors to responses. An unknown
// page session makes htmx reload the page, which starts a new one.
func (h *Handlers) pageSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, browser.ErrSessionNotFound):
		observability.FromContext(r.Context()).Info("page session expired")
		custommw.Refresh(w, r, "/")
	case errors.Is(err, browser.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, browser.ErrOutOfOrder):
		http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
	default:
		observability.FromContext(r.Context()).Error("page session update failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// indexParams parses non-negative integer URL params in order.
func indexParams(r *http.Request, names ...string) ([]int, bool) {
	out := make([]int, 0, len(names))
	for _, name := range names {
		v, err := strconv.Atoi(chi.URLParam(r, name))
		if err != nil || v < 0 {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}
