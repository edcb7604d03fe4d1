package browser

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"

	"citizenportal.org/portal-web/internal/portal/httpserver/middleware"
	"citizenportal.org/portal-web/internal/portal/templates/helpers"
	"citizenportal.org/portal-web/internal/portal/templates/layout"
)

// Drill-down requests share one sync scope so a newer click aborts an older
// in-flight one.
const syncScope = "closest main:replace"

// Index renders the full service browser page.
func Index(p PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		shell := layout.PageData{
			Title:       p.Title,
			Lang:        p.Lang,
			CSRFToken:   p.CSRFToken,
			CSRFHeader:  middleware.CSRFHeaderFromContext(ctx),
			Environment: middleware.EnvironmentFromContext(ctx),
			BodyClass:   "browser",
		}
		return layout.Base(shell, Root(p)).Render(ctx, w)
	})
}

// Root renders everything below <body>. A language switch swaps it whole.
func Root(p PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Raw("<div").Attr("id", RootID).Attr("data-page-session", p.PageSession).Attr("data-lang", p.Lang).Raw(">")
		h.Raw(`<header class="topbar"><h1>`).Text(p.Labels.Title).Raw("</h1>")
		h.Render(ctx, languageSwitcher(p))
		h.Raw("</header>")

		h.Raw(`<main class="panes">`)
		h.Raw("<section").Attr("id", ServicesID).Attr("aria-label", p.Labels.Services).Raw(">")
		h.Render(ctx, ServicesList(p.Services))
		h.Raw("</section>")
		for _, pane := range []struct{ id, label string }{
			{SubservicesID, p.Labels.Subservices},
			{QuestionsID, p.Labels.Questions},
			{AnswerID, p.Labels.Answer},
		} {
			h.Raw("<section").Attr("id", pane.id).Attr("aria-label", pane.label).Raw("></section>")
		}
		h.Raw("</main></div>")
		return h.Err()
	})
}

func languageSwitcher(p PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Raw(`<form class="languages" method="get" action="/" data-language-switcher`).
			Attr("aria-label", p.Labels.Language).
			Attr("hx-post", LanguageURL).
			Attr("hx-target", "#"+RootID).
			Attr("hx-swap", "outerHTML").
			Raw(">")
		h.Raw(`<input type="hidden" name="ps"`).Attr("value", p.PageSession).Raw(">")
		for _, opt := range p.Languages {
			h.Raw(`<button type="submit" name="lang"`).Attr("value", opt.Code)
			if opt.Active {
				h.Attr("aria-current", "true")
			}
			h.Raw(">").Text(opt.Name).Raw("</button>")
		}
		h.Raw("</form>")
		return h.Err()
	})
}

// ServicesList renders the top-level service names.
func ServicesList(pane ServicesPane) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		if pane.Message != "" {
			class := "empty"
			if pane.Failed {
				class = "alert alert-error"
			}
			h.Raw("<p").Attr("class", class).Raw(">").Text(pane.Message).Raw("</p>")
			return h.Err()
		}
		h.Render(ctx, linkList(pane.Items, SubservicesID))
		return h.Err()
	})
}

// ServicesFragment re-renders the service list and clears the deeper panes.
func ServicesFragment(pane ServicesPane) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Render(ctx, ServicesList(pane))
		h.Render(ctx, clearPanes(SubservicesID, QuestionsID, AnswerID))
		return h.Err()
	})
}

// SubservicesFragment lists the subservices and clears the question and answer panes.
func SubservicesFragment(pane ListPane) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Raw("<h2>").Text(pane.Heading).Raw("</h2>")
		h.Render(ctx, linkList(pane.Items, QuestionsID))
		h.Render(ctx, clearPanes(QuestionsID, AnswerID))
		return h.Err()
	})
}

// QuestionsFragment lists the questions and clears the answer pane.
func QuestionsFragment(pane ListPane) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Raw("<h2>").Text(pane.Heading).Raw("</h2>")
		h.Render(ctx, linkList(pane.Items, AnswerID))
		h.Render(ctx, clearPanes(AnswerID))
		return h.Err()
	})
}

// AnswerFragment renders <h3>{q}</h3><p>{answer}</p> followed by the optional
// downloads, location and instructions blocks.
func AnswerFragment(pane AnswerPane) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Raw("<h3>").Text(pane.Question).Raw("</h3><p>").Text(pane.Answer).Raw("</p>")

		if len(pane.Downloads) > 0 {
			h.Raw(`<div class="downloads" data-downloads><h4>`).Text(pane.DownloadsLabel).Raw("</h4><ul>")
			for _, d := range pane.Downloads {
				h.Raw("<li><a").URL("href", d.URL).Raw(` download target="_blank" rel="noopener">`).Text(d.Label).Raw("</a></li>")
			}
			h.Raw("</ul></div>")
		}
		if pane.Location != "" {
			h.Raw(`<div class="location" data-location><h4>`).Text(pane.LocationLabel).Raw("</h4>")
			h.Raw("<a").URL("href", pane.Location).Raw(` target="_blank" rel="noopener">`).Text(pane.ViewLocation).Raw("</a></div>")
		}
		if pane.Instructions != "" {
			h.Raw(`<div class="instructions" data-instructions><h4>`).Text(pane.InstructionsLabel).Raw("</h4>")
			h.Render(ctx, helpers.Markdown(pane.Instructions))
			h.Raw("</div>")
		}

		if pane.EngagementURL != "" {
			h.Raw(`<div class="engagement-slot" hx-swap="outerHTML"`).
				Attr("hx-get", pane.EngagementURL).
				Attr("hx-trigger", "load delay:"+delayString(pane.EngagementDelay)).
				Raw("></div>")
		}
		return h.Err()
	})
}

// EngagementFormFragment renders the dismissible demographic prompt.
func EngagementFormFragment(f EngagementForm) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Raw(`<form class="engagement" method="post" hx-target="this" hx-swap="outerHTML" data-engagement-form`).
			Attr("action", f.Action).
			Attr("hx-post", f.Action).
			Raw(">")
		h.Raw("<h4>").Text(f.Title).Raw("</h4>")
		if f.CSRFToken != "" {
			h.Raw(`<input type="hidden"`).Attr("name", middleware.CSRFFormField).Attr("value", f.CSRFToken).Raw(">")
		}
		h.Raw(`<input type="hidden" name="question"`).Attr("value", f.Question).Raw(">")
		h.Raw(`<input type="hidden" name="service"`).Attr("value", f.Service).Raw(">")
		h.Raw("<label>").Text(f.Age).Raw(`<input type="number" name="age" min="0" max="130" inputmode="numeric"></label>`)
		h.Raw("<label>").Text(f.Job).Raw(`<input type="text" name="job" maxlength="120"></label>`)
		h.Raw("<label>").Text(f.Interest).Raw(`<input type="text" name="interest" maxlength="120"></label>`)
		h.Raw(`<button type="submit">`).Text(f.Submit).Raw("</button>")
		h.Raw(`<button type="button" data-engagement-dismiss>`).Text(f.Dismiss).Raw("</button>")
		h.Raw("</form>")
		return h.Err()
	})
}

func linkList(items []Link, target string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Raw("<ul>")
		for _, item := range items {
			h.Raw(`<li><button type="button" class="link" hx-swap="innerHTML"`).
				Attr("hx-get", item.URL).
				Attr("hx-target", "#"+target).
				Attr("hx-sync", syncScope).
				Raw(">").Text(item.Label).Raw("</button></li>")
		}
		h.Raw("</ul>")
		return h.Err()
	})
}

func clearPanes(ids ...string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		for _, id := range ids {
			h.Raw("<div").Attr("id", id).Raw(` hx-swap-oob="innerHTML"></div>`)
		}
		return h.Err()
	})
}

func delayString(d time.Duration) string {
	if d <= 0 {
		return "0ms"
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}
