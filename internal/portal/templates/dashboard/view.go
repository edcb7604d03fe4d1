package dashboard

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"citizenportal.org/portal-web/internal/portal/httpserver/middleware"
	"citizenportal.org/portal-web/internal/portal/templates/helpers"
	"citizenportal.org/portal-web/internal/portal/templates/layout"
)

// FragmentTarget is the element the refresh button swaps.
const FragmentTarget = "dashboard-root"

// Index renders the full admin page.
func Index(p PageData) templ.Component {
	chrome := pageChrome{
		Title:     p.Title,
		Lang:      p.Lang,
		Username:  p.Username,
		CSRFToken: p.CSRFToken,
		Endpoints: p.Endpoints,
		Labels:    p.Labels,
	}
	return adminPage(chrome, FragmentTarget, Fragment(p.Fragment))
}

type pageChrome struct {
	Title     string
	Lang      string
	Username  string
	CSRFToken string
	Endpoints Endpoints
	Labels    Labels
}

// adminPage wraps content in the admin header and the <main> swap target.
func adminPage(p pageChrome, target string, content templ.Component) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Raw(`<header class="topbar"><h1>`).Text(p.Labels.Title).Raw("</h1>")
		if p.Username != "" {
			h.Raw(`<nav class="admin-nav">`)
			h.Raw(`<a data-nav="dashboard"`).Attr("href", p.Endpoints.Dashboard).Raw(">").Text(p.Labels.NavDashboard).Raw("</a>")
			h.Raw(`<a data-nav="manage"`).Attr("href", p.Endpoints.Manage).Raw(">").Text(p.Labels.NavManage).Raw("</a>")
			h.Raw("</nav>")
			h.Raw(`<form method="post" class="logout" data-logout-form`).Attr("action", p.Endpoints.Logout).Raw(">")
			h.Render(ctx, csrfField(p.CSRFToken))
			h.Raw(`<span class="user">`).Text(p.Username).Raw("</span>")
			h.Raw(`<button type="submit">`).Text(p.Labels.Logout).Raw("</button></form>")
		}
		h.Raw("</header>")
		h.Raw("<main").Attr("id", target).Raw(">")
		h.Render(ctx, content)
		h.Raw("</main>")
		return h.Err()
	})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		shell := layout.PageData{
			Title:       p.Title,
			Lang:        p.Lang,
			CSRFToken:   p.CSRFToken,
			CSRFHeader:  middleware.CSRFHeaderFromContext(ctx),
			Environment: middleware.EnvironmentFromContext(ctx),
			BodyClass:   "admin",
		}
		return layout.Base(shell, body).Render(ctx, w)
	})
}

// Fragment renders the login and dashboard sections. Exactly one is visible.
func Fragment(f FragmentData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Render(ctx, layout.ErrorBanner(f.Error))

		h.Raw(`<section id="login-section" class="login"`).AttrIf(!f.ShowLogin, "hidden").Raw(">")
		if f.ShowLogin {
			h.Render(ctx, loginForm(f))
		}
		h.Raw("</section>")

		h.Raw(`<section id="dashboard" class="dashboard"`).AttrIf(!f.ShowDashboard(), "hidden").Raw(">")
		if f.ShowDashboard() {
			h.Render(ctx, dashboardBody(f))
		}
		h.Raw("</section>")
		return h.Err()
	})
}

func loginForm(f FragmentData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Raw("<h2>").Text(f.Labels.LoginTitle).Raw("</h2>")
		if f.LoginFailed != "" {
			h.Raw(`<p class="alert alert-error" data-login-failed>`).Text(f.LoginFailed).Raw("</p>")
		}
		h.Raw(`<form id="login-form" method="post"`).Attr("action", f.Endpoints.Login).Raw(">")
		h.Render(ctx, csrfField(f.CSRFToken))
		h.Raw(`<label>`).Text(f.Labels.Username).Raw(`<input type="text" name="username" autocomplete="username" required></label>`)
		h.Raw(`<label>`).Text(f.Labels.Password).Raw(`<input type="password" name="password" autocomplete="current-password" required></label>`)
		h.Raw(`<button type="submit">`).Text(f.Labels.Submit).Raw("</button></form>")
		return h.Err()
	})
}

func dashboardBody(f FragmentData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Raw(`<div class="toolbar">`)
		h.Raw(`<button type="button" data-refresh`).
			Attr("hx-get", f.Endpoints.Refresh).
			Attr("hx-target", "#"+FragmentTarget).
			Attr("hx-swap", "innerHTML").
			Raw(">").Text(f.Labels.Refresh).Raw("</button>")
		h.Raw(`<a class="button" data-export="csv"`).Attr("href", f.Endpoints.ExportCSV).Raw(">").Text(f.Labels.ExportCSV).Raw("</a>")
		h.Raw(`<a class="button" data-export="xlsx"`).Attr("href", f.Endpoints.ExportXLSX).Raw(">").Text(f.Labels.ExportXLSX).Raw("</a>")
		h.Raw("</div>")

		h.Raw(`<div class="charts">`)
		for _, c := range f.Charts {
			h.Render(ctx, Chart(c, f.Labels.ChartEmpty))
		}
		h.Raw("</div>")

		h.Raw(`<section class="panel"><h2>`).Text(f.Labels.Premium).Raw(`</h2><div id="premium-suggestions">`)
		if len(f.Suggestions) == 0 {
			h.Text(f.NoSuggest)
		}
		for _, line := range f.Suggestions {
			h.Raw("<div>").Text(line).Raw("</div>")
		}
		h.Raw("</div></section>")

		h.Raw(`<section class="panel" id="desires"><h2>`).Text(f.Labels.Desires).Raw("</h2>")
		h.Render(ctx, helpers.Table("desire-table", f.Labels.DesireColumns, helpers.TableRows(f.Desires)))
		h.Raw("</section>")

		h.Raw(`<section class="panel" id="engagements"><h2>`).Text(f.Labels.Engagements).Raw("</h2>")
		h.Render(ctx, helpers.Table("engagement-table", f.Labels.Columns, helpers.TableRows(f.Engagements)))
		h.Raw("</section>")
		return h.Err()
	})
}

func csrfField(token string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if token == "" {
			return nil
		}
		h := helpers.NewHTML(w)
		h.Raw(`<input type="hidden"`).Attr("name", middleware.CSRFFormField).Attr("value", token).Raw(">")
		return h.Err()
	})
}
