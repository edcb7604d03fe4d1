package dashboard

import (
	"context"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"citizenportal.org/portal-web/internal/portal/catalog"
	"citizenportal.org/portal-web/internal/portal/templates/helpers"
	"citizenportal.org/portal-web/internal/portal/templates/layout"
)

// Swap targets on the service management page.
const (
	ManageTarget      = "manage-root"
	ServiceFormTarget = "service-form"
)

// ManagePageData is the full service management page.
type ManagePageData struct {
	Title     string
	Lang      string
	Username  string
	CSRFToken string
	Endpoints Endpoints
	Labels    Labels
	Fragment  ManageData
}

// ManageData is the swappable body: the service table and the edit form.
type ManageData struct {
	Rows      []ServiceRow
	Form      ServiceForm
	Error     string
	Notice    string
	Endpoints Endpoints
	Labels    ManageLabels
	CSRFToken string
}

// ServiceRow is one stored service.
type ServiceRow struct {
	ID          string
	Name        string
	Subservices int
	EditURL     string
	DeleteURL   string
}

// ServiceForm is the create or edit form. Definition holds the service as
// YAML without its id.
type ServiceForm struct {
	ID         string
	Definition string
	Error      string
	Editing    bool
}

// ManageLabels holds the translated strings of the management page.
type ManageLabels struct {
	Title         string
	ID            string
	Name          string
	Subservices   string
	Actions       string
	Edit          string
	Delete        string
	ConfirmDelete string
	Empty         string
	New           string
	Editing       string
	Definition    string
	Save          string
}

// BuildManageLabels resolves the management strings in lang.
func BuildManageLabels(tr helpers.Translator, lang string) ManageLabels {
	return ManageLabels{
		Title:         tr.T(lang, "admin.manage.title"),
		ID:            tr.T(lang, "admin.manage.id"),
		Name:          tr.T(lang, "admin.manage.name"),
		Subservices:   tr.T(lang, "admin.manage.subservices"),
		Actions:       tr.T(lang, "admin.manage.actions"),
		Edit:          tr.T(lang, "admin.manage.edit"),
		Delete:        tr.T(lang, "admin.manage.delete"),
		ConfirmDelete: tr.T(lang, "admin.manage.confirm_delete"),
		Empty:         tr.T(lang, "admin.manage.empty"),
		New:           tr.T(lang, "admin.manage.new"),
		Editing:       tr.T(lang, "admin.manage.editing"),
		Definition:    tr.T(lang, "admin.manage.definition"),
		Save:          tr.T(lang, "admin.manage.save"),
	}
}

// ServiceRows lists services in backend order with their admin links.
func ServiceRows(ctx context.Context, services catalog.Catalog, lang string) []ServiceRow {
	rows := make([]ServiceRow, 0, len(services))
	for _, s := range services {
		base := "/manage/services/" + url.PathEscape(s.ID)
		rows = append(rows, ServiceRow{
			ID:          s.ID,
			Name:        s.Name.In(lang),
			Subservices: len(s.Subservices),
			EditURL:     helpers.AdminPath(ctx, base+"/edit"),
			DeleteURL:   helpers.AdminPath(ctx, base+"/delete"),
		})
	}
	return rows
}

// ManageIndex renders the full management page.
func ManageIndex(p ManagePageData) templ.Component {
	chrome := pageChrome{
		Title:     p.Title,
		Lang:      p.Lang,
		Username:  p.Username,
		CSRFToken: p.CSRFToken,
		Endpoints: p.Endpoints,
		Labels:    p.Labels,
	}
	return adminPage(chrome, ManageTarget, ManageFragment(p.Fragment))
}

// ManageFragment renders the service table followed by the form.
func ManageFragment(m ManageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Raw("<h2>").Text(m.Labels.Title).Raw("</h2>")
		h.Render(ctx, noticeBanner(m.Notice))
		h.Render(ctx, layout.ErrorBanner(m.Error))

		if len(m.Rows) == 0 {
			h.Raw(`<p class="empty" data-services-empty>`).Text(m.Labels.Empty).Raw("</p>")
		} else {
			h.Render(ctx, serviceTable(m))
		}

		h.Raw("<section").Attr("id", ServiceFormTarget).Raw(` class="panel">`)
		h.Render(ctx, ServiceFormFragment(m))
		h.Raw("</section>")
		return h.Err()
	})
}

func serviceTable(m ManageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Raw(`<table id="service-table"><thead><tr>`)
		for _, col := range []string{m.Labels.ID, m.Labels.Name, m.Labels.Subservices, m.Labels.Actions} {
			h.Raw("<th>").Text(col).Raw("</th>")
		}
		h.Raw("</tr></thead><tbody>")
		for _, row := range m.Rows {
			h.Raw("<tr").Attr("data-service-id", row.ID).Raw(">")
			h.Raw("<td>").Text(row.ID).Raw("</td>")
			h.Raw("<td>").Text(row.Name).Raw("</td>")
			h.Raw("<td>").Textf("%d", row.Subservices).Raw("</td>")
			h.Raw("<td>")
			h.Raw(`<a data-edit`).
				Attr("href", row.EditURL).
				Attr("hx-get", row.EditURL).
				Attr("hx-target", "#"+ServiceFormTarget).
				Raw(">").Text(m.Labels.Edit).Raw("</a> ")
			h.Raw(`<form method="post" class="inline" data-delete`).
				Attr("action", row.DeleteURL).
				Attr("hx-post", row.DeleteURL).
				Attr("hx-target", "#"+ManageTarget).
				Attr("hx-confirm", m.Labels.ConfirmDelete).
				Raw(">")
			h.Render(ctx, csrfField(m.CSRFToken))
			h.Raw(`<button type="submit">`).Text(m.Labels.Delete).Raw("</button></form>")
			h.Raw("</td></tr>")
		}
		h.Raw("</tbody></table>")
		return h.Err()
	})
}

// ServiceFormFragment renders the create or edit form alone, for the edit links.
func ServiceFormFragment(m ManageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		f := m.Form
		h := helpers.NewHTML(w)
		heading := m.Labels.New
		if f.Editing {
			heading = m.Labels.Editing
		}
		h.Raw("<h3>").Text(heading).Raw("</h3>")
		if f.Error != "" {
			h.Raw(`<p class="alert alert-error" data-form-error>`).Text(f.Error).Raw("</p>")
		}
		h.Raw(`<form id="service-editor" method="post"`).
			Attr("action", m.Endpoints.SaveService).
			Attr("hx-post", m.Endpoints.SaveService).
			Attr("hx-target", "#"+ManageTarget).
			Raw(">")
		h.Render(ctx, csrfField(m.CSRFToken))
		if f.Editing {
			h.Raw(`<input type="hidden" name="editing" value="1">`)
		}
		h.Raw("<label>").Text(m.Labels.ID)
		h.Raw(`<input type="text" name="id" required`).Attr("value", f.ID).AttrIf(f.Editing, "readonly").Raw("></label>")
		h.Raw("<label>").Text(m.Labels.Definition)
		h.Raw(`<textarea name="definition" rows="16" spellcheck="false">`).Text(f.Definition).Raw("</textarea></label>")
		h.Raw(`<button type="submit">`).Text(m.Labels.Save).Raw("</button></form>")
		return h.Err()
	})
}

func noticeBanner(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if message == "" {
			return nil
		}
		h := helpers.NewHTML(w)
		h.Raw(`<div class="alert alert-success" role="status" data-notice>`).Text(message).Raw("</div>")
		return h.Err()
	})
}
