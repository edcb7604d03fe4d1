package dashboard

import (
	"context"

	"citizenportal.org/portal-web/internal/portal/charts"
	admindashboard "citizenportal.org/portal-web/internal/portal/dashboard"
	"citizenportal.org/portal-web/internal/portal/engagement"
	"citizenportal.org/portal-web/internal/portal/templates/helpers"
)

// PageData represents the full dashboard SSR payload.
type PageData struct {
	Title     string
	Lang      string
	Username  string
	CSRFToken string
	Endpoints Endpoints
	Labels    Labels
	Fragment  FragmentData
}

// Endpoints are the admin routes the page links to.
type Endpoints struct {
	Dashboard   string
	Manage      string
	SaveService string
	Refresh     string
	Login       string
	Logout      string
	ExportCSV   string
	ExportXLSX  string
}

// Labels holds the translated chrome strings.
type Labels struct {
	Title         string
	NavDashboard  string
	NavManage     string
	Refresh       string
	Logout        string
	ExportCSV     string
	ExportXLSX    string
	LoginTitle    string
	Username      string
	Password      string
	Submit        string
	Premium       string
	Desires       string
	Engagements   string
	ChartEmpty    string
	Columns       []string
	DesireColumns []string
}

// FragmentData is the refreshable part of the page: either the login form or
// the dashboard, never both.
type FragmentData struct {
	ShowLogin   bool
	LoginFailed string
	Error       string
	Charts      []charts.Chart
	Suggestions []string
	NoSuggest   string
	Desires     [][]string
	Engagements [][]string
	Endpoints   Endpoints
	Labels      Labels
	CSRFToken   string
}

// ShowDashboard reports whether the dashboard section is visible.
func (f FragmentData) ShowDashboard() bool {
	return !f.ShowLogin
}

// Chart ids used as DOM ids.
const (
	ChartAge       = "age-chart"
	ChartJobs      = "job-chart"
	ChartServices  = "service-chart"
	ChartQuestions = "question-chart"
)

// BuildLabels resolves the dashboard chrome in lang.
func BuildLabels(tr helpers.Translator, lang string) Labels {
	return Labels{
		Title:        tr.T(lang, "admin.title"),
		NavDashboard: tr.T(lang, "admin.nav.dashboard"),
		NavManage:    tr.T(lang, "admin.nav.manage"),
		Refresh:      tr.T(lang, "admin.refresh"),
		Logout:       tr.T(lang, "admin.logout"),
		ExportCSV:    tr.T(lang, "admin.export_csv"),
		ExportXLSX:   tr.T(lang, "admin.export_xlsx"),
		LoginTitle:   tr.T(lang, "admin.login.title"),
		Username:     tr.T(lang, "admin.login.username"),
		Password:     tr.T(lang, "admin.login.password"),
		Submit:       tr.T(lang, "admin.login.submit"),
		Premium:      tr.T(lang, "admin.premium"),
		Desires:      tr.T(lang, "admin.desires"),
		Engagements:  tr.T(lang, "admin.engagements"),
		ChartEmpty:   tr.T(lang, "admin.charts.empty"),
		Columns: []string{
			tr.T(lang, "admin.col.user"),
			tr.T(lang, "admin.col.age"),
			tr.T(lang, "admin.col.job"),
			tr.T(lang, "admin.col.desires"),
			tr.T(lang, "admin.col.question"),
			tr.T(lang, "admin.col.service"),
			tr.T(lang, "admin.col.time"),
		},
		DesireColumns: []string{tr.T(lang, "admin.col.label"), tr.T(lang, "admin.col.count")},
	}
}

// BuildEndpoints derives the admin routes from the base path on ctx.
func BuildEndpoints(ctx context.Context) Endpoints {
	return Endpoints{
		Dashboard:   helpers.AdminPath(ctx, "/"),
		Manage:      helpers.AdminPath(ctx, "/manage"),
		SaveService: helpers.AdminPath(ctx, "/manage/services"),
		Refresh:     helpers.AdminPath(ctx, "/fragments/dashboard"),
		Login:       helpers.AdminPath(ctx, "/login"),
		Logout:      helpers.AdminPath(ctx, "/logout"),
		ExportCSV:   helpers.AdminPath(ctx, "/export.csv"),
		ExportXLSX:  helpers.AdminPath(ctx, "/export.xlsx"),
	}
}

// LoginFragment prepares the fragment for an unauthenticated visitor.
func LoginFragment(tr helpers.Translator, lang string, endpoints Endpoints, csrf string, failed bool) FragmentData {
	f := FragmentData{
		ShowLogin: true,
		Endpoints: endpoints,
		Labels:    BuildLabels(tr, lang),
		CSRFToken: csrf,
	}
	if failed {
		f.LoginFailed = tr.T(lang, "admin.login.failed")
	}
	return f
}

// ErrorFragment prepares a dashboard fragment that only carries the error banner.
func ErrorFragment(tr helpers.Translator, lang string, endpoints Endpoints, csrf string) FragmentData {
	return FragmentData{
		Error:     tr.T(lang, "admin.error"),
		NoSuggest: tr.T(lang, "admin.no_suggestions"),
		Endpoints: endpoints,
		Labels:    BuildLabels(tr, lang),
		CSRFToken: csrf,
	}
}

// DashboardFragment turns the backend snapshot and engagement list into view data.
func DashboardFragment(tr helpers.Translator, lang string, endpoints Endpoints, csrf string, snapshot admindashboard.InsightsSnapshot, records []engagement.Record) FragmentData {
	return FragmentData{
		Charts:      BuildCharts(tr, lang, snapshot),
		Suggestions: SuggestionLines(tr, lang, snapshot.PremiumSuggestions),
		NoSuggest:   tr.T(lang, "admin.no_suggestions"),
		Desires:     CountRows(snapshot.Desires),
		Engagements: EngagementRows(records),
		Endpoints:   endpoints,
		Labels:      BuildLabels(tr, lang),
		CSRFToken:   csrf,
	}
}

// BuildCharts lays out the four dashboard charts.
func BuildCharts(tr helpers.Translator, lang string, s admindashboard.InsightsSnapshot) []charts.Chart {
	top := s.TopQuestions()
	return []charts.Chart{
		charts.NewBar(ChartAge, tr.T(lang, "admin.charts.age"), s.AgeGroups.Labels(), s.AgeGroups.Values()),
		charts.NewPie(ChartJobs, tr.T(lang, "admin.charts.jobs"), s.Jobs.Labels(), s.Jobs.Values()),
		charts.NewDoughnut(ChartServices, tr.T(lang, "admin.charts.services"), s.Services.Labels(), s.Services.Values()),
		charts.NewBar(ChartQuestions, tr.T(lang, "admin.charts.questions"), top.Labels(), top.Values()),
	}
}

// SuggestionLines formats each premium suggestion as
// "User:{user} question:{question} count:{count}".
func SuggestionLines(tr helpers.Translator, lang string, list []admindashboard.PremiumSuggestion) []string {
	lines := make([]string, 0, len(list))
	for _, s := range list {
		lines = append(lines, tr.Tf(lang, "admin.suggestion", s.User, s.Question, s.Count))
	}
	return lines
}

// CountRows renders label/count pairs in their original order.
func CountRows(c admindashboard.Counts) [][]string {
	rows := make([][]string, 0, c.Len())
	for _, e := range c.Entries() {
		rows = append(rows, []string{e.Label, helpers.Count(e.Count)})
	}
	return rows
}

// EngagementRows produces one row per record; missing fields stay blank.
func EngagementRows(records []engagement.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := r.Row()
		row[len(row)-1] = helpers.Date(r.Timestamp, "2006-01-02 15:04")
		rows = append(rows, row)
	}
	return rows
}
