package browser

import (
	"fmt"
	"net/url"
	"time"

	"citizenportal.org/portal-web/internal/portal/catalog"
	"citizenportal.org/portal-web/internal/portal/templates/helpers"
)

// Pane ids. Each drill-down level swaps into its own pane.
const (
	RootID        = "browser-root"
	ServicesID    = "services"
	SubservicesID = "subservices"
	QuestionsID   = "questions"
	AnswerID      = "answer"
)

// PageData represents the full service browser page.
type PageData struct {
	Title       string
	Lang        string
	CSRFToken   string
	PageSession string
	Languages   []LanguageOption
	Labels      Labels
	Services    ServicesPane
}

// Labels holds the translated chrome strings.
type Labels struct {
	Title       string
	Language    string
	Services    string
	Subservices string
	Questions   string
	Answer      string
}

// LanguageOption is one entry of the language switcher.
type LanguageOption struct {
	Code   string
	Name   string
	Active bool
	Href   string
}

// Link is a clickable list entry that loads a fragment.
type Link struct {
	Label string
	URL   string
}

// ServicesPane lists top-level services.
type ServicesPane struct {
	Items   []Link
	Message string
	Failed  bool
}

// ListPane lists subservices or questions.
type ListPane struct {
	Heading string
	Items   []Link
}

// Download is a file link under an answer.
type Download struct {
	Label string
	URL   string
}

// AnswerPane holds the answer to one question plus its optional blocks.
type AnswerPane struct {
	Question          string
	Answer            string
	Downloads         []Download
	DownloadsLabel    string
	Location          string
	LocationLabel     string
	ViewLocation      string
	Instructions      string
	InstructionsLabel string
	EngagementURL     string
	EngagementDelay   time.Duration
}

// EngagementForm is the optional demographic prompt shown after an answer.
type EngagementForm struct {
	Action    string
	CSRFToken string
	Question  string
	Service   string
	Title     string
	Age       string
	Job       string
	Interest  string
	Submit    string
	Dismiss   string
}

// Translator resolves UI strings and language names.
type Translator interface {
	helpers.Translator
	Name(lang string) string
}

// BuildLabels resolves the browser chrome in lang.
func BuildLabels(tr helpers.Translator, lang string) Labels {
	return Labels{
		Title:       tr.T(lang, "browser.title"),
		Language:    tr.T(lang, "browser.language"),
		Services:    tr.T(lang, "browser.services"),
		Subservices: tr.T(lang, "browser.subservices"),
		Questions:   tr.T(lang, "browser.questions"),
		Answer:      tr.T(lang, "browser.answer"),
	}
}

// LanguageOptions lists the supported languages with the active one marked.
func LanguageOptions(tr Translator, supported []string, active string) []LanguageOption {
	opts := make([]LanguageOption, 0, len(supported))
	for _, code := range supported {
		opts = append(opts, LanguageOption{
			Code:   code,
			Name:   tr.Name(code),
			Active: code == active,
			Href:   "/?lang=" + url.QueryEscape(code),
		})
	}
	return opts
}

// BuildServicesPane lists the service names in lang.
func BuildServicesPane(tr helpers.Translator, lang, ps string, c catalog.Catalog) ServicesPane {
	if len(c) == 0 {
		return ServicesPane{Message: tr.T(lang, "browser.no_services")}
	}
	pane := ServicesPane{Items: make([]Link, 0, len(c))}
	for i, entry := range c {
		pane.Items = append(pane.Items, Link{Label: entry.Name.In(lang), URL: ServiceURL(ps, i)})
	}
	return pane
}

// FailedServicesPane reports a catalog load failure.
func FailedServicesPane(tr helpers.Translator, lang string) ServicesPane {
	return ServicesPane{Message: tr.T(lang, "browser.load_failed"), Failed: true}
}

// BuildSubservicesPane lists the subservices of service si.
func BuildSubservicesPane(lang, ps string, si int, entry catalog.Entry) ListPane {
	pane := ListPane{Heading: entry.Name.In(lang), Items: make([]Link, 0, len(entry.Subservices))}
	for i, sub := range entry.Subservices {
		pane.Items = append(pane.Items, Link{Label: sub.Name.In(lang), URL: SubserviceURL(ps, si, i)})
	}
	return pane
}

// BuildQuestionsPane lists the questions of subservice ssi.
func BuildQuestionsPane(lang, ps string, si, ssi int, sub catalog.Subservice) ListPane {
	pane := ListPane{Heading: sub.Name.In(lang), Items: make([]Link, 0, len(sub.Questions))}
	for i, q := range sub.Questions {
		pane.Items = append(pane.Items, Link{Label: q.Q.In(lang), URL: QuestionURL(ps, si, ssi, i)})
	}
	return pane
}

// BuildAnswerPane prepares the answer block for q.
func BuildAnswerPane(tr helpers.Translator, lang, ps string, q catalog.Question, delay time.Duration) AnswerPane {
	pane := AnswerPane{
		Question:          q.Q.In(lang),
		Answer:            q.Answer.In(lang),
		Location:          q.Location,
		Instructions:      q.Instructions.In(lang),
		DownloadsLabel:    tr.T(lang, "browser.downloads"),
		LocationLabel:     tr.T(lang, "browser.location"),
		ViewLocation:      tr.T(lang, "browser.view_location"),
		InstructionsLabel: tr.T(lang, "browser.instructions"),
		EngagementURL:     EngagementURL(ps),
		EngagementDelay:   delay,
	}
	for _, raw := range q.Downloads {
		if raw == "" {
			continue
		}
		pane.Downloads = append(pane.Downloads, Download{Label: catalog.DownloadLabel(raw), URL: raw})
	}
	return pane
}

// BuildEngagementForm prepares the demographic prompt.
func BuildEngagementForm(tr helpers.Translator, lang, ps, csrf, question, service string) EngagementForm {
	return EngagementForm{
		Action:    EngagementURL(ps),
		CSRFToken: csrf,
		Question:  question,
		Service:   service,
		Title:     tr.T(lang, "engagement.title"),
		Age:       tr.T(lang, "engagement.age"),
		Job:       tr.T(lang, "engagement.job"),
		Interest:  tr.T(lang, "engagement.interest"),
		Submit:    tr.T(lang, "engagement.submit"),
		Dismiss:   tr.T(lang, "engagement.dismiss"),
	}
}

// ServiceURL is the subservice fragment for service si.
func ServiceURL(ps string, si int) string {
	return fmt.Sprintf("/browser/%s/services/%d", url.PathEscape(ps), si)
}

// SubserviceURL is the question fragment for subservice ssi.
func SubserviceURL(ps string, si, ssi int) string {
	return fmt.Sprintf("%s/subservices/%d", ServiceURL(ps, si), ssi)
}

// QuestionURL is the answer fragment for question qi.
func QuestionURL(ps string, si, ssi, qi int) string {
	return fmt.Sprintf("%s/questions/%d", SubserviceURL(ps, si, ssi), qi)
}

// EngagementURL loads and accepts the engagement form.
func EngagementURL(ps string) string {
	return fmt.Sprintf("/browser/%s/engagement", url.PathEscape(ps))
}

// LanguageURL switches language for an existing page session.
const LanguageURL = "/browser/language"
