package browser

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/require"

	"citizenportal.org/portal-web/internal/portal/catalog"
	"citizenportal.org/portal-web/internal/portal/i18n"
)

func loadBundle(t *testing.T) *i18n.Bundle {
	t.Helper()
	bundle, err := i18n.Load("en", []string{"en", "si", "ta"})
	require.NoError(t, err)
	return bundle
}

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func render(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(renderString(t, c)))
	require.NoError(t, err)
	return doc
}

func sampleCatalog() catalog.Catalog {
	return catalog.Catalog{
		{
			Name: catalog.LocalizedText{"en": "Health", "si": "සෞඛ්‍ය"},
			Subservices: []catalog.Subservice{{
				Name: catalog.Text("Clinics"),
				Questions: []catalog.Question{
					{Q: catalog.Text("Open now?"), Answer: catalog.Text("Yes")},
					{
						Q:            catalog.Text("Forms?"),
						Answer:       catalog.Text("See below"),
						Downloads:    []string{"https://x.example/docs/form%20a.pdf", "https://x.example/guide.pdf"},
						Location:     "https://maps.example.com/?q=clinic",
						Instructions: catalog.Text("Bring **ID**"),
					},
				},
			}},
		},
		{Name: catalog.Text("Education")},
	}
}

func TestIndexRendersServicesWithFallback(t *testing.T) {
	t.Parallel()

	bundle := loadBundle(t)
	page := PageData{
		Title:       bundle.T("si", "browser.title"),
		Lang:        "si",
		CSRFToken:   "tok",
		PageSession: "ps-1",
		Languages:   LanguageOptions(bundle, bundle.Supported(), "si"),
		Labels:      BuildLabels(bundle, "si"),
		Services:    BuildServicesPane(bundle, "si", "ps-1", sampleCatalog()),
	}
	doc := render(t, Index(page))

	require.Equal(t, "si", doc.Find("html").AttrOr("lang", ""))
	items := doc.Find("#services li button")
	require.Equal(t, 2, items.Length())
	require.Equal(t, "සෞඛ්‍ය", items.Eq(0).Text())
	require.Equal(t, "Education", items.Eq(1).Text(), "missing translation should fall back to English")
	require.Equal(t, "/browser/ps-1/services/0", items.Eq(0).AttrOr("hx-get", ""))
	require.Equal(t, "#subservices", items.Eq(0).AttrOr("hx-target", ""))

	for _, id := range []string{"#subservices", "#questions", "#answer"} {
		require.Equal(t, 1, doc.Find(id).Length())
		require.Empty(t, strings.TrimSpace(doc.Find(id).Text()))
	}

	switcher := doc.Find("[data-language-switcher]")
	require.Equal(t, "/browser/language", switcher.AttrOr("hx-post", ""))
	require.Equal(t, "ps-1", switcher.Find(`input[name="ps"]`).AttrOr("value", ""))
	require.Equal(t, 3, switcher.Find("button").Length())
	require.Equal(t, "si", switcher.Find(`button[aria-current="true"]`).AttrOr("value", ""))
}

func TestServicesPaneMessages(t *testing.T) {
	t.Parallel()

	bundle := loadBundle(t)
	doc := render(t, ServicesList(BuildServicesPane(bundle, "en", "ps", nil)))
	require.Equal(t, "No services available.", doc.Find("p.empty").Text())

	doc = render(t, ServicesList(FailedServicesPane(bundle, "en")))
	require.Equal(t, 1, doc.Find("p.alert-error").Length())
}

func TestSubservicesFragmentClearsDeeperPanes(t *testing.T) {
	t.Parallel()

	entry := sampleCatalog()[0]
	doc := render(t, SubservicesFragment(BuildSubservicesPane("en", "ps", 0, entry)))

	require.Equal(t, "Health", doc.Find("h2").Text())
	require.Equal(t, "/browser/ps/services/0/subservices/0", doc.Find("li button").AttrOr("hx-get", ""))
	require.Equal(t, "innerHTML", doc.Find(`#questions`).AttrOr("hx-swap-oob", ""))
	require.Equal(t, "innerHTML", doc.Find(`#answer`).AttrOr("hx-swap-oob", ""))
}

func TestAnswerFragmentPlain(t *testing.T) {
	t.Parallel()

	bundle := loadBundle(t)
	q := sampleCatalog()[0].Subservices[0].Questions[0]
	out := renderString(t, AnswerFragment(BuildAnswerPane(bundle, "en", "ps", q, 1500*time.Millisecond)))

	require.True(t, strings.HasPrefix(out, "<h3>Open now?</h3><p>Yes</p>"), out)
	require.NotContains(t, out, "data-downloads")
	require.NotContains(t, out, "data-location")
	require.NotContains(t, out, "data-instructions")
	require.Contains(t, out, `hx-trigger="load delay:1500ms"`)
	require.Contains(t, out, `hx-get="/browser/ps/engagement"`)
}

func TestAnswerFragmentOptionalBlocks(t *testing.T) {
	t.Parallel()

	bundle := loadBundle(t)
	q := sampleCatalog()[0].Subservices[0].Questions[1]
	doc := render(t, AnswerFragment(BuildAnswerPane(bundle, "en", "ps", q, 0)))

	links := doc.Find("[data-downloads] a")
	require.Equal(t, 2, links.Length())
	require.Equal(t, "form a.pdf", links.Eq(0).Text())
	require.Equal(t, "guide.pdf", links.Eq(1).Text())
	require.Equal(t, "https://maps.example.com/?q=clinic", doc.Find("[data-location] a").AttrOr("href", ""))
	require.Equal(t, "ID", doc.Find("[data-instructions] strong").Text())
}

func TestEngagementForm(t *testing.T) {
	t.Parallel()

	bundle := loadBundle(t)
	doc := render(t, EngagementFormFragment(BuildEngagementForm(bundle, "en", "ps", "tok", "Open now?", "Health")))

	form := doc.Find("form[data-engagement-form]")
	require.Equal(t, "/browser/ps/engagement", form.AttrOr("hx-post", ""))
	require.Equal(t, "Open now?", form.Find(`input[name="question"]`).AttrOr("value", ""))
	require.Equal(t, "Health", form.Find(`input[name="service"]`).AttrOr("value", ""))
	require.Equal(t, "tok", form.Find(`input[name="_csrf"]`).AttrOr("value", ""))
	for _, name := range []string{"age", "job", "interest"} {
		field := form.Find(`input[name="` + name + `"]`)
		require.Equal(t, 1, field.Length(), name)
		_, required := field.Attr("required")
		require.False(t, required, "%s should be optional", name)
	}
	require.Equal(t, 1, form.Find("[data-engagement-dismiss]").Length())
}
