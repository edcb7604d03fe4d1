package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"citizenportal.org/portal-web/internal/portal/backend"
	"citizenportal.org/portal-web/internal/portal/engagement"
)

func TestLocalizedTextFallsBackToEnglish(t *testing.T) {
	t.Parallel()

	text := LocalizedText{"en": "Health", "ta": "சுகாதாரம்", "si": ""}
	require.Equal(t, "சுகாதாரம்", text.In("ta"))
	require.Equal(t, "சுகாதாரம்", text.In("TA"))
	require.Equal(t, "Health", text.In("si"), "empty values fall back")
	require.Equal(t, "Health", text.In("fr"))
	require.Equal(t, "", LocalizedText{"ta": "x"}.In("si"))
	require.Equal(t, "", LocalizedText(nil).In("en"))
}

func TestLocalizedTextDecodesStringsAndObjects(t *testing.T) {
	t.Parallel()

	payload := `[{"name":{"en":"Health","si":null},"subservices":[{"name":"Clinics","questions":[{"q":{"en":"Open now?"},"answer":{"en":"Yes"}}]}]}]`
	var c Catalog
	require.NoError(t, json.Unmarshal([]byte(payload), &c))

	svc, ok := c.Service(0)
	require.True(t, ok)
	require.Equal(t, "Health", svc.Name.In("si"))
	sub, ok := svc.Subservice(0)
	require.True(t, ok)
	require.Equal(t, "Clinics", sub.Name.In("ta"))
	q, ok := sub.Question(0)
	require.True(t, ok)
	require.Equal(t, "Yes", q.Answer.In("en"))
	require.Empty(t, q.Downloads)
	require.Empty(t, q.Location)
	require.True(t, q.Instructions.IsZero())

	_, ok = c.Service(1)
	require.False(t, ok)
	_, ok = svc.Subservice(-1)
	require.False(t, ok)
}

func TestDownloadLabel(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://example.org/docs/form-a.pdf":        "form-a.pdf",
		"https://example.org/docs/form-a.pdf?v=2#p1": "form-a.pdf",
		"/static/guide.docx":                         "guide.docx",
		"https://example.org/docs/":                  "docs",
		"https://example.org/docs/appeal%20form.pdf": "appeal form.pdf",
		"plain.txt":                                  "plain.txt",
	}
	for in, want := range cases {
		require.Equal(t, want, DownloadLabel(in), "input %q", in)
	}
}

func TestSampleCatalogLoads(t *testing.T) {
	t.Parallel()

	svc, err := NewSampleService()
	require.NoError(t, err)

	c, err := svc.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, c, 2)
	require.Equal(t, "Health", c[0].Name.In("en"))
	require.Equal(t, "Clinics", c[0].Subservices[0].Name.In("en"))
	require.Equal(t, "Yes", c[0].Subservices[0].Questions[0].Answer.In("fr"))
	require.Equal(t, "Examinations", c[1].Subservices[0].Name.In("si"))

	second := c[0].Subservices[0].Questions[1]
	require.Equal(t, []string{"https://example.gov.lk/docs/clinic-registration.pdf"}, second.Downloads)
	require.Contains(t, second.Instructions.In("ta"), "**registration form**")
}

func TestStaticServiceRecordsSubmissions(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	svc.now = func() time.Time { return time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC) }

	require.NoError(t, svc.SubmitEngagement(context.Background(), engagement.Record{UserID: "v1", Service: "Health"}))

	got := svc.Submissions()
	require.Len(t, got, 1)
	require.Equal(t, "2025-05-01T08:00:00Z", got[0].Timestamp)
	require.Equal(t, []string{}, got[0].Desires)
}

func TestHTTPServiceFetchAndSubmit(t *testing.T) {
	t.Parallel()

	var posted map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/api/services", func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Cookie"))
		_, _ = io.WriteString(w, `[{"name":{"en":"Health"},"subservices":[]}]`)
	})
	mux.HandleFunc("/api/engagement", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	client, err := backend.New(ts.URL, backend.WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	svc, err := NewHTTPService(client)
	require.NoError(t, err)

	c, err := svc.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, c, 1)

	err = svc.SubmitEngagement(context.Background(), engagement.Record{UserID: "v1", Age: "30", QuestionClicked: "Open now?", Service: "Health"})
	require.NoError(t, err)
	require.Equal(t, "v1", posted["user_id"])
	require.EqualValues(t, 30, posted["age"])
	require.Equal(t, []any{}, posted["desires"])
	require.Equal(t, "Open now?", posted["question_clicked"])
}

func TestParseEntryYAML(t *testing.T) {
	t.Parallel()

	entry, err := ParseEntryYAML([]byte("id: ignored\nname:\n  en: Roads\n  ta: சாலைகள்\n"))
	require.NoError(t, err)
	require.Empty(t, entry.ID)
	require.Equal(t, "சாலைகள்", entry.Name.In("ta"))
	require.NotNil(t, entry.Subservices)

	_, err = ParseEntryYAML([]byte("subservices: []\n"))
	require.ErrorIs(t, err, ErrNameRequired)

	_, err = ParseEntryYAML([]byte("name: [unclosed"))
	require.Error(t, err)
}

func TestEntryYAMLRoundTrips(t *testing.T) {
	t.Parallel()

	svc, err := NewSampleService()
	require.NoError(t, err)
	c, err := svc.FetchCatalog(context.Background())
	require.NoError(t, err)
	health, ok := c.Service(0)
	require.True(t, ok)

	doc, err := EntryYAML(health)
	require.NoError(t, err)
	require.NotContains(t, doc, "id: health")

	back, err := ParseEntryYAML([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, health.Name, back.Name)
	require.Len(t, back.Subservices, len(health.Subservices))
	require.Equal(t, health.Subservices[0].Questions[0].Q, back.Subservices[0].Questions[0].Q)
}
