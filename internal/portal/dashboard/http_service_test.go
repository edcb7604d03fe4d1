package dashboard_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"citizenportal.org/portal-web/internal/portal/backend"
	"citizenportal.org/portal-web/internal/portal/catalog"
	"citizenportal.org/portal-web/internal/portal/dashboard"
)

func newService(t *testing.T, h http.Handler) *dashboard.HTTPService {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	client, err := backend.New(ts.URL, backend.WithHTTPClient(ts.Client()), backend.WithRetryMaxElapsed(0))
	require.NoError(t, err)
	svc, err := dashboard.NewHTTPService(client)
	require.NoError(t, err)
	return svc
}

func TestHTTPServiceLoginCapturesSession(t *testing.T) {
	t.Parallel()

	svc := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/login", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		if r.FormValue("password") != "admin123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, "Login failed")
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/"})
		http.Redirect(w, r, "/admin", http.StatusFound)
	}))

	res, err := svc.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	require.True(t, res.Succeeded())
	require.Equal(t, "/admin", res.Redirect)
	require.Equal(t, "session=s1", res.Credentials)

	res, err = svc.Login(context.Background(), "admin", "wrong")
	require.NoError(t, err)
	require.False(t, res.Succeeded())
	require.Empty(t, res.Credentials)
}

func TestHTTPServiceFetchInsightsUnauthorized(t *testing.T) {
	t.Parallel()

	svc := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"unauthorized"}`)
	}))

	_, err := svc.FetchInsights(context.Background(), "")
	require.True(t, errors.Is(err, backend.ErrAuthRequired))
}

func TestHTTPServiceFetchesSnapshotAndEngagements(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/insights", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "session=s1", r.Header.Get("Cookie"))
		_, _ = io.WriteString(w, `{"age_groups":{"<18":1},"jobs":{},"services":{"Health":2},"questions":{"Open now?":2},"desires":{},"premium_suggestions":[]}`)
	})
	mux.HandleFunc("/api/admin/engagements", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"_id":"x","user_id":"u1","age":30,"desires":["Jobs"],"service":"Health"}]`)
	})
	mux.HandleFunc("/api/admin/export_csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "user_id,age\n")
	})
	svc := newService(t, mux)

	snapshot, err := svc.FetchInsights(context.Background(), "session=s1")
	require.NoError(t, err)
	require.Equal(t, []string{"Health"}, snapshot.Services.Labels())
	require.Empty(t, snapshot.PremiumSuggestions)

	records, err := svc.FetchEngagements(context.Background(), "session=s1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "30", records[0].Age.String())

	body, err := svc.ExportCSV(context.Background(), "session=s1")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "user_id,age\n", string(data))
}

func TestStaticServiceRequiresLogin(t *testing.T) {
	t.Parallel()

	svc := dashboard.NewStaticService()
	_, err := svc.FetchInsights(context.Background(), "")
	require.ErrorIs(t, err, backend.ErrAuthRequired)

	res, err := svc.Login(context.Background(), "admin", "nope")
	require.NoError(t, err)
	require.False(t, res.Succeeded())

	res, err = svc.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	require.True(t, res.Succeeded())

	snapshot, err := svc.FetchInsights(context.Background(), res.Credentials)
	require.NoError(t, err)
	require.NotZero(t, snapshot.AgeGroups.Len())

	rc, err := svc.ExportCSV(context.Background(), res.Credentials)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Contains(t, string(data), "user_id,age,job,desire,question,service,timestamp\n")
}

func TestHTTPServiceManagesServices(t *testing.T) {
	t.Parallel()

	var saved catalog.Entry
	var deleted string
	svc := newService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "session=s1", r.Header.Get("Cookie"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/admin/services":
			_, _ = io.WriteString(w, `[{"id":"health","name":{"en":"Health"},"subservices":[]},{"id":"tax","name":"Tax","subservices":[]}]`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/service/health":
			_, _ = io.WriteString(w, `{"id":"health","name":{"en":"Health","ta":"சுகாதாரம்"},"subservices":[]}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/service/missing":
			_, _ = io.WriteString(w, `{}`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/admin/services":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&saved))
			_, _ = io.WriteString(w, `{"status":"ok"}`)
		case r.Method == http.MethodDelete:
			deleted = r.URL.Path
			_, _ = io.WriteString(w, `{"status":"deleted"}`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	ctx := context.Background()

	list, err := svc.ListServices(ctx, "session=s1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Tax", list[1].Name.In("si"))

	entry, err := svc.FetchService(ctx, "session=s1", "health")
	require.NoError(t, err)
	require.Equal(t, "சுகாதாரம்", entry.Name.In("ta"))

	_, err = svc.FetchService(ctx, "session=s1", "missing")
	require.ErrorIs(t, err, dashboard.ErrServiceNotFound)

	require.ErrorIs(t, svc.SaveService(ctx, "session=s1", catalog.Entry{ID: "  "}), dashboard.ErrServiceIDRequired)
	require.NoError(t, svc.SaveService(ctx, "session=s1", catalog.Entry{ID: " roads ", Name: catalog.Text("Roads")}))
	require.Equal(t, "roads", saved.ID)
	require.Equal(t, "Roads", saved.Name.In("en"))

	require.NoError(t, svc.DeleteService(ctx, "session=s1", "roads"))
	require.Equal(t, "/api/admin/services/roads", deleted)
}

func TestStaticServiceManagesServices(t *testing.T) {
	t.Parallel()

	svc := dashboard.NewStaticService()
	ctx := context.Background()
	_, err := svc.ListServices(ctx, "")
	require.ErrorIs(t, err, backend.ErrAuthRequired)

	res, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	creds := res.Credentials

	list, err := svc.ListServices(ctx, creds)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	first := list[0].ID

	require.NoError(t, svc.SaveService(ctx, creds, catalog.Entry{ID: "roads", Name: catalog.Text("Roads")}))
	require.NoError(t, svc.SaveService(ctx, creds, catalog.Entry{ID: first, Name: catalog.Text("Renamed")}))
	list, err = svc.ListServices(ctx, creds)
	require.NoError(t, err)
	require.Equal(t, "Renamed", list[0].Name.In("en"), "upsert keeps the position")
	require.Equal(t, "roads", list[len(list)-1].ID)

	require.NoError(t, svc.DeleteService(ctx, creds, "roads"))
	_, err = svc.FetchService(ctx, creds, "roads")
	require.ErrorIs(t, err, dashboard.ErrServiceNotFound)
}
