package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(""))
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Address)
	require.Equal(t, "/admin", cfg.Server.AdminBasePath)
	require.Equal(t, "", cfg.Backend.URL)
	require.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	require.Equal(t, []string{"en", "si", "ta"}, cfg.Browser.Languages)
	require.Equal(t, "en", cfg.Browser.DefaultLanguage)
	require.Equal(t, 1500*time.Millisecond, cfg.Browser.EngagementDelay)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadPrecedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PORTAL_HTTP_ADDR=:9000\nPORTAL_BACKEND_URL=http://dotenv:5000/\n"), 0o600))

	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(envFile),
		WithEnvMap(map[string]string{
			"PORTAL_BACKEND_URL":      "https://api.example.org/",
			"PORTAL_ADMIN_BASE_PATH":  "ops/",
			"PORTAL_LANGUAGES":        "EN, ta ,en",
			"PORTAL_DEFAULT_LANGUAGE": "ta",
			"PORTAL_CORS_ORIGINS":     "https://gov.example.org, ",
		}),
	)
	require.NoError(t, err)

	require.Equal(t, ":9000", cfg.Server.Address, "dotenv value applies when not overridden")
	require.Equal(t, "https://api.example.org", cfg.Backend.URL, "explicit map wins and trailing slash is trimmed")
	require.Equal(t, "/ops", cfg.Server.AdminBasePath)
	require.Equal(t, []string{"en", "ta"}, cfg.Browser.Languages)
	require.Equal(t, "ta", cfg.Browser.DefaultLanguage)
	require.Equal(t, []string{"https://gov.example.org"}, cfg.Server.CORSOrigins)
}

func TestLoadValidation(t *testing.T) {
	t.Parallel()

	_, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{
			"PORTAL_BACKEND_URL":       "ftp://nope",
			"PORTAL_SESSION_HASH_KEY":  "short",
			"PORTAL_SESSION_BLOCK_KEY": "abc",
			"PORTAL_DEFAULT_LANGUAGE":  "fr",
		}),
	)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.ElementsMatch(t, []string{
		"PORTAL_BACKEND_URL",
		"PORTAL_SESSION_HASH_KEY",
		"PORTAL_SESSION_BLOCK_KEY",
		"PORTAL_DEFAULT_LANGUAGE",
	}, verr.Fields())
}

func TestNormalizeBasePath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":        "/admin",
		"/":       "/",
		"admin":   "/admin",
		"/admin/": "/admin",
		"///":     "/",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeBasePath(in), "input %q", in)
	}
}
