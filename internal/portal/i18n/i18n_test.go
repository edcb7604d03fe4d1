package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestResolveMatchesAcceptLanguage(t *testing.T) {
	t.Parallel()

	b, err := Load("en", []string{"en", "si", "ta"})
	require.NoError(t, err)

	require.Equal(t, "ta", b.Resolve("ta-LK,ta;q=0.9,en;q=0.5"))
	require.Equal(t, "si", b.Resolve("fr;q=0.9, si;q=0.8"))
	require.Equal(t, "en", b.Resolve("ja;q=0.8, en;q=0.9"))
	require.Equal(t, "en", b.Resolve("fr"))
	require.Equal(t, "en", b.Resolve(""))
	require.Equal(t, "en", b.Resolve(";;;"))
}

func TestTranslateFallsBack(t *testing.T) {
	t.Parallel()

	b, err := Load("en", []string{"en", "si", "ta"})
	require.NoError(t, err)

	require.Equal(t, "சேவைகள்", b.T("ta", "browser.services"))
	require.Equal(t, "Admin Dashboard", b.T("ta", "admin.title"))
	require.Equal(t, "missing.key", b.T("si", "missing.key"))
	require.Equal(t, "User:u1 question:Open now? count:2", b.Tf("en", "admin.suggestion", "u1", "Open now?", 2))

	require.Equal(t, "English", b.Name("en"))
	require.Equal(t, "සිංහල", b.Name("si"))
	require.Equal(t, "தமிழ்", b.Name("ta"))
	require.Equal(t, []string{"en", "si", "ta"}, b.Supported())
	require.True(t, b.IsSupported("TA"))
	require.False(t, b.IsSupported("fr"))
}

func TestLoadFSRequiresFallback(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"l/ta.json": {Data: []byte(`{"lang.name":"தமிழ்"}`)},
	}
	_, err := LoadFS(fsys, "l", "en", []string{"en", "ta"})
	require.Error(t, err)

	_, err = LoadFS(fsys, "l", "ta", []string{"ta"})
	require.Error(t, err, "the base dictionary is always required")

	fsys["l/en.json"] = &fstest.MapFile{Data: []byte(`{"lang.name":"English","greeting":"Hello"}`)}
	b, err := LoadFS(fsys, "l", "ta", []string{"ta", "si"})
	require.NoError(t, err)
	require.Equal(t, "si", b.Name("si"), "missing dictionaries fall back to the code")
	require.Equal(t, "Hello", b.T("si", "greeting"))
}

func TestNonEnglishFallbackEndsInBase(t *testing.T) {
	t.Parallel()

	b, err := Load("si", []string{"en", "si", "ta"})
	require.NoError(t, err)

	require.Equal(t, "si", b.Fallback())
	require.Equal(t, "No suggestions", b.T("ta", "admin.no_suggestions"))
	require.Equal(t, "User:u question:q count:2", b.Tf("si", "admin.suggestion", "u", "q", 2))
	require.Equal(t, "සේවා", b.T("fr", "browser.services"))
}
