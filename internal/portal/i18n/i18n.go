// Package i18n provides UI strings for the portal pages. Catalog content is
// localized by the backend; this bundle only covers the page chrome.
package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var embedded embed.FS

// Base is the source language. Every key exists in its dictionary, so it
// ends every lookup chain.
const Base = "en"

// Bundle holds per-language dictionaries and the Accept-Language matcher.
type Bundle struct {
	dict      map[string]map[string]string
	fallback  string
	supported []string
	matcher   language.Matcher
}

// Load reads the embedded locales for the supported languages. The fallback
// and base dictionaries are required; others may be missing.
func Load(fallback string, supported []string) (*Bundle, error) {
	return LoadFS(embedded, "locales", fallback, supported)
}

// LoadFS reads <dir>/<lang>.json from fsys.
func LoadFS(fsys fs.FS, dir, fallback string, supported []string) (*Bundle, error) {
	fallback = strings.ToLower(strings.TrimSpace(fallback))
	if len(supported) == 0 {
		supported = []string{fallback}
	}
	b := &Bundle{
		dict:     map[string]map[string]string{},
		fallback: fallback,
	}

	tags := make([]language.Tag, 0, len(supported))
	for _, l := range supported {
		l = strings.ToLower(strings.TrimSpace(l))
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("i18n: parse language %q: %w", l, err)
		}
		b.supported = append(b.supported, l)
		tags = append(tags, tag)

		if err := b.read(fsys, dir, l, l == fallback || l == Base); err != nil {
			return nil, err
		}
	}
	if _, ok := b.dict[fallback]; !ok {
		return nil, fmt.Errorf("i18n: fallback locale %s not loaded", fallback)
	}
	if _, ok := b.dict[Base]; !ok {
		if err := b.read(fsys, dir, Base, true); err != nil {
			return nil, err
		}
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

func (b *Bundle) read(fsys fs.FS, dir, lang string, required bool) error {
	raw, err := fs.ReadFile(fsys, dir+"/"+lang+".json")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("i18n: load locale %s: %w", lang, err)
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("i18n: unmarshal %s: %w", lang, err)
	}
	b.dict[lang] = m
	return nil
}

// Supported returns the configured languages in display order.
func (b *Bundle) Supported() []string {
	out := make([]string, len(b.supported))
	copy(out, b.supported)
	return out
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// IsSupported reports whether lang is configured.
func (b *Bundle) IsSupported(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, l := range b.supported {
		if l == lang {
			return true
		}
	}
	return false
}

// T returns the translation for key in lang, then in the fallback language,
// then in Base. Unknown keys come back unchanged.
func (b *Bundle) T(lang, key string) string {
	for _, l := range [...]string{lang, b.fallback, Base} {
		if v, ok := b.dict[l][key]; ok {
			return v
		}
	}
	return key
}

// Tf formats the translation with args.
func (b *Bundle) Tf(lang, key string, args ...any) string {
	return fmt.Sprintf(b.T(lang, key), args...)
}

// Name returns the language's own name.
func (b *Bundle) Name(lang string) string {
	if m, ok := b.dict[lang]; ok {
		if v, ok := m["lang.name"]; ok {
			return v
		}
	}
	return lang
}

// Resolve chooses the best supported language for an Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
	prefs, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(prefs) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(prefs...)
	if conf == language.No || idx < 0 || idx >= len(b.supported) {
		return b.fallback
	}
	return b.supported[idx]
}
