package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FallbackLanguage is used whenever the active language has no value.
const FallbackLanguage = "en"

// LocalizedText maps a language code to text.
type LocalizedText map[string]string

// In returns the text for lang, then English, then the empty string.
func (t LocalizedText) In(lang string) string {
	if v, ok := t[strings.ToLower(lang)]; ok && v != "" {
		return v
	}
	return t[FallbackLanguage]
}

// IsZero reports whether no language has a value.
func (t LocalizedText) IsZero() bool {
	for _, v := range t {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Text builds an English-only LocalizedText.
func Text(en string) LocalizedText {
	return LocalizedText{FallbackLanguage: en}
}

// UnmarshalJSON accepts an object of language codes or a plain string (English).
func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var m map[string]*string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("catalog: localized text: %w", err)
	}
	*t = fromPointers(m)
	return nil
}

// UnmarshalYAML accepts a mapping of language codes or a scalar (English).
func (t *LocalizedText) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*t = Text(node.Value)
		return nil
	}
	var m map[string]*string
	if err := node.Decode(&m); err != nil {
		return fmt.Errorf("catalog: localized text: %w", err)
	}
	*t = fromPointers(m)
	return nil
}

func fromPointers(m map[string]*string) LocalizedText {
	if m == nil {
		return nil
	}
	out := make(LocalizedText, len(m))
	for k, v := range m {
		if v != nil {
			out[strings.ToLower(k)] = *v
		}
	}
	return out
}
