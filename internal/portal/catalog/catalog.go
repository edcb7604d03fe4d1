package catalog

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"

	"citizenportal.org/portal-web/internal/portal/engagement"
)

// ErrNotConfigured indicates the catalog service dependency has not been provided.
var ErrNotConfigured = errors.New("catalog service not configured")

// Service loads the public catalog and accepts engagement events.
type Service interface {
	// FetchCatalog returns every service in display order.
	FetchCatalog(ctx context.Context) (Catalog, error)
	// SubmitEngagement records a visitor interaction.
	SubmitEngagement(ctx context.Context, record engagement.Record) error
}

// Catalog is the ordered list of top-level services.
type Catalog []Entry

// Entry is a top-level service.
type Entry struct {
	ID          string        `json:"id,omitempty" yaml:"id,omitempty"`
	Name        LocalizedText `json:"name" yaml:"name"`
	Subservices []Subservice  `json:"subservices" yaml:"subservices"`
}

// Subservice groups questions under a service.
type Subservice struct {
	ID        string        `json:"id,omitempty" yaml:"id,omitempty"`
	Name      LocalizedText `json:"name" yaml:"name"`
	Questions []Question    `json:"questions" yaml:"questions"`
}

// Question is one FAQ entry with its answer and optional resources.
type Question struct {
	Q            LocalizedText `json:"q" yaml:"q"`
	Answer       LocalizedText `json:"answer" yaml:"answer"`
	Downloads    []string      `json:"downloads,omitempty" yaml:"downloads,omitempty"`
	Location     string        `json:"location,omitempty" yaml:"location,omitempty"`
	Instructions LocalizedText `json:"instructions,omitempty" yaml:"instructions,omitempty"`
}

// Service returns the entry at i.
func (c Catalog) Service(i int) (Entry, bool) {
	if i < 0 || i >= len(c) {
		return Entry{}, false
	}
	return c[i], true
}

// Subservice returns the subservice at i.
func (e Entry) Subservice(i int) (Subservice, bool) {
	if i < 0 || i >= len(e.Subservices) {
		return Subservice{}, false
	}
	return e.Subservices[i], true
}

// Question returns the question at i.
func (s Subservice) Question(i int) (Question, bool) {
	if i < 0 || i >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[i], true
}

// DownloadLabel returns the final path segment of a download URL.
func DownloadLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return raw
	}
	base := path.Base(p)
	if unescaped, err := url.PathUnescape(base); err == nil {
		return unescaped
	}
	return base
}
