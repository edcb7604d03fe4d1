package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"citizenportal.org/portal-web/internal/portal/engagement"
)

//go:embed sample.yaml
var sampleCatalog []byte

// StaticService serves a fixed catalog and keeps submissions in memory.
type StaticService struct {
	catalog Catalog
	now     func() time.Time

	mu          sync.Mutex
	submissions []engagement.Record
}

// NewStaticService returns a StaticService holding the given catalog.
func NewStaticService(c Catalog) *StaticService {
	return &StaticService{catalog: c, now: time.Now}
}

// NewSampleService loads the built-in development catalog.
func NewSampleService() (*StaticService, error) {
	c, err := ParseYAML(sampleCatalog)
	if err != nil {
		return nil, err
	}
	return NewStaticService(c), nil
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) (*StaticService, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	c, err := ParseYAML(data)
	if err != nil {
		return nil, err
	}
	return NewStaticService(c), nil
}

// ParseYAML decodes a catalog document.
func ParseYAML(data []byte) (Catalog, error) {
	var doc struct {
		Services Catalog `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse yaml: %w", err)
	}
	return doc.Services, nil
}

// ErrNameRequired reports a service document without a name.
var ErrNameRequired = errors.New("catalog: service name required")

// ParseEntryYAML decodes a single service document. The id is taken from the
// caller, so any id in the document is dropped.
func ParseEntryYAML(data []byte) (Entry, error) {
	var e Entry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("catalog: parse yaml: %w", err)
	}
	if e.Name.IsZero() {
		return Entry{}, ErrNameRequired
	}
	e.ID = ""
	if e.Subservices == nil {
		e.Subservices = []Subservice{}
	}
	return e, nil
}

// EntryYAML renders e without its id, the inverse of ParseEntryYAML.
func EntryYAML(e Entry) (string, error) {
	e.ID = ""
	out, err := yaml.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("catalog: encode yaml: %w", err)
	}
	return string(out), nil
}

// FetchCatalog returns the fixed catalog.
func (s *StaticService) FetchCatalog(context.Context) (Catalog, error) {
	return s.catalog, nil
}

// SubmitEngagement stores the record with a server timestamp.
func (s *StaticService) SubmitEngagement(_ context.Context, record engagement.Record) error {
	record.Stamp(s.now())
	if record.Desires == nil {
		record.Desires = []string{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, record)
	return nil
}

// Submissions returns the recorded engagements.
func (s *StaticService) Submissions() []engagement.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]engagement.Record(nil), s.submissions...)
}
