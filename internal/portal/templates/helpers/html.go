package helpers

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// HTML writes markup to w and keeps the first error, so component bodies can
// chain writes and check once at the end.
type HTML struct {
	w   io.Writer
	err error
}

// NewHTML wraps w.
func NewHTML(w io.Writer) *HTML {
	return &HTML{w: w}
}

// Raw writes s verbatim.
func (h *HTML) Raw(s string) *HTML {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
	return h
}

// Text writes s escaped for element content.
func (h *HTML) Text(s string) *HTML {
	return h.Raw(templ.EscapeString(s))
}

// Textf formats and escapes.
func (h *HTML) Textf(format string, args ...any) *HTML {
	return h.Text(fmt.Sprintf(format, args...))
}

// Attr writes ` name="value"` with value escaped.
func (h *HTML) Attr(name, value string) *HTML {
	return h.Raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// AttrIf writes a boolean attribute when cond holds.
func (h *HTML) AttrIf(cond bool, name string) *HTML {
	if cond {
		h.Raw(" " + name)
	}
	return h
}

// URL writes an href-style attribute after sanitising the URL.
func (h *HTML) URL(name, value string) *HTML {
	return h.Attr(name, string(templ.URL(value)))
}

// Render renders a nested component.
func (h *HTML) Render(ctx context.Context, c templ.Component) *HTML {
	if h.err == nil && c != nil {
		h.err = c.Render(ctx, h.w)
	}
	return h
}

// Err returns the first write error.
func (h *HTML) Err() error {
	return h.err
}
