package helpers

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
)

// Date formats an RFC3339 timestamp in UTC using the provided layout
// (defaults to 2006-01-02 15:04 MST). Unparseable input is returned unchanged.
func Date(raw string, layout string) string {
	if raw == "" {
		return ""
	}
	if layout == "" {
		layout = "2006-01-02 15:04 MST"
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return ts.UTC().Format(layout)
}

// Count renders an integer with thousands separators.
func Count(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + s
}

// TextComponent returns a templ component that renders escaped text.
func TextComponent(value string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(value))
		return err
	})
}

// TableRows converts [][]string to [][]templ.Component for tables.
func TableRows(rows [][]string) [][]templ.Component {
	result := make([][]templ.Component, 0, len(rows))
	for _, row := range rows {
		cells := make([]templ.Component, 0, len(row))
		for _, col := range row {
			cells = append(cells, TextComponent(col))
		}
		result = append(result, cells)
	}
	return result
}

// Table renders a plain table with a header row. Every cell is a component.
func Table(class string, headers []string, rows [][]templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := NewHTML(w)
		h.Raw("<table").Attr("class", class).Raw("><thead><tr>")
		for _, header := range headers {
			h.Raw("<th>").Text(header).Raw("</th>")
		}
		h.Raw("</tr></thead><tbody>")
		for _, row := range rows {
			h.Raw("<tr>")
			for _, cell := range row {
				h.Raw("<td>").Render(ctx, cell).Raw("</td>")
			}
			h.Raw("</tr>")
		}
		h.Raw("</tbody></table>")
		return h.Err()
	})
}

// Translator resolves UI strings. *i18n.Bundle satisfies it.
type Translator interface {
	T(lang, key string) string
	Tf(lang, key string, args ...any) string
}
