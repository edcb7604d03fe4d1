package testutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML parses a page or fragment body for goquery assertions.
func ParseHTML(t testing.TB, body []byte) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// Hidden reports whether the first matched element carries the hidden attribute.
func Hidden(sel *goquery.Selection) bool {
	_, ok := sel.First().Attr("hidden")
	return ok
}

// Texts returns the trimmed text of every matched element.
func Texts(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}

// CSRFToken reads the token the layout publishes in <meta name="csrf-token">.
func CSRFToken(doc *goquery.Document) string {
	token, _ := doc.Find(`meta[name="csrf-token"]`).Attr("content")
	return token
}
