// Package layout renders the document shell shared by the portal pages.
package layout

import (
	"context"
	"encoding/json"
	"io"

	"github.com/a-h/templ"

	"citizenportal.org/portal-web/internal/portal/templates/helpers"
)

const (
	htmxScript    = "https://unpkg.com/htmx.org@2.0.4"
	htmxIntegrity = "sha384-HGfztofotfshcF7+8n44JQL2oJmowVChPTg48S+jvZoztPfvwD79OC/LTtG6dMp+"
)

// PageData describes the document shell.
type PageData struct {
	Title       string
	Lang        string
	CSRFToken   string
	CSRFHeader  string
	Environment string
	BodyClass   string
}

// Base wraps body in the HTML document. Every htmx request carries the CSRF
// token through hx-headers on <body>.
func Base(p PageData, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		lang := p.Lang
		if lang == "" {
			lang = "en"
		}
		h := helpers.NewHTML(w)
		h.Raw("<!DOCTYPE html><html").Attr("lang", lang).Raw(">")
		h.Raw(`<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.Raw("<title>").Text(p.Title).Raw("</title>")
		if p.CSRFToken != "" {
			h.Raw(`<meta name="csrf-token"`).Attr("content", p.CSRFToken).Raw(">")
		}
		h.Raw(`<link rel="stylesheet" href="/public/static/portal.css">`)
		h.Raw("<script").Attr("src", htmxScript).Attr("integrity", htmxIntegrity).Raw(` crossorigin="anonymous"></script>`)
		h.Raw(`<script src="/public/static/portal.js" defer></script>`)
		h.Raw("</head><body")
		if p.BodyClass != "" {
			h.Attr("class", p.BodyClass)
		}
		if p.Environment != "" {
			h.Attr("data-environment", p.Environment)
		}
		if headers := csrfHeaders(p); headers != "" {
			h.Attr("hx-headers", headers)
		}
		h.Raw(">")
		h.Render(ctx, body)
		h.Raw("</body></html>")
		return h.Err()
	})
}

// ErrorBanner renders a dismissible alert.
func ErrorBanner(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if message == "" {
			return nil
		}
		h := helpers.NewHTML(w)
		h.Raw(`<div class="alert alert-error" role="alert" data-error-banner>`).Text(message).Raw("</div>")
		return h.Err()
	})
}

func csrfHeaders(p PageData) string {
	if p.CSRFToken == "" {
		return ""
	}
	name := p.CSRFHeader
	if name == "" {
		name = "X-CSRF-Token"
	}
	raw, err := json.Marshal(map[string]string{name: p.CSRFToken})
	if err != nil {
		return ""
	}
	return string(raw)
}
