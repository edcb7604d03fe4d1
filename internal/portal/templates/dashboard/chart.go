package dashboard

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"citizenportal.org/portal-web/internal/portal/charts"
	"citizenportal.org/portal-web/internal/portal/templates/helpers"
)

// Chart renders c as an inline SVG figure with a legend.
func Chart(c charts.Chart, emptyText string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := helpers.NewHTML(w)
		h.Raw(`<figure class="chart"`).Attr("id", c.ID).Attr("data-chart", string(c.Kind)).Raw(">")
		h.Raw("<figcaption>").Text(c.Title).Raw("</figcaption>")
		if c.Empty() {
			h.Raw(`<p class="chart-empty">`).Text(emptyText).Raw("</p></figure>")
			return h.Err()
		}

		h.Raw(`<svg xmlns="http://www.w3.org/2000/svg" role="img"`).
			Attr("viewBox", c.ViewBox()).
			Attr("aria-label", c.Title).
			Raw(">")
		switch c.Kind {
		case charts.KindBar:
			for _, b := range c.Bars {
				h.Raw("<rect").
					Attr("x", charts.Num(b.X)).
					Attr("y", charts.Num(b.Y)).
					Attr("width", charts.Num(b.Width)).
					Attr("height", charts.Num(b.Height)).
					Attr("fill", b.Color).
					Raw("><title>").Text(b.Label + ": " + formatValue(b.Value)).Raw("</title></rect>")
			}
		default:
			for _, s := range c.Slices {
				if s.Path == "" {
					continue
				}
				h.Raw(`<path fill-rule="evenodd"`).
					Attr("d", s.Path).
					Attr("fill", s.Color).
					Raw("><title>").Text(fmt.Sprintf("%s: %s (%.1f%%)", s.Label, formatValue(s.Value), s.Percent)).Raw("</title></path>")
			}
		}
		h.Raw("</svg>")

		h.Raw(`<ul class="legend">`)
		for _, item := range legend(c) {
			h.Raw(`<li><span class="swatch"`).Attr("style", "background:"+item.color).Raw("></span>")
			h.Text(item.label).Raw(` <span class="value">`).Text(formatValue(item.value)).Raw("</span></li>")
		}
		h.Raw("</ul></figure>")
		return h.Err()
	})
}

type legendItem struct {
	label string
	value float64
	color string
}

func legend(c charts.Chart) []legendItem {
	if c.Kind == charts.KindBar {
		items := make([]legendItem, 0, len(c.Bars))
		for _, b := range c.Bars {
			items = append(items, legendItem{label: b.Label, value: b.Value, color: b.Color})
		}
		return items
	}
	items := make([]legendItem, 0, len(c.Slices))
	for _, s := range c.Slices {
		items = append(items, legendItem{label: s.Label, value: s.Value, color: s.Color})
	}
	return items
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
