// Package charts computes chart geometry for inline SVG rendering. Every chart
// is drawn in a 100x100 viewBox.
package charts

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the chart type.
type Kind string

const (
	KindBar      Kind = "bar"
	KindPie      Kind = "pie"
	KindDoughnut Kind = "doughnut"
)

const (
	viewSize      = 100.0
	center        = viewSize / 2
	outerRadius   = 48.0
	doughnutInner = 26.0
	barFill       = 0.7
	fullCircle    = 360.0
	epsilon       = 1e-9
)

var palette = []string{
	"#36a2eb", "#ff6384", "#ff9f40", "#ffcd56", "#4bc0c0",
	"#9966ff", "#c9cbcf", "#2e7d32", "#8d6e63", "#ad1457",
}

// Color returns the palette color for series index i.
func Color(i int) string {
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}

// Chart is a rendered-ready chart.
type Chart struct {
	ID     string
	Kind   Kind
	Title  string
	Bars   []Bar
	Slices []Slice
	Total  float64
}

// Bar is one column of a bar chart in viewBox units.
type Bar struct {
	Label  string
	Value  float64
	X      float64
	Y      float64
	Width  float64
	Height float64
	Color  string
}

// Slice is one segment of a pie or doughnut chart. Path is empty for zero values.
type Slice struct {
	Label      string
	Value      float64
	StartAngle float64
	EndAngle   float64
	Percent    float64
	Path       string
	Color      string
}

// Sweep returns the slice angle in degrees.
func (s Slice) Sweep() float64 {
	return s.EndAngle - s.StartAngle
}

// Empty reports whether there is nothing to plot.
func (c Chart) Empty() bool {
	switch c.Kind {
	case KindBar:
		return len(c.Bars) == 0
	default:
		return c.Total <= 0
	}
}

// ViewBox returns the SVG viewBox attribute.
func (c Chart) ViewBox() string {
	return "0 0 100 100"
}

// NewBar lays out one column per label, scaled to the largest value.
func NewBar(id, title string, labels []string, values []float64) Chart {
	n := len(labels)
	chart := Chart{ID: id, Kind: KindBar, Title: title}
	if n == 0 {
		return chart
	}

	maxVal := 0.0
	for i := range labels {
		v := valueAt(values, i)
		chart.Total += v
		if v > maxVal {
			maxVal = v
		}
	}

	slot := viewSize / float64(n)
	width := slot * barFill
	chart.Bars = make([]Bar, 0, n)
	for i, label := range labels {
		v := valueAt(values, i)
		h := 0.0
		if maxVal > 0 {
			h = v / maxVal * viewSize
		}
		chart.Bars = append(chart.Bars, Bar{
			Label:  label,
			Value:  v,
			X:      float64(i)*slot + (slot-width)/2,
			Y:      viewSize - h,
			Width:  width,
			Height: h,
			Color:  Color(i),
		})
	}
	return chart
}

// NewPie lays out slices clockwise from twelve o'clock.
func NewPie(id, title string, labels []string, values []float64) Chart {
	return newRadial(id, title, KindPie, labels, values, 0)
}

// NewDoughnut is NewPie with a hollow centre.
func NewDoughnut(id, title string, labels []string, values []float64) Chart {
	return newRadial(id, title, KindDoughnut, labels, values, doughnutInner)
}

func newRadial(id, title string, kind Kind, labels []string, values []float64, inner float64) Chart {
	chart := Chart{ID: id, Kind: kind, Title: title}
	for i := range labels {
		chart.Total += valueAt(values, i)
	}

	chart.Slices = make([]Slice, 0, len(labels))
	angle := 0.0
	for i, label := range labels {
		v := valueAt(values, i)
		s := Slice{Label: label, Value: v, StartAngle: angle, EndAngle: angle, Color: Color(i)}
		if chart.Total > 0 && v > 0 {
			sweep := v / chart.Total * fullCircle
			s.EndAngle = angle + sweep
			s.Percent = v / chart.Total * 100
			s.Path = arcPath(s.StartAngle, s.EndAngle, outerRadius, inner)
			angle = s.EndAngle
		}
		chart.Slices = append(chart.Slices, s)
	}
	return chart
}

func valueAt(values []float64, i int) float64 {
	if i >= len(values) {
		return 0
	}
	v := values[i]
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func point(angle, radius float64) (float64, float64) {
	rad := (angle - 90) * math.Pi / 180
	return center + radius*math.Cos(rad), center + radius*math.Sin(rad)
}

func arcPath(start, end, outer, inner float64) string {
	if end-start >= fullCircle-epsilon {
		return ringPath(outer, inner)
	}
	large := 0
	if end-start > 180 {
		large = 1
	}
	ox1, oy1 := point(start, outer)
	ox2, oy2 := point(end, outer)

	var b strings.Builder
	if inner <= 0 {
		fmt.Fprintf(&b, "M%s %s L%s %s A%s %s 0 %d 1 %s %s Z",
			num(center), num(center), num(ox1), num(oy1), num(outer), num(outer), large, num(ox2), num(oy2))
		return b.String()
	}
	ix1, iy1 := point(start, inner)
	ix2, iy2 := point(end, inner)
	fmt.Fprintf(&b, "M%s %s A%s %s 0 %d 1 %s %s L%s %s A%s %s 0 %d 0 %s %s Z",
		num(ox1), num(oy1), num(outer), num(outer), large, num(ox2), num(oy2),
		num(ix2), num(iy2), num(inner), num(inner), large, num(ix1), num(iy1))
	return b.String()
}

// ringPath draws a full circle as two half arcs; a single arc cannot close on itself.
func ringPath(outer, inner float64) string {
	top := center - outer
	bottom := center + outer
	var b strings.Builder
	fmt.Fprintf(&b, "M%s %s A%s %s 0 1 1 %s %s A%s %s 0 1 1 %s %s Z",
		num(center), num(top), num(outer), num(outer), num(center), num(bottom),
		num(outer), num(outer), num(center), num(top))
	if inner > 0 {
		itop := center - inner
		ibottom := center + inner
		fmt.Fprintf(&b, " M%s %s A%s %s 0 1 0 %s %s A%s %s 0 1 0 %s %s Z",
			num(center), num(itop), num(inner), num(inner), num(center), num(ibottom),
			num(inner), num(inner), num(center), num(itop))
	}
	return b.String()
}

func num(v float64) string {
	if math.Abs(v) < 0.005 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Num formats a coordinate for SVG attributes.
func Num(v float64) string {
	return num(v)
}
