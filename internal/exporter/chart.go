package exporter

import (
	"context"

	"turnoutcli/internal/turnout"
)

// Chart is a set of turnout lines with labels
type Chart struct {
	Title  string `json:"title"`
	XLabel string `json:"x_label"`
	YLabel string `json:"y_label"`
	Lines  []Line `json:"lines"`
}

// Line is one county's series
type Line struct {
	Name   string          `json:"name"`
	Points []turnout.Point `json:"points"`
}

// Renderer displays or stores a chart
type Renderer interface {
	Render(ctx context.Context, chart Chart) error
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(ctx context.Context, chart Chart) error

// Render calls f
func (f RendererFunc) Render(ctx context.Context, chart Chart) error {
	return f(ctx, chart)
}

// PointCount returns the number of points across all lines
func (c Chart) PointCount() int {
	n := 0
	for _, l := range c.Lines {
		n += len(l.Points)
	}
	return n
}

// Line returns the line named name
func (c Chart) Line(name string) (Line, bool) {
	for _, l := range c.Lines {
		if l.Name == name {
			return l, true
		}
	}
	return Line{}, false
}
