// Package render draws a layout result onto a drawing surface. The layout
// engine never depends on a concrete surface; the terminal grid in this
// package is one implementation.
package render

import (
	"eve-chainmap/internal/layout"
)

// Surface is the set of primitives a map needs. Coordinates are layout
// pixels; the surface scales them however it likes.
type Surface interface {
	Resize(width, height float64)
	Line(x1, y1, x2, y2 float64, style layout.EdgeStyle)
	Ellipse(x, y, w, h float64, fill, stroke layout.Color)
	Text(x, y float64, text string, color layout.Color) // centred on x
	DashSupport() bool
}

const (
	ColorText      layout.Color = "#ccc"
	ColorSelection layout.Color = "#ff0"
)

// Draw paints every edge and then every node of r. selected, when non-empty,
// gets a highlighted outline.
func Draw(s Surface, r *layout.Result, e *layout.Engine, selected string) {
	w, h := Bounds(r, e)
	s.Resize(w, h)
	for _, edge := range r.Edges {
		s.Line(edge.X1, edge.Y1, edge.X2, edge.Y2, edge.Style)
	}
	for _, n := range r.Nodes {
		stroke := layout.ColorStroke
		if n.Name == selected {
			stroke = ColorSelection
		}
		s.Ellipse(n.X, n.Y, e.NodeWidth, e.RowHeight/2, n.Fill, stroke)
		s.Text(n.X, n.Y-16, n.Name, ColorText)
		s.Text(n.X, n.Y+2, n.Label, ColorText)
	}
}

// Bounds is the surface size needed to show every node of r in full.
func Bounds(r *layout.Result, e *layout.Engine) (width, height float64) {
	for _, n := range r.Nodes {
		if x := n.X + e.NodeWidth/2; x > width {
			width = x
		}
		if y := n.Y + e.RowHeight/2; y > height {
			height = y
		}
	}
	return width, height
}
