package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"eve-chainmap/internal/layout"
)

// Default cell size in layout pixels: a 150px column is 15 cells wide and a
// 75px row is 3 lines tall.
const (
	CellWidth  = 10
	CellHeight = 25
)

type cell struct {
	r     rune
	fg    layout.Color
	bg    layout.Color
	faint bool
}

// Grid is a terminal surface: a matrix of styled runes.
type Grid struct {
	CellWidth  float64
	CellHeight float64
	Dashes     bool

	cols, rows int
	cells      [][]cell
}

// NewGrid returns an empty grid with the default cell size.
func NewGrid(dashes bool) *Grid {
	return &Grid{CellWidth: CellWidth, CellHeight: CellHeight, Dashes: dashes}
}

func (g *Grid) DashSupport() bool { return g.Dashes }

// Size returns the grid dimensions in cells.
func (g *Grid) Size() (cols, rows int) { return g.cols, g.rows }

// Resize discards the contents and allocates enough cells for the area.
func (g *Grid) Resize(width, height float64) {
	g.cols = int(math.Ceil(width / g.CellWidth))
	g.rows = int(math.Ceil(height / g.CellHeight))
	g.cells = make([][]cell, g.rows)
	for i := range g.cells {
		row := make([]cell, g.cols)
		for j := range row {
			row[j].r = ' '
		}
		g.cells[i] = row
	}
}

func (g *Grid) col(x float64) int { return int(math.Floor(x / g.CellWidth)) }
func (g *Grid) row(y float64) int { return int(math.Floor(y / g.CellHeight)) }

func (g *Grid) at(c, r int) *cell {
	if r < 0 || r >= g.rows || c < 0 || c >= g.cols {
		return nil
	}
	return &g.cells[r][c]
}

func (g *Grid) put(c, r int, ch rune, fg layout.Color, faint bool) {
	if p := g.at(c, r); p != nil {
		p.r, p.fg, p.faint = ch, fg, faint
	}
}

// Line draws an elbow: down from the start column, then across to the end.
func (g *Grid) Line(x1, y1, x2, y2 float64, st layout.EdgeStyle) {
	horiz := '─'
	switch {
	case st.Dashed:
		horiz = '╌'
	case st.Width < 2:
		horiz = '-'
	}
	faint := st.Opacity < 1
	c1, r1, c2, r2 := g.col(x1), g.row(y1), g.col(x2), g.row(y2)
	for r := r1 + 1; r < r2; r++ {
		g.put(c1, r, '│', st.Color, faint)
	}
	start := c1
	if r2 > r1 {
		g.put(c1, r2, '└', st.Color, faint)
		start = c1 + 1
	}
	for c := start; c < c2; c++ {
		g.put(c, r2, horiz, st.Color, faint)
	}
}

// Ellipse fills the node box and brackets it with the stroke colour.
func (g *Grid) Ellipse(x, y, w, h float64, fill, stroke layout.Color) {
	left, right := g.col(x-w/2), g.col(x+w/2)-1
	top, bottom := g.row(y-h/2), g.row(y+h/2)
	for r := top; r <= bottom; r++ {
		for c := left; c <= right; c++ {
			if p := g.at(c, r); p != nil {
				p.r, p.bg, p.fg = ' ', fill, stroke
			}
		}
		g.put(left, r, '(', stroke, false)
		g.put(right, r, ')', stroke, false)
	}
}

// Text writes text centred on x, clipped to the grid.
func (g *Grid) Text(x, y float64, text string, color layout.Color) {
	runes := []rune(text)
	start := g.col(x) - len(runes)/2
	r := g.row(y)
	for i, ch := range runes {
		if p := g.at(start+i, r); p != nil {
			p.r, p.fg = ch, color
		}
	}
}

// PointAt maps a cell back to the layout pixel at its centre.
func (g *Grid) PointAt(col, row int) (x, y float64) {
	return (float64(col) + 0.5) * g.CellWidth, (float64(row) + 0.5) * g.CellHeight
}

// Plain returns the grid text without styling, trailing spaces trimmed.
func (g *Grid) Plain() string {
	lines := make([]string, g.rows)
	for i, row := range g.cells {
		var b strings.Builder
		for _, c := range row {
			b.WriteRune(c.r)
		}
		lines[i] = strings.TrimRight(b.String(), " ")
	}
	return strings.Join(lines, "\n")
}

// String renders the grid with colours, one lipgloss run per style change.
func (g *Grid) String() string {
	lines := make([]string, g.rows)
	for i, row := range g.cells {
		var b strings.Builder
		for j := 0; j < len(row); {
			k := j
			var run strings.Builder
			for k < len(row) && sameStyle(row[k], row[j]) {
				run.WriteRune(row[k].r)
				k++
			}
			b.WriteString(styleOf(row[j]).Render(run.String()))
			j = k
		}
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

func sameStyle(a, b cell) bool {
	return a.fg == b.fg && a.bg == b.bg && a.faint == b.faint
}

func styleOf(c cell) lipgloss.Style {
	st := lipgloss.NewStyle()
	if c.fg != "" {
		st = st.Foreground(lipgloss.Color(c.fg))
	}
	if c.bg != "" {
		st = st.Background(lipgloss.Color(c.bg))
	}
	if c.faint {
		st = st.Faint(true)
	}
	return st
}
