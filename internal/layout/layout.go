// Package layout places every system of a map on a row/column grid. Each
// child sits one column right of its parent; siblings stack downwards, each
// starting below all rows consumed by the previous sibling's subtree.
package layout

import "eve-chainmap/internal/model"

// Default geometry, in surface units.
const (
	RowHeight   = 75
	ColumnWidth = 150
	NodeWidth   = 100
	OriginX     = 100
	OriginY     = 75
)

// Engine holds the grid geometry. The zero value is not useful; use New.
type Engine struct {
	RowHeight   float64
	ColumnWidth float64
	NodeWidth   float64
	DashSupport bool // whether the target surface can draw dashed lines
}

// New returns an engine with the default geometry.
func New(dashSupport bool) *Engine {
	return &Engine{
		RowHeight:   RowHeight,
		ColumnWidth: ColumnWidth,
		NodeWidth:   NodeWidth,
		DashSupport: dashSupport,
	}
}

// NodePlacement is the position of one system.
type NodePlacement struct {
	Name  string
	X, Y  float64
	Rows  int // rows consumed by this subtree
	Cols  int // columns spanned by this subtree
	Depth int
	Fill  Color
	Label string // class label drawn under the name
	Root  bool
}

// EdgePlacement is one connection line between a parent and a child.
type EdgePlacement struct {
	From, To       string
	X1, Y1, X2, Y2 float64
	Style          EdgeStyle
	Stargate       bool
	EOL            bool
	Mass           model.Mass
	Frigate        bool
}

// Result is the full placement of a map.
type Result struct {
	Rows   int
	Cols   int
	Width  float64
	Height float64
	Nodes  []NodePlacement // depth-first, connection order
	Edges  []EdgePlacement

	index map[string]int
}

// Layout places every system of m, roots stacked from (originX, originY).
// Nothing from a previous call is reused.
func (e *Engine) Layout(m *model.Map, originX, originY float64) Result {
	res := Result{index: make(map[string]int)}
	if m == nil {
		return res
	}
	for _, root := range m.Roots() {
		rows, cols := e.place(m, root, originX, originY+float64(res.Rows)*e.RowHeight, 0, &res)
		res.Rows += rows
		if cols > res.Cols {
			res.Cols = cols
		}
	}
	res.Width = float64(res.Cols) * e.ColumnWidth
	res.Height = float64(res.Rows) * e.RowHeight
	return res
}

func (e *Engine) place(m *model.Map, s *model.System, x, y float64, depth int, res *Result) (rows, cols int) {
	idx := len(res.Nodes)
	res.index[s.Name] = idx
	res.Nodes = append(res.Nodes, NodePlacement{
		Name:  s.Name,
		X:     x,
		Y:     y,
		Depth: depth,
		Fill:  ClassColor(s.Class),
		Label: s.Class.Label(),
		Root:  s.IsRoot(),
	})

	childX := x + e.ColumnWidth
	maxChildCols := 0
	for _, child := range m.Children(s) {
		childY := y + float64(rows)*e.RowHeight
		res.Edges = append(res.Edges, EdgePlacement{
			From:     s.Name,
			To:       child.Name,
			X1:       x + e.NodeWidth/2,
			Y1:       y,
			X2:       childX - e.NodeWidth/2,
			Y2:       childY,
			Style:    StyleFor(child.Edge, e.DashSupport),
			Stargate: child.Edge.Stargate,
			EOL:      child.Edge.EOL,
			Mass:     child.Edge.Mass,
			Frigate:  child.Edge.Frigate,
		})
		childRows, childCols := e.place(m, child, childX, childY, depth+1, res)
		rows += childRows
		if childCols > maxChildCols {
			maxChildCols = childCols
		}
	}
	if rows == 0 {
		rows = 1
	}
	cols = 1 + maxChildCols

	res.Nodes[idx].Rows = rows
	res.Nodes[idx].Cols = cols
	return rows, cols
}

// Node returns the placement of a system by name.
func (r *Result) Node(name string) (NodePlacement, bool) {
	i, ok := r.index[name]
	if !ok {
		return NodePlacement{}, false
	}
	return r.Nodes[i], true
}

// HitTest returns the system whose cell contains (x, y). A node owns the
// rectangle of width w (the gap between columns counts as nobody's) and one
// row height, centred on its position.
func (r *Result) HitTest(x, y, nodeWidth, rowHeight float64) (string, bool) {
	for _, n := range r.Nodes {
		if x >= n.X-nodeWidth/2 && x <= n.X+nodeWidth/2 &&
			y >= n.Y-rowHeight/2 && y < n.Y+rowHeight/2 {
			return n.Name, true
		}
	}
	return "", false
}

// Empty reports whether the layout has no systems.
func (r *Result) Empty() bool {
	return len(r.Nodes) == 0
}
