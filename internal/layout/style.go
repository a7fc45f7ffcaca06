package layout

import "eve-chainmap/internal/model"

// Color is a CSS-style hex colour ("#404").
type Color string

// DefaultClassColor fills systems whose class is not in the table.
const DefaultClassColor Color = "#333"

var classColors = map[model.Class]Color{
	model.ClassHome:    "#404",
	model.ClassHighsec: "#040",
	model.ClassLowsec:  "#440",
	model.ClassNullsec: "#400",
	"1":                "#135",
	"2":                "#124",
	"3":                "#122",
	"4":                "#114",
	"5":                "#113",
	"6":                "#112",
}

// ClassColor returns the fill colour for a system class.
func ClassColor(c model.Class) Color {
	if col, ok := classColors[c]; ok {
		return col
	}
	return DefaultClassColor
}

// Edge colours.
const (
	ColorStable   Color = "#ccc"
	ColorReduced  Color = "#cc6"
	ColorCritical Color = "#c44"
	ColorStargate Color = "#48c"
	ColorStroke   Color = "#ccc"
)

// EdgeStyle is the visual treatment of one connection line.
type EdgeStyle struct {
	Color   Color
	Dashed  bool
	Width   float64
	Opacity float64
}

// StyleFor derives an edge's look from its attributes alone. A stargate
// overrides mass colouring and never shows EoL. EoL is a dash pattern when the
// surface can draw one and a thinner stroke when it cannot. Frigate-only
// links are drawn at half opacity regardless of the rest.
func StyleFor(e model.Edge, dashSupport bool) EdgeStyle {
	st := EdgeStyle{Color: ColorStable, Width: 2, Opacity: 1}
	if e.Stargate {
		st.Color = ColorStargate
	} else {
		switch e.Mass {
		case model.MassReduced:
			st.Color = ColorReduced
		case model.MassCritical:
			st.Color = ColorCritical
		}
		if e.EOL {
			if dashSupport {
				st.Dashed = true
			} else {
				st.Width = 1
			}
		}
	}
	if e.Frigate {
		st.Opacity = 0.5
	}
	return st
}
