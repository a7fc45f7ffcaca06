package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"eve-chainmap/internal/render"
	"eve-chainmap/internal/selection"
	"eve-chainmap/internal/session"
)

var (
	colorMuted  = lipgloss.Color("#71717a")
	colorRed    = lipgloss.Color("#f87171")
	colorYellow = lipgloss.Color("#fbbf24")
	colorBlue   = lipgloss.Color("#60a5fa")

	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleCursor  = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	stylePanel   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorMuted).Padding(0, 1)
	styleFatal   = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(colorRed).Foreground(colorRed).Padding(0, 2)
	styleNotice  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorYellow).Padding(0, 2)
	styleChosen  = lipgloss.NewStyle().Reverse(true)
	styleHopBand = map[selection.SecurityBand]lipgloss.Style{
		selection.Highsec: lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80")),
		selection.Lowsec:  lipgloss.NewStyle().Foreground(colorYellow),
		selection.Nullsec: lipgloss.NewStyle().Foreground(colorRed),
	}
)

func (m Model) View() string {
	var sections []string
	sections = append(sections, styleTitle.Render("chain map")+" "+styleMuted.Render(m.status()))

	if n, ok := m.sess.Notices.Current(); ok {
		sections = append(sections, renderNotice(n))
	}

	if m.sess.Empty() {
		sections = append(sections, styleMuted.Render("No systems yet. Press a to add one."))
	} else {
		sections = append(sections, m.renderMap())
	}

	if d, ok := m.sess.Panel.Detail(); ok {
		sections = append(sections, stylePanel.Render(m.renderDetail(d)))
	}

	switch m.mode {
	case modeAdd:
		sections = append(sections, stylePanel.Render(m.renderAdd()))
	case modePaste:
		action := "add"
		if m.replace {
			action = "replace"
		}
		sections = append(sections, stylePanel.Render("signatures ("+action+")\n"+m.paste.View()+"\n"+styleMuted.Render("ctrl+s upload, esc cancel")))
	case modeNote:
		sections = append(sections, stylePanel.Render("note: "+m.note.View()))
	case modeConfirm:
		name, _ := m.sess.Panel.Selected()
		sections = append(sections, styleNotice.Render(fmt.Sprintf("Delete home system %s? (y/n)", name)))
	}

	sections = append(sections, styleMuted.Render(m.help()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// mapTop is the screen row where the map grid starts.
func (m Model) mapTop() int {
	top := 1
	if n, ok := m.sess.Notices.Current(); ok {
		top += lipgloss.Height(renderNotice(n))
	}
	return top
}

func (m Model) status() string {
	if m.sess.Failed() {
		return "disconnected"
	}
	if !m.sess.HasMap() {
		return "waiting for map"
	}
	res := m.sess.Layout()
	return fmt.Sprintf("%d systems, %d rows", len(res.Nodes), res.Rows)
}

func renderNotice(n session.Notice) string {
	if n.Kind == session.Fatal {
		return styleFatal.Render(n.Text + "\n\npress q to quit")
	}
	return styleNotice.Render(n.Text + "\n\n" + styleMuted.Render("esc to dismiss"))
}

func (m Model) renderMap() string {
	res := m.sess.Layout()
	selected, _ := m.sess.Panel.Selected()
	render.Draw(m.grid, res, m.sess.Engine(), selected)
	if n, ok := res.Node(m.cursor); ok {
		m.grid.Text(n.X, n.Y+26, "^^^", render.ColorSelection)
	}
	return m.grid.String()
}

func (m Model) renderDetail(d selection.Detail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s\n", styleTitle.Render(d.Name), d.Class.Label(), styleMuted.Render(d.Link))
	if d.Region != "" {
		fmt.Fprintf(&b, "region: %s\n", d.Region)
	}
	fmt.Fprintf(&b, "effect: %s\n", d.Effect)
	for _, s := range d.Statics {
		fmt.Fprintf(&b, "static: %s\n", s)
	}
	if len(d.Connections) > 0 {
		b.WriteString("connections:\n")
		for i, c := range d.Connections {
			line := "  " + c.Name + " " + connectionFlags(c)
			if i == m.conn {
				line = styleCursor.Render(line)
			}
			b.WriteString(line + "\n")
		}
	}
	for _, r := range d.Routes {
		fmt.Fprintf(&b, "%s (%d): ", r.Hub, r.Jump)
		for _, h := range r.Hops {
			b.WriteString(styleHopBand[h.Band].Render("■"))
		}
		b.WriteString("\n")
	}
	if len(d.Signatures) > 0 {
		b.WriteString("signatures:\n")
		for i, s := range d.Signatures {
			line := fmt.Sprintf("  %-8s %-18s %-24s %5.1f%% %s", s.ID, s.Group, s.Type, s.Signal, s.Note)
			if i == m.sig {
				line = styleChosen.Render(line)
			}
			b.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func connectionFlags(c selection.ConnectionRow) string {
	if c.Stargate {
		return "[stargate]"
	}
	var flags []string
	if c.EOL {
		flags = append(flags, "EoL")
	}
	if c.Mass != "" {
		flags = append(flags, string(c.Mass))
	}
	if c.Frigate {
		flags = append(flags, "frigate")
	}
	return "[" + strings.Join(flags, " ") + "]"
}

func (m Model) renderAdd() string {
	var b strings.Builder
	src := m.sess.Form.Src
	if src == "" {
		src = "(new chain)"
	}
	fmt.Fprintf(&b, "add from %s\n", src)
	labels := [fieldCount]string{"dest", "to  ", "from"}
	for i := range m.fields {
		fmt.Fprintf(&b, "%s %s\n", labels[i], m.fields[i].View())
		if i == fieldDest {
			for j, name := range m.sess.Auto.Suggestions() {
				if j == m.sess.Auto.Selected() {
					name = styleChosen.Render(name)
				}
				b.WriteString("     " + name + "\n")
			}
		}
	}
	fmt.Fprintf(&b, "[%s] eol  [%s] frigate", check(m.sess.Form.EOL), check(m.sess.Form.Frigate))
	return b.String()
}

func check(on bool) string {
	if on {
		return "x"
	}
	return " "
}

func (m Model) help() string {
	switch m.mode {
	case modeAdd:
		return "enter add/accept  tab next field  up/down suggestions  ctrl+e eol  ctrl+f frigate  esc back"
	case modeNote:
		return "enter save  esc cancel"
	}
	return "j/k move  enter select  a add  tab connection  e/r/c/f toggle  d delete  x detach  p/P paste sigs  [/] sig  n note  D del sig  q quit"
}
