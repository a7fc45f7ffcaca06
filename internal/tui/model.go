// Package tui is the terminal front end: a bubbletea program that feeds
// channel lines and key presses into a session and draws the result.
package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"eve-chainmap/internal/channel"
	"eve-chainmap/internal/render"
	"eve-chainmap/internal/selection"
	"eve-chainmap/internal/session"
)

type mode int

const (
	modeMap mode = iota
	modeAdd
	modePaste
	modeNote
	modeConfirm
)

const (
	fieldDest = iota
	fieldTo
	fieldFrom
	fieldCount
)

type msgLine string
type msgFailure struct {
	err     error
	pending []string // lines queued before the failure
}

// Model is the bubbletea model.
type Model struct {
	sess *session.Session
	ch   channel.Channel
	grid *render.Grid

	mode   mode
	cursor string // system under the map cursor
	conn   int    // connection row of the selection for toggles
	sig    int    // signature row of the selection

	fields  [fieldCount]textinput.Model
	field   int
	paste   textarea.Model
	replace bool
	note    textinput.Model

	width, height int
}

// New builds the model for an opened channel.
func New(sess *session.Session, ch channel.Channel, grid *render.Grid) Model {
	m := Model{sess: sess, ch: ch, grid: grid}
	placeholders := [fieldCount]string{"destination system", "sig id here", "sig id there"}
	for i := range m.fields {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 64
		ti.Width = 24
		m.fields[i] = ti
	}
	m.paste = textarea.New()
	m.paste.Placeholder = "paste probe scanner results"
	m.paste.SetHeight(6)
	m.note = textinput.New()
	m.note.CharLimit = 128
	return m
}

// Program wraps the model in a bubbletea program on the alternate screen.
func Program(m Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
}

func waitForChannel(ch channel.Channel) tea.Cmd {
	return func() tea.Msg {
		select {
		case line := <-ch.Lines():
			return msgLine(line)
		case err := <-ch.Failures():
			return msgFailure{err: err, pending: channel.Pending(ch)}
		}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForChannel(m.ch))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.paste.SetWidth(msg.Width - 4)
		return m, nil

	case msgLine:
		m.sess.Handle(string(msg))
		m.syncCursor()
		m.syncFields()
		return m, waitForChannel(m.ch)

	case msgFailure:
		for _, line := range msg.pending {
			m.sess.Handle(line)
		}
		m.sess.Fail(msg.err)
		m.mode = modeMap
		return m, nil

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && m.mode == modeMap && !m.sess.Failed() {
			x, y := m.grid.PointAt(msg.X, msg.Y-m.mapTop())
			if m.sess.SelectAt(x, y) {
				m.cursor, _ = m.sess.Panel.Selected()
				m.conn, m.sig = 0, 0
			}
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.ch.Close()
			return m, tea.Quit
		}
		if m.sess.Failed() {
			if msg.String() == "q" || msg.String() == "esc" {
				return m, tea.Quit
			}
			return m, nil
		}
		switch m.mode {
		case modeAdd:
			return m.updateAdd(msg)
		case modePaste:
			return m.updatePaste(msg)
		case modeNote:
			return m.updateNote(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateMap(msg)
		}
	}
	return m, nil
}

func (m Model) updateMap(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if _, ok := m.sess.Notices.Current(); ok {
		if msg.String() == "esc" || msg.String() == "enter" {
			m.sess.Notices.Dismiss()
		}
		return m, nil
	}
	switch msg.String() {
	case "q":
		m.ch.Close()
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "enter":
		if m.cursor != "" && m.sess.Select(m.cursor) == nil {
			m.conn, m.sig = 0, 0
			m.syncFields()
		}
	case "tab":
		m.conn = step(m.conn, 1, len(m.connections()))
	case "shift+tab":
		m.conn = step(m.conn, -1, len(m.connections()))
	case "]":
		m.sig = step(m.sig, 1, len(m.signatures()))
	case "[":
		m.sig = step(m.sig, -1, len(m.signatures()))
	case "e":
		m.toggle(m.sess.ToggleEOL)
	case "r":
		m.toggle(m.sess.ToggleReduced)
	case "c":
		m.toggle(m.sess.ToggleCritical)
	case "f":
		m.toggle(m.sess.ToggleFrigate)
	case "d":
		if err := m.sess.Delete(); errors.Is(err, selection.ErrConfirmRequired) {
			m.mode = modeConfirm
		}
		m.syncFields()
	case "x":
		m.sess.Detach()
	case "a":
		return m.enterAdd()
	case "p", "P":
		if _, ok := m.sess.Panel.Selected(); ok {
			m.replace = msg.String() == "P"
			m.paste.Reset()
			m.mode = modePaste
			return m, m.paste.Focus()
		}
	case "n":
		if id, ok := m.currentSig(); ok {
			note, _ := m.findNote(id)
			m.note.SetValue(note)
			m.note.CursorEnd()
			m.mode = modeNote
			return m, m.note.Focus()
		}
	case "D":
		if id, ok := m.currentSig(); ok {
			m.sess.DeleteSignature(id)
		}
	case "ctrl+d":
		m.sess.DeleteAllSignatures()
	}
	return m, nil
}

func (m Model) enterAdd() (tea.Model, tea.Cmd) {
	m.mode = modeAdd
	m.field = fieldDest
	m.syncFields()
	return m, m.focusField()
}

func (m *Model) focusField() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.fields {
		if i == m.field {
			cmd = m.fields[i].Focus()
		} else {
			m.fields[i].Blur()
		}
	}
	return cmd
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.sess.Auto.Blur()
		for i := range m.fields {
			m.fields[i].Blur()
		}
		m.mode = modeMap
		return m, nil
	case "tab":
		m.sess.Auto.Blur()
		m.field = (m.field + 1) % fieldCount
		return m, m.focusField()
	case "shift+tab":
		m.sess.Auto.Blur()
		m.field = (m.field + fieldCount - 1) % fieldCount
		return m, m.focusField()
	case "up":
		m.sess.Auto.Up()
		return m, nil
	case "down":
		m.sess.Auto.Down()
		return m, nil
	case "ctrl+e":
		m.sess.Form.EOL = !m.sess.Form.EOL
		return m, nil
	case "ctrl+f":
		m.sess.Form.Frigate = !m.sess.Form.Frigate
		return m, nil
	case "enter":
		if m.field == fieldDest && m.sess.AcceptSuggestion() {
			m.fields[fieldDest].SetValue(m.sess.Form.Dest)
			m.fields[fieldDest].CursorEnd()
			return m, nil
		}
		if err := m.sess.SubmitAdd(); err == nil {
			m.syncFields()
			m.field = fieldDest
			return m, m.focusField()
		}
		m.mode = modeMap
		return m, nil
	}

	var cmd tea.Cmd
	before := m.fields[m.field].Value()
	m.fields[m.field], cmd = m.fields[m.field].Update(msg)
	after := m.fields[m.field].Value()
	switch {
	case m.field == fieldDest && after != before:
		m.sess.TypeDest(after)
	case m.field == fieldTo:
		m.sess.Form.To = after
	case m.field == fieldFrom:
		m.sess.Form.From = after
	}
	return m, cmd
}

func (m Model) updatePaste(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.paste.Blur()
		m.mode = modeMap
		return m, nil
	case "ctrl+s":
		text := strings.TrimRight(m.paste.Value(), "\n")
		m.paste.Blur()
		m.mode = modeMap
		if text != "" {
			m.sess.PasteSignatures(text, m.replace)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.paste, cmd = m.paste.Update(msg)
	return m, cmd
}

func (m Model) updateNote(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.note.Blur()
		m.mode = modeMap
		return m, nil
	case "enter":
		m.note.Blur()
		m.mode = modeMap
		if id, ok := m.currentSig(); ok {
			m.sess.RenameNote(id, m.note.Value())
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.note, cmd = m.note.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.sess.ConfirmDelete()
		m.syncFields()
		m.mode = modeMap
	case "n", "N", "esc":
		m.sess.CancelDelete()
		m.mode = modeMap
	}
	return m, nil
}

func (m *Model) toggle(fn func(child string) error) {
	rows := m.connections()
	if m.conn < len(rows) {
		fn(rows[m.conn].Name)
	}
}

func (m *Model) connections() []selection.ConnectionRow {
	d, ok := m.sess.Panel.Detail()
	if !ok {
		return nil
	}
	return d.Connections
}

func (m *Model) signatures() []string {
	d, ok := m.sess.Panel.Detail()
	if !ok {
		return nil
	}
	ids := make([]string, len(d.Signatures))
	for i, s := range d.Signatures {
		ids[i] = s.ID
	}
	return ids
}

func (m *Model) currentSig() (string, bool) {
	ids := m.signatures()
	if m.sig < len(ids) {
		return ids[m.sig], true
	}
	return "", false
}

func (m *Model) findNote(id string) (note string, ok bool) {
	d, _ := m.sess.Panel.Detail()
	for _, s := range d.Signatures {
		if s.ID == id {
			return s.Note, true
		}
	}
	return "", false
}

// step moves a row index by delta, wrapping within n rows.
func step(i, delta, n int) int {
	if n == 0 {
		return 0
	}
	return (i + delta + n) % n
}

func (m *Model) moveCursor(delta int) {
	nodes := m.sess.Layout().Nodes
	if len(nodes) == 0 {
		m.cursor = ""
		return
	}
	idx := -1
	for i, n := range nodes {
		if n.Name == m.cursor {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(nodes) {
		idx = len(nodes) - 1
	}
	m.cursor = nodes[idx].Name
}

// syncCursor keeps the cursor on a system that still exists.
func (m *Model) syncCursor() {
	if n := len(m.connections()); m.conn >= n {
		m.conn = 0
	}
	if n := len(m.signatures()); m.sig >= n {
		m.sig = 0
	}
	res := m.sess.Layout()
	if _, ok := res.Node(m.cursor); ok {
		return
	}
	m.cursor = ""
	if len(res.Nodes) > 0 {
		m.cursor = res.Nodes[0].Name
	}
}

// syncFields copies the add form into the inputs.
func (m *Model) syncFields() {
	m.fields[fieldDest].SetValue(m.sess.Form.Dest)
	m.fields[fieldTo].SetValue(m.sess.Form.To)
	m.fields[fieldFrom].SetValue(m.sess.Form.From)
}
