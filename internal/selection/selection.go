// Package selection holds the detail panel: the system the user focused and
// the actions offered for it. Actions only send commands; what the panel
// shows changes when the server pushes the next map.
package selection

import (
	"errors"
	"fmt"
	"net/url"

	"eve-chainmap/internal/model"
	"eve-chainmap/internal/protocol"
)

var (
	ErrNoSelection     = errors.New("no system selected")
	ErrStargate        = errors.New("stargate connections cannot be toggled")
	ErrNotConnected    = errors.New("system is not connected to the selection")
	ErrConfirmRequired = errors.New("deleting the home system needs confirmation")
	ErrUnknownSig      = errors.New("signature not found")
)

// SecurityBand classifies a hop's security status.
type SecurityBand string

const (
	Highsec SecurityBand = "highsec"
	Lowsec  SecurityBand = "lowsec"
	Nullsec SecurityBand = "nullsec"
)

// BandFor maps a security value to its band.
func BandFor(security float64) SecurityBand {
	switch {
	case security >= 0.5:
		return Highsec
	case security > 0:
		return Lowsec
	default:
		return Nullsec
	}
}

// ConnectionRow is one outgoing edge of the selected system.
type ConnectionRow struct {
	Name      string
	Class     model.Class
	EOL       bool
	Mass      model.Mass
	Frigate   bool
	Stargate  bool
	Togglable bool
}

// HopRow is one system along a trade-hub route.
type HopRow struct {
	Name     string
	Security float64
	Band     SecurityBand
}

// RouteRow is the route from the selection to one trade hub.
type RouteRow struct {
	Hub  string
	Jump int
	Hops []HopRow
}

// Detail is everything the panel renders for one system.
type Detail struct {
	Name        string
	Link        string
	Class       model.Class
	Region      string
	Effect      string
	Statics     []string
	Connections []ConnectionRow
	Routes      []RouteRow
	Signatures  []model.Signature
}

// LinkFor returns the external info page for a system.
func LinkFor(name string) string {
	if model.IsWormholeDesignation(name) {
		return "http://wormhol.es/" + url.PathEscape(name)
	}
	return "http://eveeye.com/?system=" + url.QueryEscape(name)
}

// Build derives the panel view of s from the map it belongs to.
func Build(m *model.Map, s *model.System) Detail {
	d := Detail{
		Name:       s.Name,
		Link:       LinkFor(s.Name),
		Class:      s.Class,
		Region:     s.Region,
		Effect:     s.Effect,
		Signatures: append([]model.Signature(nil), s.Signatures...),
	}
	if d.Effect == "" {
		d.Effect = "no effect"
	}
	for _, st := range s.Statics() {
		d.Statics = append(d.Statics, st.Describe())
	}
	for _, child := range m.Children(s) {
		d.Connections = append(d.Connections, ConnectionRow{
			Name:      child.Name,
			Class:     child.Class,
			EOL:       child.Edge.EOL,
			Mass:      child.Edge.Mass,
			Frigate:   child.Edge.Frigate,
			Stargate:  child.Edge.Stargate,
			Togglable: !child.Edge.Stargate,
		})
	}
	for _, r := range s.Jumps {
		row := RouteRow{Hub: r.Hub, Jump: len(r.Hops)}
		for _, h := range r.Hops {
			row.Hops = append(row.Hops, HopRow{Name: h.Name, Security: h.Security, Band: BandFor(h.Security)})
		}
		d.Routes = append(d.Routes, row)
	}
	return d
}

// Panel tracks the selected system and sends the commands its controls issue.
type Panel struct {
	sender protocol.Sender

	system        *model.System
	detail        Detail
	pendingDelete bool
	m             *model.Map
}

func New(s protocol.Sender) *Panel {
	return &Panel{sender: s}
}

// Select binds the panel to a system of m.
func (p *Panel) Select(m *model.Map, name string) (Detail, error) {
	s, ok := m.System(name)
	if !ok {
		return Detail{}, fmt.Errorf("select %s: %w", name, ErrNoSelection)
	}
	p.bind(m, s)
	p.pendingDelete = false
	return p.detail, nil
}

// Refresh rebinds to the same name in a freshly received map. When the
// name is gone the panel keeps showing what it had.
func (p *Panel) Refresh(m *model.Map) bool {
	if p.system == nil {
		return false
	}
	s, ok := m.System(p.system.Name)
	if !ok {
		return false
	}
	p.bind(m, s)
	return true
}

func (p *Panel) bind(m *model.Map, s *model.System) {
	p.m = m
	p.system = s
	p.detail = Build(m, s)
}

// Clear unbinds the panel.
func (p *Panel) Clear() {
	p.system = nil
	p.m = nil
	p.detail = Detail{}
	p.pendingDelete = false
}

// Selected returns the bound system name.
func (p *Panel) Selected() (string, bool) {
	if p.system == nil {
		return "", false
	}
	return p.system.Name, true
}

func (p *Panel) Detail() (Detail, bool) {
	return p.detail, p.system != nil
}

// PendingDelete reports whether a home deletion awaits confirmation.
func (p *Panel) PendingDelete() bool { return p.pendingDelete }

func (p *Panel) current() (*model.System, error) {
	if p.system == nil {
		return nil, ErrNoSelection
	}
	return p.system, nil
}

func (p *Panel) toggle(child string, build func(from, to string) protocol.Command) error {
	s, err := p.current()
	if err != nil {
		return err
	}
	c, ok := p.m.System(child)
	if !ok || c.Parent != s.Name {
		return fmt.Errorf("%s -> %s: %w", s.Name, child, ErrNotConnected)
	}
	if c.Edge.Stargate {
		return fmt.Errorf("%s -> %s: %w", s.Name, child, ErrStargate)
	}
	return build(s.Name, child).SendTo(p.sender)
}

func (p *Panel) ToggleEOL(child string) error      { return p.toggle(child, protocol.ToggleEOL) }
func (p *Panel) ToggleReduced(child string) error  { return p.toggle(child, protocol.ToggleReduced) }
func (p *Panel) ToggleCritical(child string) error { return p.toggle(child, protocol.ToggleCritical) }
func (p *Panel) ToggleFrigate(child string) error  { return p.toggle(child, protocol.ToggleFrigate) }

// Delete sends DELETE for the selection. The home system is only armed for
// deletion; ConfirmDelete sends it.
func (p *Panel) Delete() error {
	s, err := p.current()
	if err != nil {
		return err
	}
	if s.Class == model.ClassHome {
		p.pendingDelete = true
		return ErrConfirmRequired
	}
	return p.sendDelete(s.Name)
}

// ConfirmDelete sends an armed home deletion.
func (p *Panel) ConfirmDelete() error {
	s, err := p.current()
	if err != nil {
		return err
	}
	if !p.pendingDelete {
		return errors.New("no deletion pending")
	}
	return p.sendDelete(s.Name)
}

// CancelDelete disarms a pending home deletion.
func (p *Panel) CancelDelete() { p.pendingDelete = false }

func (p *Panel) sendDelete(name string) error {
	if err := protocol.Delete(name).SendTo(p.sender); err != nil {
		return err
	}
	p.Clear()
	return nil
}

// Detach makes the selection the root of its own tree.
func (p *Panel) Detach() error {
	s, err := p.current()
	if err != nil {
		return err
	}
	return protocol.Detach(s.Name).SendTo(p.sender)
}

// PasteSignatures uploads probe-scanner text. replace drops signatures
// missing from the paste.
func (p *Panel) PasteSignatures(text string, replace bool) error {
	s, err := p.current()
	if err != nil {
		return err
	}
	action := protocol.SigsAdd
	if replace {
		action = protocol.SigsReplace
	}
	return protocol.Signatures(s.Name, action, text).SendTo(p.sender)
}

// RenameNote sets the note of one signature.
func (p *Panel) RenameNote(id, note string) error {
	s, err := p.current()
	if err != nil {
		return err
	}
	if _, ok := s.Signature(id); !ok {
		return fmt.Errorf("%s %s: %w", s.Name, id, ErrUnknownSig)
	}
	return protocol.SignatureNote(s.Name, id, note).SendTo(p.sender)
}

// DeleteSignature removes one signature row.
func (p *Panel) DeleteSignature(id string) error {
	s, err := p.current()
	if err != nil {
		return err
	}
	if _, ok := s.Signature(id); !ok {
		return fmt.Errorf("%s %s: %w", s.Name, id, ErrUnknownSig)
	}
	return protocol.DeleteSignature(s.Name, id).SendTo(p.sender)
}

// DeleteAllSignatures clears the signature table.
func (p *Panel) DeleteAllSignatures() error {
	s, err := p.current()
	if err != nil {
		return err
	}
	return protocol.DeleteSignature(s.Name, "").SendTo(p.sender)
}
