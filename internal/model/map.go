package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wireSystem is the nested JSON form the server pushes in MAP frames.
type wireSystem struct {
	Name        string       `json:"name"`
	Class       Class        `json:"class,omitempty"`
	Effect      string       `json:"effect,omitempty"`
	Region      string       `json:"region,omitempty"`
	Static1     *Static      `json:"static1,omitempty"`
	Static2     *Static      `json:"static2,omitempty"`
	Signatures  []Signature  `json:"signatures,omitempty"`
	Jumps       Routes       `json:"jumps,omitempty"`
	Src         string       `json:"src,omitempty"`
	To          string       `json:"to,omitempty"`
	From        string       `json:"from,omitempty"`
	EOL         bool         `json:"eol,omitempty"`
	Mass        Mass         `json:"mass,omitempty"`
	Stargate    bool         `json:"stargate,omitempty"`
	Frigate     bool         `json:"frigate,omitempty"`
	Connections []wireSystem `json:"connections,omitempty"`
}

// Map is an arena of systems addressed by name. Roots keep their order.
type Map struct {
	roots []string
	nodes map[string]*System
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{nodes: make(map[string]*System)}
}

// DecodeMap parses a MAP payload: a JSON array of root systems, or a single
// root object.
func DecodeMap(data []byte) (*Map, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("decode map: empty payload")
	}
	var forest []wireSystem
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &forest); err != nil {
			return nil, fmt.Errorf("decode map: %w", err)
		}
	case '{':
		var root wireSystem
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("decode map: %w", err)
		}
		forest = []wireSystem{root}
	default:
		return nil, fmt.Errorf("decode map: want array or object")
	}

	m := NewMap()
	for i := range forest {
		if err := m.insertWire(&forest[i], ""); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Map) insertWire(w *wireSystem, parent string) error {
	if w.Name == "" {
		return fmt.Errorf("decode map: system without name")
	}
	if _, dup := m.nodes[w.Name]; dup {
		return fmt.Errorf("decode map: duplicate system %q", w.Name)
	}
	s := &System{
		Name:       w.Name,
		Class:      w.Class,
		Effect:     w.Effect,
		Region:     w.Region,
		Static1:    w.Static1,
		Static2:    w.Static2,
		Signatures: w.Signatures,
		Jumps:      w.Jumps,
		Parent:     parent,
	}
	if parent != "" {
		s.Edge = Edge{EOL: w.EOL, Mass: w.Mass, Stargate: w.Stargate, Frigate: w.Frigate, To: w.To, From: w.From}
		p := m.nodes[parent]
		p.Children = append(p.Children, s.Name)
	} else {
		m.roots = append(m.roots, s.Name)
	}
	m.nodes[s.Name] = s
	for i := range w.Connections {
		if err := m.insertWire(&w.Connections[i], s.Name); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of systems in the map.
func (m *Map) Len() int {
	return len(m.nodes)
}

// Roots returns the root systems in order.
func (m *Map) Roots() []*System {
	out := make([]*System, 0, len(m.roots))
	for _, name := range m.roots {
		out = append(out, m.nodes[name])
	}
	return out
}

// System looks a system up by name.
func (m *Map) System(name string) (*System, bool) {
	s, ok := m.nodes[name]
	return s, ok
}

// Children returns a system's children in connection order.
func (m *Map) Children(s *System) []*System {
	out := make([]*System, 0, len(s.Children))
	for _, name := range s.Children {
		out = append(out, m.nodes[name])
	}
	return out
}

// Walk visits every system depth-first in connection order.
func (m *Map) Walk(fn func(s *System, depth int)) {
	var visit func(s *System, depth int)
	visit = func(s *System, depth int) {
		fn(s, depth)
		for _, c := range m.Children(s) {
			visit(c, depth+1)
		}
	}
	for _, r := range m.Roots() {
		visit(r, 0)
	}
}

// Clone returns a deep copy of the map.
func (m *Map) Clone() *Map {
	out := NewMap()
	out.roots = append([]string(nil), m.roots...)
	for name, s := range m.nodes {
		c := *s
		c.Children = append([]string(nil), s.Children...)
		c.Signatures = append([]Signature(nil), s.Signatures...)
		c.Jumps = append(Routes(nil), s.Jumps...)
		if s.Static1 != nil {
			st := *s.Static1
			c.Static1 = &st
		}
		if s.Static2 != nil {
			st := *s.Static2
			c.Static2 = &st
		}
		out.nodes[name] = &c
	}
	return out
}

// AddRoot appends s as a new root. The name must be unused.
func (m *Map) AddRoot(s *System) error {
	if _, dup := m.nodes[s.Name]; dup {
		return fmt.Errorf("system %q already in map", s.Name)
	}
	s.Parent = ""
	s.Edge = Edge{}
	m.nodes[s.Name] = s
	m.roots = append(m.roots, s.Name)
	return nil
}

// AddChild appends s as the last connection of parent.
func (m *Map) AddChild(parent string, s *System) error {
	p, ok := m.nodes[parent]
	if !ok {
		return fmt.Errorf("parent %q not in map", parent)
	}
	if _, dup := m.nodes[s.Name]; dup {
		return fmt.Errorf("system %q already in map", s.Name)
	}
	s.Parent = parent
	m.nodes[s.Name] = s
	p.Children = append(p.Children, s.Name)
	return nil
}

// Remove deletes a system and its whole subtree. It returns the removed
// systems, the named one first.
func (m *Map) Remove(name string) []*System {
	s, ok := m.nodes[name]
	if !ok {
		return nil
	}
	m.unlink(s)
	var removed []*System
	var drop func(s *System)
	drop = func(s *System) {
		removed = append(removed, s)
		delete(m.nodes, s.Name)
		for _, c := range s.Children {
			drop(m.nodes[c])
		}
	}
	drop(s)
	return removed
}

// Detach cuts a non-root system from its parent and appends it, with its
// subtree, as a new root.
func (m *Map) Detach(name string) (*System, bool) {
	s, ok := m.nodes[name]
	if !ok || s.IsRoot() {
		return nil, false
	}
	m.unlink(s)
	s.Parent = ""
	s.Edge = Edge{}
	m.roots = append(m.roots, s.Name)
	return s, true
}

func (m *Map) unlink(s *System) {
	if s.IsRoot() {
		m.roots = removeName(m.roots, s.Name)
		return
	}
	if p, ok := m.nodes[s.Parent]; ok {
		p.Children = removeName(p.Children, s.Name)
	}
}

func removeName(names []string, name string) []string {
	for i, n := range names {
		if n == name {
			return append(names[:i:i], names[i+1:]...)
		}
	}
	return names
}

// MarshalJSON encodes the map back to the nested forest form.
func (m *Map) MarshalJSON() ([]byte, error) {
	forest := make([]wireSystem, 0, len(m.roots))
	for _, r := range m.Roots() {
		forest = append(forest, m.toWire(r))
	}
	return json.Marshal(forest)
}

func (m *Map) toWire(s *System) wireSystem {
	w := wireSystem{
		Name:       s.Name,
		Class:      s.Class,
		Effect:     s.Effect,
		Region:     s.Region,
		Static1:    s.Static1,
		Static2:    s.Static2,
		Signatures: s.Signatures,
		Jumps:      s.Jumps,
		Src:        s.Parent,
		To:         s.Edge.To,
		From:       s.Edge.From,
		EOL:        s.Edge.EOL,
		Mass:       s.Edge.Mass,
		Stargate:   s.Edge.Stargate,
		Frigate:    s.Edge.Frigate,
	}
	for _, c := range m.Children(s) {
		w.Connections = append(w.Connections, m.toWire(c))
	}
	return w
}
