package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Mass is the remaining jump capacity of a wormhole connection.
type Mass string

const (
	MassNone     Mass = ""
	MassStable   Mass = "stable"
	MassReduced  Mass = "reduced"
	MassCritical Mass = "critical"
)

// Static is a permanent wormhole exit of a w-space system.
type Static struct {
	Name     string `json:"name"`
	Dest     string `json:"dest"`
	Lifetime int    `json:"lifetime"`  // hours
	JumpMass int    `json:"jump_mass"` // kilotonnes per jump
	MaxMass  int    `json:"max_mass"`  // kilotonnes total
}

// Describe formats the static the way the detail panel shows it.
func (s Static) Describe() string {
	return fmt.Sprintf("%s to %s (%dh, %dKt/j, %dKt)", s.Name, s.Dest, s.Lifetime, s.JumpMass, s.MaxMass)
}

// Signature is a scanned anomaly in a system.
// Wire form: [id, scan_group, group, type, signal, note].
type Signature struct {
	ID        string
	ScanGroup string
	Group     string
	Type      string
	Signal    float64 // percent, 0 when unknown
	Note      string
}

func (s *Signature) UnmarshalJSON(b []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("signature: %w", err)
	}
	if len(fields) == 0 {
		return fmt.Errorf("signature: empty record")
	}
	str := func(i int) string {
		if i >= len(fields) {
			return ""
		}
		var v string
		if json.Unmarshal(fields[i], &v) != nil {
			return string(bytes.Trim(fields[i], `"`))
		}
		return v
	}
	*s = Signature{ID: str(0), ScanGroup: str(1), Group: str(2), Type: str(3)}
	switch {
	case len(fields) >= 6:
		if err := json.Unmarshal(fields[4], &s.Signal); err != nil {
			return fmt.Errorf("signature signal: %w", err)
		}
		s.Note = str(5)
	case len(fields) == 5:
		// Older records carry the note directly after the type.
		if err := json.Unmarshal(fields[4], &s.Signal); err != nil {
			s.Note = str(4)
		}
	}
	return nil
}

func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{s.ID, s.ScanGroup, s.Group, s.Type, s.Signal, s.Note})
}

// Hop is one system on a route to a trade hub.
// Wire form: [name, security].
type Hop struct {
	Name     string
	Security float64
}

func (h *Hop) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("hop: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("hop: want 2 fields, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &h.Name); err != nil {
		return fmt.Errorf("hop name: %w", err)
	}
	if err := json.Unmarshal(pair[1], &h.Security); err != nil {
		return fmt.Errorf("hop security: %w", err)
	}
	return nil
}

func (h Hop) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{h.Name, h.Security})
}

// HubRoute is the ordered list of hops from a system to one trade hub.
type HubRoute struct {
	Hub  string
	Hops []Hop
}

// Routes keeps trade-hub routes in the order the server listed them; the
// wire form is a JSON object and Go maps would lose that order.
type Routes []HubRoute

func (r *Routes) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("jumps: %w", err)
	}
	if tok == nil {
		*r = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("jumps: want object, got %v", tok)
	}
	var out Routes
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("jumps: %w", err)
		}
		hub, _ := keyTok.(string)
		var hops []Hop
		if err := dec.Decode(&hops); err != nil {
			return fmt.Errorf("jumps %s: %w", hub, err)
		}
		out = append(out, HubRoute{Hub: hub, Hops: hops})
	}
	*r = out
	return nil
}

func (r Routes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, route := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(route.Hub)
		buf.Write(key)
		buf.WriteByte(':')
		hops := route.Hops
		if hops == nil {
			hops = []Hop{}
		}
		val, err := json.Marshal(hops)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Edge holds the attributes of the connection from a system's parent to it.
type Edge struct {
	EOL      bool
	Mass     Mass
	Stargate bool
	Frigate  bool
	To       string // signature id on the parent side
	From     string // signature id on the child side
}

// System is one node of the map. Tree structure is held by name: Parent is
// empty for roots and Children keeps the server's connection order.
type System struct {
	Name       string
	Class      Class
	Effect     string
	Region     string
	Static1    *Static
	Static2    *Static
	Signatures []Signature
	Jumps      Routes

	Edge     Edge
	Parent   string
	Children []string
}

// IsRoot reports whether the system has no parent edge.
func (s *System) IsRoot() bool {
	return s.Parent == ""
}

// Statics returns the non-nil statics in order.
func (s *System) Statics() []Static {
	var out []Static
	if s.Static1 != nil {
		out = append(out, *s.Static1)
	}
	if s.Static2 != nil {
		out = append(out, *s.Static2)
	}
	return out
}

// Signature returns the signature with the given id.
func (s *System) Signature(id string) (*Signature, bool) {
	for i := range s.Signatures {
		if s.Signatures[i].ID == id {
			return &s.Signatures[i], true
		}
	}
	return nil, false
}
