// Package chain applies the server-side map mutations. Each operation
// edits the map in place and returns the action-log lines it produced;
// callers serialise access.
package chain

import (
	"fmt"

	"eve-chainmap/internal/model"
)

// UpdateError is a rejected mutation. Message is shown to the user as-is.
type UpdateError struct {
	Message string
}

func (e *UpdateError) Error() string { return e.Message }

func updateError(msg string) error { return &UpdateError{Message: msg} }

// Chain owns one map.
type Chain struct {
	m *model.Map
}

// New returns an empty chain.
func New() *Chain {
	return &Chain{m: model.NewMap()}
}

// Load wraps an existing map.
func Load(m *model.Map) *Chain {
	if m == nil {
		m = model.NewMap()
	}
	return &Chain{m: m}
}

// Map returns the live map. It must not be modified outside this package.
func (c *Chain) Map() *model.Map { return c.m }

// Add inserts s under src, or as a new root when src is empty. The system
// must already carry its reference data; new edges start out stable.
func (c *Chain) Add(s *model.System, src string) ([]string, error) {
	if _, dup := c.m.System(s.Name); dup {
		return nil, updateError("src system already exists!")
	}
	s.Edge.Mass = model.MassStable
	if src == "" {
		if err := c.m.AddRoot(s); err != nil {
			return nil, updateError(err.Error())
		}
		return []string{"added new root system " + s.Name}, nil
	}
	if _, ok := c.m.System(src); !ok {
		return nil, updateError("src system not found")
	}
	if err := c.m.AddChild(src, s); err != nil {
		return nil, updateError(err.Error())
	}
	return []string{fmt.Sprintf("added system %s connected to %s", s.Name, src)}, nil
}

// Delete removes a system and everything connected below it.
func (c *Chain) Delete(name string) ([]string, error) {
	removed := c.m.Remove(name)
	if len(removed) == 0 {
		return nil, updateError("system not found")
	}
	logs := make([]string, 0, len(removed))
	for _, s := range removed {
		logs = append(logs, "deleted system "+s.Name)
	}
	return logs, nil
}

// Detach cuts a connected system loose so its subtree becomes a new root.
// Roots cannot be detached.
func (c *Chain) Detach(name string) ([]string, error) {
	s, ok := c.m.Detach(name)
	if !ok {
		return nil, updateError("system not found")
	}
	return []string{"detached system " + s.Name}, nil
}

// edge finds the connection src -> dest.
func (c *Chain) edge(src, dest string) (*model.System, error) {
	s, ok := c.m.System(dest)
	if !ok || s.IsRoot() || s.Parent != src {
		return nil, updateError("system not found")
	}
	return s, nil
}

// ToggleEOL flips the end-of-life flag of src -> dest.
func (c *Chain) ToggleEOL(src, dest string) ([]string, error) {
	s, err := c.edge(src, dest)
	if err != nil {
		return nil, err
	}
	s.Edge.EOL = !s.Edge.EOL
	if s.Edge.EOL {
		return []string{fmt.Sprintf("set %s to EoL", s.Name)}, nil
	}
	return []string{fmt.Sprintf("reverted %s to not EoL", s.Name)}, nil
}

// ToggleReduced flips src -> dest between reduced and stable mass.
func (c *Chain) ToggleReduced(src, dest string) ([]string, error) {
	return c.toggleMass(src, dest, model.MassReduced)
}

// ToggleCritical flips src -> dest between critical and stable mass.
func (c *Chain) ToggleCritical(src, dest string) ([]string, error) {
	return c.toggleMass(src, dest, model.MassCritical)
}

func (c *Chain) toggleMass(src, dest string, mass model.Mass) ([]string, error) {
	s, err := c.edge(src, dest)
	if err != nil {
		return nil, err
	}
	if s.Edge.Mass == mass {
		s.Edge.Mass = model.MassStable
		return []string{fmt.Sprintf("reverted %s to %s", s.Name, model.MassStable)}, nil
	}
	s.Edge.Mass = mass
	return []string{fmt.Sprintf("set %s to %s", s.Name, mass)}, nil
}

// ToggleFrigate flips the frigate-only flag of src -> dest.
func (c *Chain) ToggleFrigate(src, dest string) ([]string, error) {
	s, err := c.edge(src, dest)
	if err != nil {
		return nil, err
	}
	s.Edge.Frigate = !s.Edge.Frigate
	if s.Edge.Frigate {
		return []string{fmt.Sprintf("set %s as frigate only", s.Name)}, nil
	}
	return []string{fmt.Sprintf("set %s as not frigate only", s.Name)}, nil
}
