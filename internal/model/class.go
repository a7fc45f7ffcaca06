package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Class is the security class of a system: one of the k-space bands, "home"
// for the chain root, or a wormhole class "1".."6".
type Class string

const (
	ClassHome    Class = "home"
	ClassHighsec Class = "highsec"
	ClassLowsec  Class = "lowsec"
	ClassNullsec Class = "nullsec"
)

// WormholeClass returns the numeric class (1..6) for w-space systems.
func (c Class) WormholeClass() (int, bool) {
	n, err := strconv.Atoi(string(c))
	if err != nil || n < 1 || n > 6 {
		return 0, false
	}
	return n, true
}

// Label is the short text drawn under the system name: "C3" for w-space,
// the class itself otherwise.
func (c Class) Label() string {
	if n, ok := c.WormholeClass(); ok {
		return "C" + strconv.Itoa(n)
	}
	return string(c)
}

// UnmarshalJSON accepts both the string form ("home", "3") and the bare
// numeric form (3) the server emits for w-space classes.
func (c *Class) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Class(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("class: %w", err)
	}
	*c = Class(n.String())
	return nil
}

// MarshalJSON writes w-space classes as numbers, everything else as strings.
func (c Class) MarshalJSON() ([]byte, error) {
	if n, ok := c.WormholeClass(); ok {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(string(c))
}

// IsWormholeDesignation reports whether name looks like a J-space system
// designation: a J followed by digits only.
func IsWormholeDesignation(name string) bool {
	if len(name) < 2 || (name[0] != 'J' && name[0] != 'j') {
		return false
	}
	for i := 1; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}
	return true
}
