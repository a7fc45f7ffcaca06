// Package autocomplete drives the destination-name suggestion list. Queries
// go out as SYS requests; replies are matched to the live input only by
// prefix, because the protocol carries no request id.
package autocomplete

import (
	"strings"
	"unicode/utf8"

	"eve-chainmap/internal/model"
	"eve-chainmap/internal/protocol"
)

// MinQueryLen is the shortest input that triggers a lookup.
const MinQueryLen = 2

// Controller holds the input text, the last query sent and the visible list.
type Controller struct {
	sender protocol.Sender

	text        string
	pending     string
	suggestions []string
	selected    int
	visible     bool
}

func New(s protocol.Sender) *Controller {
	return &Controller{sender: s}
}

// Input records a change of the input text. Any visible list is hidden;
// a lookup is sent unless the text is too short or names a wormhole.
func (c *Controller) Input(text string) error {
	c.text = text
	c.hide()
	if utf8.RuneCountInString(text) < MinQueryLen || model.IsWormholeDesignation(text) {
		return nil
	}
	c.pending = text
	return protocol.Systems(text).SendTo(c.sender)
}

// Receive offers a SYS reply. It is accepted when the live input matches,
// case-insensitively, the same-length prefix of the first candidate;
// anything else is stale and dropped.
func (c *Controller) Receive(names []string) bool {
	if len(names) == 0 || !matchesPrefix(c.text, names[0]) {
		return false
	}
	c.suggestions = append(c.suggestions[:0], names...)
	c.selected = 0
	c.visible = true
	return true
}

func matchesPrefix(input, candidate string) bool {
	n := utf8.RuneCountInString(input)
	r := []rune(candidate)
	if len(r) < n {
		return false
	}
	return strings.EqualFold(input, string(r[:n]))
}

// Down moves the selection one entry down, stopping at the last.
func (c *Controller) Down() {
	if c.visible && c.selected < len(c.suggestions)-1 {
		c.selected++
	}
}

// Up moves the selection one entry up, stopping at the first.
func (c *Controller) Up() {
	if c.visible && c.selected > 0 {
		c.selected--
	}
}

// Enter commits the selected suggestion into the input. It reports false
// when no list was showing, so the caller can treat the key as a submit.
func (c *Controller) Enter() bool {
	if !c.visible {
		return false
	}
	c.text = c.suggestions[c.selected]
	c.hide()
	return true
}

// Blur hides the list when the input loses focus.
func (c *Controller) Blur() { c.hide() }

// Reset clears the input along with the list.
func (c *Controller) Reset() {
	c.text = ""
	c.pending = ""
	c.hide()
}

func (c *Controller) hide() {
	c.visible = false
	c.suggestions = c.suggestions[:0]
	c.selected = 0
}

func (c *Controller) Text() string    { return c.text }
func (c *Controller) Pending() string { return c.pending }
func (c *Controller) Visible() bool   { return c.visible }
func (c *Controller) Selected() int   { return c.selected }

// Suggestions returns the visible list, or nil when hidden.
func (c *Controller) Suggestions() []string {
	if !c.visible {
		return nil
	}
	return append([]string(nil), c.suggestions...)
}
