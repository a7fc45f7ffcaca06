package session

import (
	"errors"
	"strings"

	"eve-chainmap/internal/protocol"
)

// ErrNoDestination rejects an add without a system name.
var ErrNoDestination = errors.New("you didn't specify a system name")

// AddForm is the "add system" form. Src is filled in when a system is
// selected; an empty Src adds a new tree.
type AddForm struct {
	Src     string
	Dest    string
	To      string // signature id on the source side
	From    string // signature id on the new system's side
	EOL     bool
	Frigate bool
}

// Request builds the ADD payload, failing when no destination is given.
func (f *AddForm) Request() (protocol.AddRequest, error) {
	dest := strings.TrimSpace(f.Dest)
	if dest == "" {
		return protocol.AddRequest{}, ErrNoDestination
	}
	return protocol.AddRequest{
		Src:     strings.TrimSpace(f.Src),
		Dest:    dest,
		To:      strings.TrimSpace(f.To),
		From:    strings.TrimSpace(f.From),
		EOL:     f.EOL,
		Frigate: f.Frigate,
	}, nil
}

// Submit sends ADD and clears the text fields and the EoL flag. Src and
// Frigate stay so several systems can be added in a row.
func (f *AddForm) Submit(s protocol.Sender) error {
	req, err := f.Request()
	if err != nil {
		return err
	}
	cmd, err := protocol.Add(req)
	if err != nil {
		return err
	}
	if err := cmd.SendTo(s); err != nil {
		return err
	}
	f.Dest, f.To, f.From = "", "", ""
	f.EOL = false
	return nil
}
