package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Command is one outbound request.
type Command struct {
	Verb Verb
	Args string
}

// Line renders the command as a protocol frame.
func (c Command) Line() string {
	return JoinLine(c.Verb, c.Args)
}

// Sender accepts outbound commands. channel.Channel satisfies it.
type Sender interface {
	Send(verb, args string) error
}

// SendTo hands the command to s.
func (c Command) SendTo(s Sender) error {
	return s.Send(string(c.Verb), c.Args)
}

// AddRequest is the payload of ADD. An empty Src adds a new root.
type AddRequest struct {
	Src     string `json:"src,omitempty"`
	Dest    string `json:"dest"`
	To      string `json:"to,omitempty"`
	From    string `json:"from,omitempty"`
	EOL     bool   `json:"eol"`
	Frigate bool   `json:"frigate"`
}

// SigAction selects how a pasted scan merges with existing signatures.
type SigAction string

const (
	SigsAdd     SigAction = "add"
	SigsReplace SigAction = "replace"
)

func Helo(cookie string) Command { return Command{VerbHelo, cookie} }

func Add(req AddRequest) (Command, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return Command{}, fmt.Errorf("encode ADD: %w", err)
	}
	return Command{VerbAdd, string(b)}, nil
}

func Delete(name string) Command { return Command{VerbDelete, name} }
func Detach(name string) Command { return Command{VerbDetach, name} }

func ToggleEOL(from, to string) Command      { return Command{VerbEOL, from + " " + to} }
func ToggleReduced(from, to string) Command  { return Command{VerbReduced, from + " " + to} }
func ToggleCritical(from, to string) Command { return Command{VerbCritical, from + " " + to} }
func ToggleFrigate(from, to string) Command  { return Command{VerbFrigate, from + " " + to} }

// Signatures uploads a pasted probe-scanner dump for a system.
func Signatures(name string, action SigAction, bulk string) Command {
	return Command{VerbSigs, name + " " + string(action) + "\n" + bulk}
}

// DeleteSignature removes one signature; an empty id removes all of them.
func DeleteSignature(name, id string) Command {
	if id == "" {
		return Command{VerbDelSig, name}
	}
	return Command{VerbDelSig, name + " " + id}
}

func SignatureNote(name, id, note string) Command {
	return Command{VerbSigNote, name + "\n" + id + "\n" + note}
}

func Systems(partial string) Command { return Command{VerbSystems, partial} }

// ParseCommand splits an outbound frame back into a command (server side).
func ParseCommand(line string) Command {
	verb, args := SplitLine(line)
	return Command{Verb: verb, Args: args}
}

// ParseAdd decodes an ADD payload. Dest is required.
func ParseAdd(args string) (AddRequest, error) {
	var req AddRequest
	if err := json.Unmarshal([]byte(args), &req); err != nil {
		return req, fmt.Errorf("ADD: %w", err)
	}
	if strings.TrimSpace(req.Dest) == "" {
		return req, fmt.Errorf("ADD: missing dest")
	}
	return req, nil
}

// ParseEdge splits "<from> <to>" for the edge toggles. System names may
// contain spaces only in the second position.
func ParseEdge(args string) (from, to string, err error) {
	from, to, ok := strings.Cut(args, " ")
	if !ok || from == "" || to == "" {
		return "", "", fmt.Errorf("want \"<from> <to>\", got %q", args)
	}
	return from, to, nil
}

// ParseSignatures splits "<name> <add|replace>\n<bulk>". The action is the
// last word of the header so names with spaces survive.
func ParseSignatures(args string) (name string, action SigAction, bulk string, err error) {
	header, bulk, _ := strings.Cut(args, "\n")
	i := strings.LastIndexByte(header, ' ')
	if i <= 0 {
		return "", "", "", fmt.Errorf("SIGS: bad header %q", header)
	}
	name, action = header[:i], SigAction(header[i+1:])
	if action != SigsAdd && action != SigsReplace {
		return "", "", "", fmt.Errorf("invalid signature update action")
	}
	return name, action, bulk, nil
}

// ParseDeleteSignature splits "<name> [<id>]".
func ParseDeleteSignature(args string) (name, id string, err error) {
	fields := strings.Fields(args)
	switch len(fields) {
	case 1:
		return fields[0], "", nil
	case 2:
		return fields[0], fields[1], nil
	default:
		return "", "", fmt.Errorf("DELSIG: want \"<name> [<id>]\", got %q", args)
	}
}

// ParseSignatureNote splits "<name>\n<id>\n<note>".
func ParseSignatureNote(args string) (name, id, note string, err error) {
	parts := strings.SplitN(args, "\n", 3)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("SIGNOTE: want 3 lines, got %d", len(parts))
	}
	return parts[0], parts[1], parts[2], nil
}
