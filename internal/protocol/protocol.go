// Package protocol implements the line-oriented map protocol: every frame is
// "<VERB> <payload>", split on the first space.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"eve-chainmap/internal/model"
)

// Verb is the first word of a protocol line.
type Verb string

// Inbound verbs (server -> client).
const (
	VerbMap     Verb = "MAP"
	VerbSystems Verb = "SYS"
	VerbError   Verb = "ERR"
)

// Outbound verbs (client -> server). SYS is shared with the reply.
const (
	VerbHelo     Verb = "HELO"
	VerbAdd      Verb = "ADD"
	VerbDelete   Verb = "DELETE"
	VerbDetach   Verb = "DETACH"
	VerbEOL      Verb = "EOL"
	VerbReduced  Verb = "REDUCED"
	VerbCritical Verb = "CRITICAL"
	VerbFrigate  Verb = "FRIGATE"
	VerbSigs     Verb = "SIGS"
	VerbDelSig   Verb = "DELSIG"
	VerbSigNote  Verb = "SIGNOTE"
)

// SplitLine splits a frame at the first space. A line without a space is
// all verb with an empty payload.
func SplitLine(line string) (Verb, string) {
	verb, payload, _ := strings.Cut(line, " ")
	return Verb(verb), payload
}

// JoinLine is the inverse of SplitLine.
func JoinLine(verb Verb, payload string) string {
	return string(verb) + " " + payload
}

// Inbound is one decoded server frame. The concrete types are MapMessage,
// SystemsMessage, ErrorMessage and UnknownMessage.
type Inbound interface {
	inbound()
}

// MapMessage carries a full map snapshot.
type MapMessage struct {
	Map *model.Map
}

// SystemsMessage carries autocomplete candidates for a SYS query.
type SystemsMessage struct {
	Names []string
}

// ErrorMessage is a server-reported application error, shown verbatim.
type ErrorMessage struct {
	Text string
}

// UnknownMessage is any frame whose verb this client does not handle.
type UnknownMessage struct {
	Verb    Verb
	Payload string
}

func (MapMessage) inbound()     {}
func (SystemsMessage) inbound() {}
func (ErrorMessage) inbound()   {}
func (UnknownMessage) inbound() {}

// DecodeInbound parses one server frame. Unknown verbs are not an error;
// a known verb with an undecodable payload is.
func DecodeInbound(line string) (Inbound, error) {
	verb, payload := SplitLine(line)
	switch verb {
	case VerbMap:
		m, err := model.DecodeMap([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("MAP: %w", err)
		}
		return MapMessage{Map: m}, nil
	case VerbSystems:
		var names []string
		if err := json.Unmarshal([]byte(payload), &names); err != nil {
			return nil, fmt.Errorf("SYS: %w", err)
		}
		return SystemsMessage{Names: names}, nil
	case VerbError:
		return ErrorMessage{Text: payload}, nil
	default:
		return UnknownMessage{Verb: verb, Payload: payload}, nil
	}
}

// EncodeMap builds a MAP frame.
func EncodeMap(m *model.Map) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode map: %w", err)
	}
	return JoinLine(VerbMap, string(b)), nil
}

// EncodeSystems builds a SYS reply frame.
func EncodeSystems(names []string) string {
	if names == nil {
		names = []string{}
	}
	b, _ := json.Marshal(names)
	return JoinLine(VerbSystems, string(b))
}

// EncodeError builds an ERR frame.
func EncodeError(text string) string {
	return JoinLine(VerbError, text)
}
