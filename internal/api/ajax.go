package api

import (
	"fmt"
	"net/http"
	"strings"

	"eve-chainmap/internal/protocol"
)

// anonymous is the log name used when the server runs without a cookie secret.
const anonymous = "anonymous"

// authenticate reads the username from the HELO payload, falling back to
// the request's Cookie header.
func (s *Server) authenticate(helo, header string) (string, error) {
	if s.signer == nil {
		return anonymous, nil
	}
	raw := strings.TrimSpace(helo)
	if raw == "" {
		raw = header
	}
	return s.signer.FromHeader(raw)
}

// handleAJAX serves the polling fallback: one command per request, the
// reply line returned as a JSON string. Map changes still reach every
// WebSocket client.
func (s *Server) handleAJAX(w http.ResponseWriter, r *http.Request) {
	name, err := s.authenticate("", r.Header.Get("Cookie"))
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	cmd := protocol.Command{
		Verb: protocol.Verb(r.PathValue("verb")),
		Args: r.URL.Query().Get("args"),
	}
	res := s.dispatch(r.Context(), name, cmd)
	if res.line == "" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unhandled verb %q", cmd.Verb))
		return
	}
	writeJSON(w, res.line)
}
