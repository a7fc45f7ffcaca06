package api

import (
	"context"
	"errors"
	"fmt"

	"eve-chainmap/internal/chain"
	"eve-chainmap/internal/logger"
	"eve-chainmap/internal/model"
	"eve-chainmap/internal/protocol"
)

// reply is the outcome of one command: a line for the sender, and whether
// the line is a new map already sent to every greeted socket.
type reply struct {
	line      string
	broadcast bool
}

func errorReply(err error) reply {
	var ue *chain.UpdateError
	if errors.As(err, &ue) {
		return reply{line: protocol.EncodeError(ue.Message)}
	}
	return reply{line: protocol.EncodeError(err.Error())}
}

// dispatch runs one client command on behalf of username.
func (s *Server) dispatch(ctx context.Context, username string, cmd protocol.Command) reply {
	switch cmd.Verb {
	case protocol.VerbHelo:
		return s.snapshot()
	case protocol.VerbSystems:
		names, err := s.db.Autocomplete(cmd.Args, s.cfg.AutocompleteLimit)
		if err != nil {
			logger.Error("DB", fmt.Sprintf("Autocomplete %q: %v", cmd.Args, err))
			names = nil
		}
		return reply{line: protocol.EncodeSystems(names)}
	case protocol.VerbAdd:
		req, err := protocol.ParseAdd(cmd.Args)
		if err != nil {
			return errorReply(err)
		}
		sys, err := s.resolve(ctx, req)
		if err != nil {
			return errorReply(err)
		}
		return s.mutate(username, func(c *chain.Chain) ([]string, error) { return c.Add(sys, req.Src) })
	case protocol.VerbDelete:
		return s.mutate(username, func(c *chain.Chain) ([]string, error) { return c.Delete(cmd.Args) })
	case protocol.VerbDetach:
		return s.mutate(username, func(c *chain.Chain) ([]string, error) { return c.Detach(cmd.Args) })
	case protocol.VerbEOL, protocol.VerbReduced, protocol.VerbCritical, protocol.VerbFrigate:
		from, to, err := protocol.ParseEdge(cmd.Args)
		if err != nil {
			return errorReply(err)
		}
		return s.mutate(username, func(c *chain.Chain) ([]string, error) {
			switch cmd.Verb {
			case protocol.VerbEOL:
				return c.ToggleEOL(from, to)
			case protocol.VerbReduced:
				return c.ToggleReduced(from, to)
			case protocol.VerbCritical:
				return c.ToggleCritical(from, to)
			default:
				return c.ToggleFrigate(from, to)
			}
		})
	case protocol.VerbSigs:
		name, action, bulk, err := protocol.ParseSignatures(cmd.Args)
		if err != nil {
			return errorReply(err)
		}
		scan := protocol.ParseScanResults(bulk)
		if len(scan) == 0 {
			// Nothing recognisable was pasted; the map is unchanged.
			return s.snapshot()
		}
		return s.mutate(username, func(c *chain.Chain) ([]string, error) {
			return nil, c.UpdateSignatures(name, action == protocol.SigsReplace, scan)
		})
	case protocol.VerbDelSig:
		name, id, err := protocol.ParseDeleteSignature(cmd.Args)
		if err != nil {
			return errorReply(err)
		}
		return s.mutate(username, func(c *chain.Chain) ([]string, error) { return nil, c.DeleteSignature(name, id) })
	case protocol.VerbSigNote:
		name, id, note, err := protocol.ParseSignatureNote(cmd.Args)
		if err != nil {
			return errorReply(err)
		}
		return s.mutate(username, func(c *chain.Chain) ([]string, error) { return nil, c.SetSignatureNote(name, id, note) })
	default:
		logger.Warn("MAP", fmt.Sprintf("Unhandled verb %q from %s", cmd.Verb, username))
		return reply{}
	}
}

// mutate applies fn under the map lock, records its log lines and
// broadcasts the new map. Broadcasting under the lock keeps every socket
// seeing snapshots in mutation order.
func (s *Server) mutate(username string, fn func(*chain.Chain) ([]string, error)) reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs, err := fn(s.chain)
	if err != nil {
		return errorReply(err)
	}
	for _, msg := range logs {
		logger.Info("MAP", username+" "+msg)
		if s.db == nil {
			continue
		}
		if _, err := s.db.LogAction(username, msg); err != nil {
			logger.Error("DB", fmt.Sprintf("Log action: %v", err))
		}
	}
	line, err := protocol.EncodeMap(s.chain.Map())
	if err != nil {
		logger.Error("MAP", err.Error())
		return errorReply(err)
	}
	s.broadcast(line)
	return reply{line: line, broadcast: true}
}

// snapshot returns the current map for the sender only.
func (s *Server) snapshot() reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, err := protocol.EncodeMap(s.chain.Map())
	if err != nil {
		return errorReply(err)
	}
	return reply{line: line}
}

// SetMap replaces the chain, e.g. with a map loaded at startup.
func (s *Server) SetMap(m *model.Map) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chain = chain.Load(m)
}
