package chain

import "eve-chainmap/internal/model"

func (c *Chain) system(name string) (*model.System, error) {
	s, ok := c.m.System(name)
	if !ok {
		return nil, updateError("system not found")
	}
	return s, nil
}

// UpdateSignatures merges a fresh scan into a system's signatures.
// An existing id keeps its entry unless the new signal is at least as
// strong, and always keeps its note. With replace, ids missing from the
// scan are dropped. New ids are appended in scan order with no note.
func (c *Chain) UpdateSignatures(name string, replace bool, scan []model.Signature) error {
	s, err := c.system(name)
	if err != nil {
		return err
	}
	fresh := make(map[string]model.Signature, len(scan))
	for _, sig := range scan {
		fresh[sig.ID] = sig
	}

	merged := make([]model.Signature, 0, len(s.Signatures)+len(scan))
	for _, old := range s.Signatures {
		sig, ok := fresh[old.ID]
		switch {
		case ok && sig.Signal >= old.Signal:
			sig.Note = old.Note
			merged = append(merged, sig)
		case ok, !replace:
			merged = append(merged, old)
		}
		delete(fresh, old.ID)
	}
	for _, sig := range scan {
		if _, pending := fresh[sig.ID]; !pending {
			continue
		}
		sig.Note = ""
		merged = append(merged, sig)
		delete(fresh, sig.ID)
	}
	s.Signatures = merged
	return nil
}

// DeleteSignature removes one signature, or all of them when id is empty.
func (c *Chain) DeleteSignature(name, id string) error {
	s, err := c.system(name)
	if err != nil {
		return err
	}
	if id == "" {
		s.Signatures = nil
		return nil
	}
	for i := range s.Signatures {
		if s.Signatures[i].ID == id {
			s.Signatures = append(s.Signatures[:i:i], s.Signatures[i+1:]...)
			return nil
		}
	}
	return updateError("sig id not found")
}

// SetSignatureNote sets the note of one signature. An unknown id is
// ignored; an unknown system is not.
func (c *Chain) SetSignatureNote(name, id, note string) error {
	s, err := c.system(name)
	if err != nil {
		return err
	}
	if sig, ok := s.Signature(id); ok {
		sig.Note = note
	}
	return nil
}
