// Package session owns the client state: the current map snapshot, its
// layout, the selection, the autocomplete list, the add form and the notice
// queue. All methods run on one goroutine; the channel only feeds lines in.
package session

import (
	"context"
	"errors"
	"fmt"

	"eve-chainmap/internal/autocomplete"
	"eve-chainmap/internal/channel"
	"eve-chainmap/internal/layout"
	"eve-chainmap/internal/logger"
	"eve-chainmap/internal/model"
	"eve-chainmap/internal/protocol"
	"eve-chainmap/internal/selection"
)

// Conn is the outbound half of a channel.
type Conn interface {
	protocol.Sender
	Close() error
}

// Session is the single explicit state of one connected client.
type Session struct {
	conn   Conn
	engine *layout.Engine

	OriginX, OriginY float64

	m      *model.Map
	result layout.Result
	hasMap bool
	failed bool

	Auto    *autocomplete.Controller
	Panel   *selection.Panel
	Form    AddForm
	Notices Notices
}

// New creates a session sending through conn and laying out with engine.
func New(conn Conn, engine *layout.Engine) *Session {
	if engine == nil {
		engine = layout.New(true)
	}
	return &Session{
		conn:    conn,
		engine:  engine,
		OriginX: layout.OriginX,
		OriginY: layout.OriginY,
		m:       model.NewMap(),
		Auto:    autocomplete.New(conn),
		Panel:   selection.New(conn),
	}
}

// Handle dispatches one inbound line. Unknown verbs and undecodable
// payloads are logged and dropped.
func (s *Session) Handle(line string) {
	if s.failed {
		return
	}
	msg, err := protocol.DecodeInbound(line)
	if err != nil {
		logger.Warn("DISPATCH", fmt.Sprintf("Dropped malformed frame: %v", err))
		return
	}
	switch m := msg.(type) {
	case protocol.MapMessage:
		s.applyMap(m.Map)
	case protocol.SystemsMessage:
		if !s.Auto.Receive(m.Names) {
			logger.Info("DISPATCH", fmt.Sprintf("Ignored stale SYS reply (%d names)", len(m.Names)))
		}
	case protocol.ErrorMessage:
		logger.Warn("SERVER", m.Text)
		s.Notices.Push(m.Text)
	case protocol.UnknownMessage:
		logger.Warn("DISPATCH", fmt.Sprintf("Unhandled verb %q", m.Verb))
	default:
		logger.Warn("DISPATCH", fmt.Sprintf("Unhandled message %T", msg))
	}
}

func (s *Session) applyMap(m *model.Map) {
	s.m = m
	s.hasMap = true
	s.result = s.engine.Layout(m, s.OriginX, s.OriginY)
	s.Panel.Refresh(m)
	logger.Info("MAP", fmt.Sprintf("%d systems, %d rows x %d cols", m.Len(), s.result.Rows, s.result.Cols))
}

// Fail ends the session after a transport failure: one fatal notice, the
// channel closed, nothing handled afterwards.
func (s *Session) Fail(err error) {
	if s.failed {
		return
	}
	s.failed = true
	text := "connection lost"
	if err != nil {
		text = fmt.Sprintf("connection lost: %v", err)
	}
	s.Notices.Raise(text)
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *Session) Failed() bool           { return s.failed }
func (s *Session) Map() *model.Map        { return s.m }
func (s *Session) Layout() *layout.Result { return &s.result }
func (s *Session) Engine() *layout.Engine { return s.engine }

// HasMap reports whether any MAP has arrived yet.
func (s *Session) HasMap() bool { return s.hasMap }

// Empty reports the empty state: no systems, so only the add form is offered.
func (s *Session) Empty() bool { return s.m.Len() == 0 }

// report turns an action error into a dismissible notice.
func (s *Session) report(err error) error {
	if err == nil || errors.Is(err, selection.ErrConfirmRequired) {
		return err
	}
	if errors.Is(err, channel.ErrClosed) && s.failed {
		return err
	}
	s.Notices.Push(err.Error())
	return err
}

func (s *Session) act(fn func() error) error {
	if s.failed {
		return channel.ErrClosed
	}
	return s.report(fn())
}

// Select focuses a system and makes it the add form's source.
func (s *Session) Select(name string) error {
	return s.act(func() error {
		if _, err := s.Panel.Select(s.m, name); err != nil {
			return err
		}
		s.Form.Src = name
		return nil
	})
}

// SelectAt focuses the system drawn at surface coordinates (x, y).
func (s *Session) SelectAt(x, y float64) bool {
	name, ok := s.result.HitTest(x, y, s.engine.NodeWidth, s.engine.RowHeight)
	if !ok {
		return false
	}
	return s.Select(name) == nil
}

// TypeDest updates the destination input and queries suggestions.
func (s *Session) TypeDest(text string) error {
	s.Form.Dest = text
	return s.act(func() error { return s.Auto.Input(text) })
}

// AcceptSuggestion commits the highlighted suggestion. It reports false
// when no list was showing.
func (s *Session) AcceptSuggestion() bool {
	if !s.Auto.Enter() {
		return false
	}
	s.Form.Dest = s.Auto.Text()
	return true
}

// SubmitAdd validates and sends the add form.
func (s *Session) SubmitAdd() error {
	return s.act(func() error {
		if err := s.Form.Submit(s.conn); err != nil {
			return err
		}
		s.Auto.Reset()
		return nil
	})
}

// Delete removes the selection. For the home system it only arms a
// confirmation, reported as selection.ErrConfirmRequired.
func (s *Session) Delete() error {
	return s.act(func() error {
		if err := s.Panel.Delete(); err != nil {
			return err
		}
		s.afterDelete()
		return nil
	})
}

func (s *Session) ConfirmDelete() error {
	return s.act(func() error {
		if err := s.Panel.ConfirmDelete(); err != nil {
			return err
		}
		s.afterDelete()
		return nil
	})
}

func (s *Session) afterDelete() {
	s.Form.Src = ""
	s.Auto.Blur()
}

func (s *Session) CancelDelete() { s.Panel.CancelDelete() }

func (s *Session) Detach() error { return s.act(s.Panel.Detach) }

func (s *Session) ToggleEOL(child string) error {
	return s.act(func() error { return s.Panel.ToggleEOL(child) })
}

func (s *Session) ToggleReduced(child string) error {
	return s.act(func() error { return s.Panel.ToggleReduced(child) })
}

func (s *Session) ToggleCritical(child string) error {
	return s.act(func() error { return s.Panel.ToggleCritical(child) })
}

func (s *Session) ToggleFrigate(child string) error {
	return s.act(func() error { return s.Panel.ToggleFrigate(child) })
}

func (s *Session) PasteSignatures(text string, replace bool) error {
	return s.act(func() error { return s.Panel.PasteSignatures(text, replace) })
}

func (s *Session) RenameNote(id, note string) error {
	return s.act(func() error { return s.Panel.RenameNote(id, note) })
}

func (s *Session) DeleteSignature(id string) error {
	return s.act(func() error { return s.Panel.DeleteSignature(id) })
}

func (s *Session) DeleteAllSignatures() error {
	return s.act(s.Panel.DeleteAllSignatures)
}

// Run feeds ch into the session until the context ends or the channel
// fails. update is called after every handled event and may be nil.
func (s *Session) Run(ctx context.Context, ch channel.Channel, update func(*Session)) error {
	for {
		select {
		case <-ctx.Done():
			ch.Close()
			return ctx.Err()
		case line := <-ch.Lines():
			s.Handle(line)
		case err := <-ch.Failures():
			for _, line := range channel.Pending(ch) {
				s.Handle(line)
			}
			s.Fail(err)
			if update != nil {
				update(s)
			}
			return err
		}
		if update != nil {
			update(s)
		}
	}
}
