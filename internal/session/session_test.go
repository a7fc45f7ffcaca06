package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"eve-chainmap/internal/logger"
	"eve-chainmap/internal/selection"
)

type fakeConn struct {
	sent     []string
	closed   bool
	lines    chan string
	failures chan error
}

func newFakeConn() *fakeConn {
	return &fakeConn{lines: make(chan string, 8), failures: make(chan error, 1)}
}

func (f *fakeConn) Open(ctx context.Context) error { return nil }
func (f *fakeConn) Send(verb, args string) error {
	f.sent = append(f.sent, verb+" "+args)
	return nil
}
func (f *fakeConn) Lines() <-chan string   { return f.lines }
func (f *fakeConn) Failures() <-chan error { return f.failures }
func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(nil) })
	return &buf
}

const endToEnd = `MAP [{"name":"J100000","class":"home","connections":[{"name":"J100001","class":3,"eol":true}]}]`

func TestHandle_MapEndToEnd(t *testing.T) {
	captureLog(t)
	s := New(newFakeConn(), nil)
	s.Handle(endToEnd)

	res := s.Layout()
	if len(res.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(res.Nodes))
	}
	if len(res.Edges) != 1 || !res.Edges[0].EOL {
		t.Fatalf("edges = %+v, want one eol edge", res.Edges)
	}
	if res.Rows != 1 || res.Cols != 2 {
		t.Errorf("rows/cols = %d/%d, want 1/2", res.Rows, res.Cols)
	}
	if s.Empty() {
		t.Error("Empty = true after a two-system map")
	}
}

func TestHandle_EmptyForest(t *testing.T) {
	captureLog(t)
	s := New(newFakeConn(), nil)
	s.Handle(endToEnd)
	s.Handle("MAP []")
	if !s.Empty() || !s.Layout().Empty() {
		t.Error("MAP [] should give the empty state")
	}
	if !s.HasMap() {
		t.Error("HasMap = false after MAP")
	}
}

func TestHandle_MapReplacesLayout(t *testing.T) {
	captureLog(t)
	s := New(newFakeConn(), nil)
	s.Handle(endToEnd)
	s.Handle(`MAP {"name":"Jita","class":"highsec"}`)
	if _, ok := s.Layout().Node("J100000"); ok {
		t.Error("old node survived a new MAP")
	}
	if _, ok := s.Layout().Node("Jita"); !ok {
		t.Error("new node missing")
	}
}

func TestHandle_UnknownAndMalformedDropped(t *testing.T) {
	buf := captureLog(t)
	s := New(newFakeConn(), nil)
	s.Handle(endToEnd)
	s.Handle("PING hello")
	s.Handle("MAP {not json")
	s.Handle("SYS oops")
	if s.Failed() {
		t.Error("bad frames must not end the session")
	}
	if _, ok := s.Layout().Node("J100001"); !ok {
		t.Error("malformed MAP replaced the layout")
	}
	out := buf.String()
	if !strings.Contains(out, "Unhandled verb") || !strings.Contains(out, "malformed") {
		t.Errorf("log = %q, want diagnostics", out)
	}
	if s.Notices.Len() != 0 {
		t.Errorf("notices = %d, want 0", s.Notices.Len())
	}
}

func TestHandle_ErrIsDismissibleNotice(t *testing.T) {
	captureLog(t)
	s := New(newFakeConn(), nil)
	s.Handle("ERR src system not found")
	n, ok := s.Notices.Current()
	if !ok || n.Kind != Dismissible || n.Text != "src system not found" {
		t.Errorf("notice = %+v, %v", n, ok)
	}
	s.Notices.Dismiss()
	if _, ok := s.Notices.Current(); ok {
		t.Error("notice not dismissed")
	}
}

func TestHandle_SYSGate(t *testing.T) {
	captureLog(t)
	conn := newFakeConn()
	s := New(conn, nil)
	s.TypeDest("jit")
	s.Handle(`SYS ["Jita"]`)
	if !s.Auto.Visible() {
		t.Fatal("matching SYS reply not shown")
	}
	s.TypeDest("Amarr")
	s.Handle(`SYS ["Jita"]`)
	if s.Auto.Visible() {
		t.Error("stale SYS reply shown")
	}
}

func TestFail_BlocksFurtherHandling(t *testing.T) {
	captureLog(t)
	conn := newFakeConn()
	s := New(conn, nil)
	s.Fail(errors.New("socket reset"))
	if !conn.closed {
		t.Error("channel not closed on failure")
	}
	n, ok := s.Notices.Current()
	if !ok || n.Kind != Fatal {
		t.Fatalf("notice = %+v, want fatal", n)
	}
	s.Notices.Dismiss()
	if _, ok := s.Notices.Current(); !ok {
		t.Error("fatal notice was dismissed")
	}
	s.Handle(endToEnd)
	if !s.Layout().Empty() {
		t.Error("MAP handled after failure")
	}
	if err := s.Detach(); err == nil {
		t.Error("actions should fail after failure")
	}
	if len(conn.sent) != 0 {
		t.Errorf("sent after failure: %v", conn.sent)
	}
}

func TestSubmitAdd(t *testing.T) {
	captureLog(t)
	conn := newFakeConn()
	s := New(conn, nil)
	s.Handle(endToEnd)
	s.Select("J100001")
	if s.Form.Src != "J100001" {
		t.Errorf("Src = %q, want J100001", s.Form.Src)
	}

	if err := s.SubmitAdd(); !errors.Is(err, ErrNoDestination) {
		t.Fatalf("SubmitAdd err = %v, want ErrNoDestination", err)
	}
	if n, _ := s.Notices.Current(); n.Text != "you didn't specify a system name" {
		t.Errorf("notice = %q", n.Text)
	}
	if len(conn.sent) != 0 {
		t.Fatalf("invalid add sent: %v", conn.sent)
	}

	s.Form.Dest = "J100002"
	s.Form.To = "ABC"
	s.Form.EOL = true
	if err := s.SubmitAdd(); err != nil {
		t.Fatal(err)
	}
	want := `ADD {"src":"J100001","dest":"J100002","to":"ABC","eol":true,"frigate":false}`
	if len(conn.sent) != 1 || conn.sent[0] != want {
		t.Errorf("sent = %v, want %v", conn.sent, want)
	}
	if s.Form.Dest != "" || s.Form.To != "" || s.Form.EOL {
		t.Errorf("form not reset: %+v", s.Form)
	}
	if s.Form.Src != "J100001" {
		t.Error("Src should survive submit")
	}
}

func TestDelete_HomeConfirmation(t *testing.T) {
	captureLog(t)
	conn := newFakeConn()
	s := New(conn, nil)
	s.Handle(endToEnd)
	s.Select("J100000")
	if err := s.Delete(); !errors.Is(err, selection.ErrConfirmRequired) {
		t.Fatalf("Delete err = %v", err)
	}
	if len(conn.sent) != 0 || s.Notices.Len() != 0 {
		t.Fatalf("sent %v notices %d before confirm", conn.sent, s.Notices.Len())
	}
	if err := s.ConfirmDelete(); err != nil {
		t.Fatal(err)
	}
	if len(conn.sent) != 1 || conn.sent[0] != "DELETE J100000" {
		t.Errorf("sent = %v", conn.sent)
	}
	if s.Form.Src != "" {
		t.Errorf("Src = %q, want reset after delete", s.Form.Src)
	}
}

func TestSelectAt(t *testing.T) {
	captureLog(t)
	s := New(newFakeConn(), nil)
	s.Handle(endToEnd)
	if !s.SelectAt(250, 75) {
		t.Fatal("no system at the child position")
	}
	if name, _ := s.Panel.Selected(); name != "J100001" {
		t.Errorf("selected = %q, want J100001", name)
	}
}

func TestRun_HandlesLinesUntilFailure(t *testing.T) {
	captureLog(t)
	conn := newFakeConn()
	s := New(conn, nil)
	conn.lines <- endToEnd
	updates := 0
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), conn, func(*Session) { updates++ }) }()

	time.Sleep(50 * time.Millisecond)
	conn.failures <- errors.New("gone")
	select {
	case err := <-done:
		if err == nil || err.Error() != "gone" {
			t.Errorf("Run err = %v, want gone", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return on failure")
	}
	if updates != 2 {
		t.Errorf("updates = %d, want 2", updates)
	}
	if !s.Failed() || s.Layout().Rows != 1 {
		t.Errorf("Failed = %v rows = %d", s.Failed(), s.Layout().Rows)
	}
}

func TestRun_LinesBeforeFailureAreHandled(t *testing.T) {
	captureLog(t)
	for i := 0; i < 100; i++ {
		conn := newFakeConn()
		s := New(conn, nil)
		conn.lines <- "ERR boom"
		conn.failures <- errors.New("closed")
		if err := s.Run(context.Background(), conn, nil); err == nil {
			t.Fatal("Run returned nil after failure")
		}
		if s.Notices.Len() != 2 {
			t.Fatalf("run %d: notices = %d, want fatal plus ERR", i, s.Notices.Len())
		}
	}
}

func TestRun_ContextCancel(t *testing.T) {
	captureLog(t)
	conn := newFakeConn()
	s := New(conn, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx, conn, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Run err = %v", err)
	}
	if !conn.closed {
		t.Error("channel not closed on cancel")
	}
}
