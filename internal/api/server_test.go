package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"eve-chainmap/internal/auth"
	"eve-chainmap/internal/channel"
	"eve-chainmap/internal/config"
	"eve-chainmap/internal/db"
	"eve-chainmap/internal/logger"
	"eve-chainmap/internal/model"
	"eve-chainmap/internal/protocol"
	"eve-chainmap/internal/session"
)

type testServer struct {
	*Server
	http   *httptest.Server
	signer *auth.Signer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger.SetOutput(io.Discard)
	t.Cleanup(func() { logger.SetOutput(nil) })

	d, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	u, err := d.LoadUniverse()
	if err != nil {
		t.Fatalf("load universe: %v", err)
	}
	cfg := config.Default().Server
	cfg.HomeSystem = "J100820"
	signer := auth.NewSigner("test-secret")
	srv := NewServer(cfg, d, u, signer)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testServer{Server: srv, http: ts, signer: signer}
}

func (ts *testServer) dial(t *testing.T, name string) *websocket.Conn {
	t.Helper()
	c := ts.dialRaw(t)
	send(t, c, "HELO "+ts.signer.Cookie(name))
	if got := readLine(t, c); !strings.HasPrefix(got, "MAP ") {
		t.Fatalf("HELO reply = %q, want MAP", got)
	}
	return c
}

func (ts *testServer) dialRaw(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/map.ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, line string) {
	t.Helper()
	if err := c.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		t.Fatalf("write %q: %v", line, err)
	}
}

func readLine(t *testing.T, c *websocket.Conn) string {
	t.Helper()
	c.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}

func readMap(t *testing.T, c *websocket.Conn) *model.Map {
	t.Helper()
	line := readLine(t, c)
	msg, err := protocol.DecodeInbound(line)
	if err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	mm, ok := msg.(protocol.MapMessage)
	if !ok {
		t.Fatalf("got %q, want MAP", line)
	}
	return mm.Map
}

func (ts *testServer) get(t *testing.T, path, cookie string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, ts.http.URL+path, nil)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestWebSocket_IgnoresCommandsBeforeHelo(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dialRaw(t)
	send(t, c, `ADD {"dest":"J100820"}`)
	send(t, c, "HELO "+ts.signer.Cookie("bob"))
	if got := readLine(t, c); got != "MAP []" {
		t.Errorf("first reply = %q, want MAP []", got)
	}
}

func TestWebSocket_RejectsBadCookie(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dialRaw(t)
	send(t, c, "HELO username=forged")
	if got := readLine(t, c); got != "ERR invalid session cookie" {
		t.Errorf("reply = %q, want ERR invalid session cookie", got)
	}
	// Still not greeted: commands are ignored until a valid HELO.
	send(t, c, "SYS ji")
	send(t, c, "HELO "+ts.signer.Cookie("bob"))
	if got := readLine(t, c); got != "MAP []" {
		t.Errorf("reply = %q, want MAP []", got)
	}
}

func TestAdd_BroadcastsEnrichedSystems(t *testing.T) {
	ts := newTestServer(t)
	a := ts.dial(t, "alice")
	b := ts.dial(t, "bob")

	send(t, a, `ADD {"dest":"j100820","eol":false,"frigate":false}`)
	for _, c := range []*websocket.Conn{a, b} {
		m := readMap(t, c)
		home, ok := m.System("J100820")
		if !ok {
			t.Fatal("J100820 missing from broadcast")
		}
		if home.Class != model.ClassHome || home.Effect != "Wolf-Rayet Star" {
			t.Errorf("home = class %q effect %q", home.Class, home.Effect)
		}
		if home.Static1 == nil || home.Static1.Name != "U210" || home.Static1.Dest != "lowsec" {
			t.Errorf("static1 = %+v", home.Static1)
		}
	}

	send(t, b, `ADD {"src":"J100820","dest":"Jita","to":"ABC","eol":true,"frigate":false}`)
	readMap(t, a)
	m := readMap(t, b)
	jita, ok := m.System("Jita")
	if !ok {
		t.Fatal("Jita missing")
	}
	if jita.Parent != "J100820" || jita.Class != model.ClassHighsec || jita.Region != "The Forge" {
		t.Errorf("jita = parent %q class %q region %q", jita.Parent, jita.Class, jita.Region)
	}
	if jita.Edge.Mass != model.MassStable || !jita.Edge.EOL || jita.Edge.To != "ABC" {
		t.Errorf("edge = %+v", jita.Edge)
	}
	if len(jita.Jumps) != 4 {
		t.Fatalf("jumps = %v, want 4 hubs", jita.Jumps)
	}
	for i, hub := range []string{"Jita", "Amarr", "Dodixie", "Rens"} {
		if jita.Jumps[i].Hub != hub {
			t.Errorf("hub %d = %q, want %q", i, jita.Jumps[i].Hub, hub)
		}
	}
	if len(jita.Jumps[0].Hops) != 0 {
		t.Errorf("Jita -> Jita hops = %v, want none", jita.Jumps[0].Hops)
	}
	amarr := jita.Jumps[1].Hops
	if len(amarr) != 9 || amarr[0].Name != "Perimeter" || amarr[8].Name != "Amarr" || amarr[8].Security != 1.0 {
		t.Errorf("Jita -> Amarr hops = %v", amarr)
	}
	rens := jita.Jumps[3].Hops
	if len(rens) != 8 || rens[3].Name != "Tama" || rens[3].Security != 0.3 {
		t.Errorf("Jita -> Rens hops = %v", rens)
	}
}

func TestErrors_GoOnlyToSender(t *testing.T) {
	ts := newTestServer(t)
	a := ts.dial(t, "alice")
	b := ts.dial(t, "bob")

	send(t, a, `ADD {"dest":"Nowhere"}`)
	if got := readLine(t, a); got != "ERR system does not exist" {
		t.Errorf("a got %q", got)
	}
	send(t, a, `ADD {"src":"Nowhere","dest":"Jita"}`)
	if got := readLine(t, a); got != "ERR src system not found" {
		t.Errorf("a got %q", got)
	}
	send(t, a, "DETACH Jita")
	if got := readLine(t, a); got != "ERR system not found" {
		t.Errorf("a got %q", got)
	}

	// The next thing b sees is its own SYS reply, not a's errors.
	send(t, b, "SYS jit")
	if got := readLine(t, b); got != `SYS ["Jita"]` {
		t.Errorf("b got %q, want its SYS reply", got)
	}
}

func TestMutations_TogglesAndSignatures(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dial(t, "alice")
	send(t, c, `ADD {"dest":"J100820"}`)
	readMap(t, c)
	send(t, c, `ADD {"src":"J100820","dest":"J123555"}`)
	readMap(t, c)

	send(t, c, "REDUCED J100820 J123555")
	if s, _ := readMap(t, c).System("J123555"); s.Edge.Mass != model.MassReduced {
		t.Errorf("mass = %q, want reduced", s.Edge.Mass)
	}
	send(t, c, "FRIGATE J100820 J123555")
	if s, _ := readMap(t, c).System("J123555"); !s.Edge.Frigate {
		t.Error("frigate flag not set")
	}

	bulk := "ABC-123\tCosmic Signature\tWormhole\tUnstable Wormhole\t100.0%\t1.2 AU\n" +
		"DEF-456\tCosmic Anomaly\tCombat Site\tSansha Forsaken Hub\t100.0%\t4.0 AU"
	send(t, c, protocol.Signatures("J123555", protocol.SigsAdd, bulk).Line())
	s, _ := readMap(t, c).System("J123555")
	if len(s.Signatures) != 2 || s.Signatures[0].ScanGroup != "Signature" || s.Signatures[1].Group != "Combat Site" {
		t.Fatalf("signatures = %+v", s.Signatures)
	}

	send(t, c, protocol.SignatureNote("J123555", "ABC-123", "static to highsec").Line())
	if s, _ := readMap(t, c).System("J123555"); s.Signatures[0].Note != "static to highsec" {
		t.Errorf("note = %q", s.Signatures[0].Note)
	}

	send(t, c, protocol.DeleteSignature("J123555", "XYZ-999").Line())
	if got := readLine(t, c); got != "ERR sig id not found" {
		t.Errorf("got %q", got)
	}
	send(t, c, protocol.DeleteSignature("J123555", "").Line())
	if s, _ := readMap(t, c).System("J123555"); len(s.Signatures) != 0 {
		t.Errorf("signatures left = %d", len(s.Signatures))
	}

	send(t, c, "SIGS J123555 merge\n")
	if got := readLine(t, c); got != "ERR invalid signature update action" {
		t.Errorf("got %q", got)
	}

	send(t, c, "DELETE J100820")
	if m := readMap(t, c); m.Len() != 0 {
		t.Errorf("Len = %d after root delete", m.Len())
	}
}

func TestAJAX_RepliesAndBroadcasts(t *testing.T) {
	ts := newTestServer(t)
	watcher := ts.dial(t, "watcher")
	cookie := ts.signer.Cookie("poller")

	resp := ts.get(t, "/map.json/HELO", cookie)
	var line string
	if err := json.NewDecoder(resp.Body).Decode(&line); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if line != "MAP []" {
		t.Errorf("HELO = %q, want MAP []", line)
	}

	resp = ts.get(t, `/map.json/ADD?args=`+`%7B%22dest%22%3A%22Amarr%22%7D`, cookie)
	json.NewDecoder(resp.Body).Decode(&line)
	if !strings.HasPrefix(line, "MAP ") || !strings.Contains(line, `"Amarr"`) {
		t.Errorf("ADD reply = %q", line)
	}
	if m := readMap(t, watcher); m.Len() != 1 {
		t.Errorf("watcher map Len = %d, want 1", m.Len())
	}

	if resp := ts.get(t, "/map.json/HELO", ""); resp.StatusCode != http.StatusForbidden {
		t.Errorf("no cookie status = %d, want 403", resp.StatusCode)
	}
	if resp := ts.get(t, "/map.json/BOGUS", cookie); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown verb status = %d, want 400", resp.StatusCode)
	}
}

func TestLogAndStatusEndpoints(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dial(t, "alice")
	send(t, c, `ADD {"dest":"J100820"}`)
	readMap(t, c)
	send(t, c, "DELETE J100820")
	readMap(t, c)

	var entries []db.LogEntry
	json.NewDecoder(ts.get(t, "/api/log", "").Body).Decode(&entries)
	if len(entries) != 2 {
		t.Fatalf("log entries = %d, want 2", len(entries))
	}
	if entries[0].Message != "deleted system J100820" || entries[1].Message != "added new root system J100820" {
		t.Errorf("log = %+v", entries)
	}
	if entries[0].Username != "alice" {
		t.Errorf("username = %q, want alice", entries[0].Username)
	}

	var status map[string]interface{}
	json.NewDecoder(ts.get(t, "/api/status", "").Body).Decode(&status)
	if status["connections"] != float64(1) || status["systems"] != float64(0) {
		t.Errorf("status = %v", status)
	}
}

func TestRoutes_CachedPerSystem(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	first, err := ts.routes(ctx, 30002813) // Tama
	if err != nil {
		t.Fatal(err)
	}
	second, _ := ts.routes(ctx, 30002813)
	if &first[0] != &second[0] {
		t.Error("second lookup should return the cached routes")
	}
	if len(first[0].Hops) != 4 || first[0].Hops[3].Name != "Jita" {
		t.Errorf("Tama -> Jita = %v", first[0].Hops)
	}
}

func TestClientSession_EndToEnd(t *testing.T) {
	for _, transport := range []string{config.TransportWS, config.TransportPoll} {
		t.Run(transport, func(t *testing.T) {
			ts := newTestServer(t)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			ch, err := channel.Connect(ctx, channel.Options{
				ServerURL: ts.http.URL,
				Cookie:    ts.signer.Cookie("carol"),
				Transport: transport,
			})
			if err != nil {
				t.Fatalf("Connect: %v", err)
			}
			defer ch.Close()

			sess := session.New(ch, nil)
			next := func() {
				t.Helper()
				select {
				case line := <-ch.Lines():
					sess.Handle(line)
				case err := <-ch.Failures():
					t.Fatalf("channel failed: %v", err)
				case <-ctx.Done():
					t.Fatal("timed out waiting for a line")
				}
			}

			next()
			if !sess.HasMap() || !sess.Empty() {
				t.Fatal("expected the empty map after HELO")
			}

			sess.Form.Dest = "J100820"
			if err := sess.SubmitAdd(); err != nil {
				t.Fatalf("SubmitAdd: %v", err)
			}
			next()
			if sess.Map().Len() != 1 {
				t.Fatalf("Len = %d, want 1", sess.Map().Len())
			}
			if err := sess.Select("J100820"); err != nil {
				t.Fatalf("Select: %v", err)
			}
			sess.Form.Dest = "Jita"
			if err := sess.SubmitAdd(); err != nil {
				t.Fatalf("SubmitAdd: %v", err)
			}
			next()
			res := sess.Layout()
			if len(res.Nodes) != 2 || len(res.Edges) != 1 {
				t.Errorf("layout = %d nodes %d edges, want 2/1", len(res.Nodes), len(res.Edges))
			}
			if d, ok := sess.Panel.Detail(); !ok || len(d.Connections) != 1 || d.Connections[0].Name != "Jita" {
				t.Errorf("detail = %+v", d)
			}
		})
	}
}
