package channel

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"eve-chainmap/internal/logger"
	"eve-chainmap/internal/protocol"
)

const writeWait = 10 * time.Second

// WebSocket is the persistent strategy: one socket, one text frame per line.
type WebSocket struct {
	url    string
	cookie string
	dialer *websocket.Dialer

	conn     *websocket.Conn
	lines    chan string
	failures chan error
	outbox   chan string
	done     chan struct{}

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
	failOnce  sync.Once
}

// NewWebSocket prepares a WebSocket channel; nothing is dialled until Open.
func NewWebSocket(opts Options) (*WebSocket, error) {
	wsURL, _, err := endpoints(opts.ServerURL)
	if err != nil {
		return nil, err
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &WebSocket{
		url:      wsURL,
		cookie:   opts.Cookie,
		dialer:   dialer,
		lines:    make(chan string, 64),
		failures: make(chan error, 1),
		outbox:   make(chan string, 64),
		done:     make(chan struct{}),
	}, nil
}

// Open dials the server and sends the HELO handshake before anything else.
func (w *WebSocket) Open(ctx context.Context) error {
	header := http.Header{}
	header.Set("User-Agent", userAgent)
	if w.cookie != "" {
		header.Set("Cookie", w.cookie)
	}
	conn, resp, err := w.dialer.DialContext(ctx, w.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", w.url, err)
	}
	w.conn = conn
	logger.Info("WS", fmt.Sprintf("Connected to %s", w.url))

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(protocol.Helo(w.cookie).Line())); err != nil {
		conn.Close()
		return fmt.Errorf("send HELO: %w", err)
	}

	g, gctx := errgroup.WithContext(context.Background())
	g.Go(w.readPump)
	g.Go(func() error { return w.writePump(gctx) })
	g.Go(func() error {
		// Unblocks the reader when the writer fails or Close is called.
		select {
		case <-gctx.Done():
		case <-w.done:
		}
		conn.Close()
		return nil
	})
	go func() {
		w.fail(g.Wait())
	}()
	return nil
}

func (w *WebSocket) readPump() error {
	for {
		mt, data, err := w.conn.ReadMessage()
		if err != nil {
			return err
		}
		if mt != websocket.TextMessage {
			continue
		}
		select {
		case w.lines <- string(data):
		case <-w.done:
			return nil
		}
	}
}

func (w *WebSocket) writePump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case line := <-w.outbox:
			w.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		}
	}
}

// fail reports a connectivity loss once, unless the channel was closed on
// purpose.
func (w *WebSocket) fail(err error) {
	w.mu.Lock()
	deliberate := w.closed
	w.closed = true
	w.mu.Unlock()
	if deliberate {
		return
	}
	if err == nil {
		err = fmt.Errorf("connection closed")
	}
	w.failOnce.Do(func() {
		logger.Error("WS", fmt.Sprintf("Connection lost: %v", err))
		w.failures <- err
	})
}

// Send queues one line for the writer.
func (w *WebSocket) Send(verb, args string) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrClosed
	}
	line := protocol.JoinLine(protocol.Verb(verb), args)
	logger.Info("WS", "-> "+verb)
	select {
	case w.outbox <- line:
		return nil
	case <-w.done:
		return ErrClosed
	}
}

func (w *WebSocket) Lines() <-chan string   { return w.lines }
func (w *WebSocket) Failures() <-chan error { return w.failures }

// Close shuts the socket without reporting a failure.
func (w *WebSocket) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		if w.conn != nil {
			w.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
		}
		close(w.done)
	})
	return nil
}
