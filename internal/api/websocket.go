package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"eve-chainmap/internal/logger"
	"eve-chainmap/internal/protocol"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = pongWait * 9 / 10
	sendBuffer  = 32
	maxFrameLen = 1 << 20
)

// conn is one WebSocket client. It receives broadcasts only after a
// successful HELO.
type conn struct {
	id       string
	ws       *websocket.Conn
	send     chan string
	done     chan struct{}
	username string

	closeOnce sync.Once
}

// enqueue queues a line without blocking. A client that cannot keep up
// is dropped.
func (c *conn) enqueue(line string) {
	select {
	case c.send <- line:
	case <-c.done:
	default:
		logger.Warn("WS", fmt.Sprintf("Dropping slow client %s", c.id))
		c.close()
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WS", fmt.Sprintf("Upgrade failed: %v", err))
		return
	}
	c := &conn{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan string, sendBuffer),
		done: make(chan struct{}),
	}
	logger.Info("WS", fmt.Sprintf("Client %s connected from %s", c.id, r.RemoteAddr))

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return s.readPump(ctx, c, r.Header.Get("Cookie")) })
	g.Go(func() error { return s.writePump(ctx, c) })
	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-c.done:
		}
		ws.Close()
		return nil
	})
	err = g.Wait()

	s.unregister(c)
	c.close()
	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		logger.Info("WS", fmt.Sprintf("Client %s disconnected: %v", c.id, err))
		return
	}
	logger.Info("WS", fmt.Sprintf("Client %s disconnected", c.id))
}

// readPump handles inbound frames. Until HELO succeeds every other verb is
// ignored.
func (s *Server) readPump(ctx context.Context, c *conn, headerCookie string) error {
	defer c.close()
	c.ws.SetReadLimit(maxFrameLen)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	greeted := false
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}
		cmd := protocol.ParseCommand(string(data))
		if cmd.Verb == protocol.VerbHelo {
			name, err := s.authenticate(cmd.Args, headerCookie)
			if err != nil {
				logger.Warn("WS", fmt.Sprintf("Client %s: %v", c.id, err))
				c.enqueue(protocol.EncodeError(err.Error()))
				continue
			}
			c.username = name
			if !greeted {
				greeted = true
				s.register(c)
			}
		} else if !greeted {
			continue
		}

		res := s.dispatch(ctx, c.username, cmd)
		if res.line != "" && !res.broadcast {
			c.enqueue(res.line)
		}
	}
}

func (s *Server) writePump(ctx context.Context, c *conn) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return nil
		case line := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return err
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

func (s *Server) register(c *conn) {
	s.connsMu.Lock()
	s.conns[c.id] = c
	n := len(s.conns)
	s.connsMu.Unlock()
	logger.Info("WS", fmt.Sprintf("%s joined (%d connected)", c.username, n))
}

func (s *Server) unregister(c *conn) {
	s.connsMu.Lock()
	delete(s.conns, c.id)
	s.connsMu.Unlock()
}

// broadcast sends a line to every greeted socket.
func (s *Server) broadcast(line string) {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	for _, c := range s.conns {
		c.enqueue(line)
	}
}
