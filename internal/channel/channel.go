// Package channel carries protocol lines between the client and the map
// server. Two strategies share one contract: a persistent WebSocket and an
// HTTP request-per-command fallback. The strategy is picked once by Connect.
package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"eve-chainmap/internal/config"
	"eve-chainmap/internal/logger"
)

// ErrClosed is returned by Send once the channel was closed or failed.
var ErrClosed = errors.New("channel closed")

const userAgent = "eve-chainmap/1.0"

// Channel is a duplex line transport. Lines arrive on Lines in arrival
// order; a connectivity loss is reported once on Failures and ends the
// session. Channels never reconnect.
type Channel interface {
	Open(ctx context.Context) error
	Send(verb, args string) error
	Lines() <-chan string
	Failures() <-chan error
	Close() error
}

// Options configure both strategies.
type Options struct {
	ServerURL  string // http(s)://host[:port]
	Cookie     string // raw Cookie header value, opaque here
	Transport  string // auto | ws | poll
	HTTPClient *http.Client
	Dialer     *websocket.Dialer
}

// OptionsFromConfig builds channel options from client config.
func OptionsFromConfig(c config.ClientConfig) Options {
	return Options{ServerURL: c.ServerURL, Cookie: c.Cookie, Transport: c.Transport}
}

// Connect opens a channel with the configured strategy. In auto mode the
// WebSocket is tried first and polling is used only when the server refuses
// the upgrade. The choice holds for the whole session.
func Connect(ctx context.Context, opts Options) (Channel, error) {
	switch opts.Transport {
	case config.TransportWS:
		ws, err := NewWebSocket(opts)
		if err != nil {
			return nil, err
		}
		if err := ws.Open(ctx); err != nil {
			return nil, err
		}
		return ws, nil
	case config.TransportPoll:
		return openPoll(ctx, opts)
	case config.TransportAuto, "":
		ws, err := NewWebSocket(opts)
		if err != nil {
			return nil, err
		}
		err = ws.Open(ctx)
		if err == nil {
			return ws, nil
		}
		if !errors.Is(err, websocket.ErrBadHandshake) {
			return nil, err
		}
		logger.Warn("CHAN", "WebSocket upgrade refused, falling back to polling")
		return openPoll(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown transport %q", opts.Transport)
	}
}

func openPoll(ctx context.Context, opts Options) (Channel, error) {
	p, err := NewPoll(opts)
	if err != nil {
		return nil, err
	}
	if err := p.Open(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// endpoints derives the WebSocket URL and the polling base from the server URL.
func endpoints(serverURL string) (wsURL, pollBase string, err error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return "", "", fmt.Errorf("server url: %w", err)
	}
	httpScheme := u.Scheme
	switch u.Scheme {
	case "http", "ws":
		httpScheme = "http"
		u.Scheme = "ws"
	case "https", "wss":
		httpScheme = "https"
		u.Scheme = "wss"
	default:
		return "", "", fmt.Errorf("server url: unsupported scheme %q", u.Scheme)
	}
	base := *u
	u.Path += "/map.ws"
	wsURL = u.String()
	base.Scheme = httpScheme
	base.Path += "/map.json/"
	return wsURL, base.String(), nil
}

// Pending returns the lines already queued on ch without blocking. A
// failure is reported after the lines that preceded it, so readers call
// this before acting on Failures.
func Pending(ch Channel) []string {
	var lines []string
	for {
		select {
		case line := <-ch.Lines():
			lines = append(lines, line)
		default:
			return lines
		}
	}
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
