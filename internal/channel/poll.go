package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"eve-chainmap/internal/logger"
	"eve-chainmap/internal/protocol"
)

// Poll is the fallback strategy: each Send is one GET to
// /map.json/<VERB>?args=<args>, and the JSON string in the reply body is
// handed on as one inbound line. Requests run in the background so Send
// never waits for the server.
type Poll struct {
	base   string
	cookie string
	http   *http.Client

	lines    chan string
	failures chan error
	ctx      context.Context
	cancel   context.CancelFunc

	mu       sync.Mutex
	closed   bool
	failOnce sync.Once
}

// NewPoll prepares a polling channel.
func NewPoll(opts Options) (*Poll, error) {
	_, base, err := endpoints(opts.ServerURL)
	if err != nil {
		return nil, err
	}
	client := opts.HTTPClient
	if client == nil {
		client = defaultHTTPClient()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Poll{
		base:     base,
		cookie:   opts.Cookie,
		http:     client,
		lines:    make(chan string, 64),
		failures: make(chan error, 1),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Open sends the HELO request; the session cookie rides in the header.
func (p *Poll) Open(ctx context.Context) error {
	logger.Info("POLL", fmt.Sprintf("Using HTTP fallback at %s", p.base))
	return p.Send(string(protocol.VerbHelo), "")
}

// Send fires one request and returns immediately.
func (p *Poll) Send(verb, args string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.mu.Unlock()

	logger.Info("POLL", "-> "+verb)
	go func() {
		line, err := p.roundTrip(verb, args)
		if err != nil {
			p.fail(err)
			return
		}
		select {
		case p.lines <- line:
		case <-p.ctx.Done():
		}
	}()
	return nil
}

func (p *Poll) roundTrip(verb, args string) (string, error) {
	u := p.base + url.PathEscape(verb)
	if args != "" {
		u += "?" + url.Values{"args": {args}}.Encode()
	}
	req, err := http.NewRequestWithContext(p.ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if p.cookie != "" {
		req.Header.Set("Cookie", p.cookie)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", verb, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read body: %w", verb, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: HTTP %d: %s", verb, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var line string
	if err := json.Unmarshal(body, &line); err != nil {
		return "", fmt.Errorf("%s: decode reply: %w", verb, err)
	}
	return line, nil
}

func (p *Poll) fail(err error) {
	p.mu.Lock()
	deliberate := p.closed
	p.closed = true
	p.mu.Unlock()
	if deliberate {
		return
	}
	p.failOnce.Do(func() {
		logger.Error("POLL", fmt.Sprintf("Request failed: %v", err))
		p.failures <- err
		p.cancel()
	})
}

func (p *Poll) Lines() <-chan string   { return p.lines }
func (p *Poll) Failures() <-chan error { return p.failures }

// Close cancels in-flight requests.
func (p *Poll) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()
	return nil
}
