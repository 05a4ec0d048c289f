package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/bissquit/statusdeck/internal/domain"
	"golang.org/x/time/rate"
)

// StreamConfig holds stream consumer settings.
type StreamConfig struct {
	// BaseURL is the server origin, without the /api prefix.
	BaseURL    string
	HTTPClient *http.Client

	// Reconnect re-dials the stream after a dropped connection. Dials
	// are throttled by ReconnectLimiter.
	Reconnect        bool
	ReconnectLimiter *rate.Limiter
}

// Stream consumes the server's event stream. Each Stream owns its
// connection: Connect and Close form a matched pair, and a Stream
// created after another was closed shares nothing with it.
type Stream struct {
	cfg    StreamConfig
	events chan domain.StreamEvent

	mu        sync.Mutex
	cancel    context.CancelFunc
	connected bool
	closed    bool
}

// NewStream creates a stream consumer. Call Connect to start receiving.
func NewStream(cfg StreamConfig) *Stream {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		// No timeout: the stream response stays open indefinitely.
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.ReconnectLimiter == nil {
		cfg.ReconnectLimiter = rate.NewLimiter(rate.Limit(0.5), 1)
	}
	return &Stream{
		cfg:    cfg,
		events: make(chan domain.StreamEvent, 16),
	}
}

// Events returns the channel of decoded stream events. The channel is
// closed when the stream ends and will not reconnect.
func (s *Stream) Events() <-chan domain.StreamEvent {
	return s.events
}

// Connect dials the stream and starts delivering events. It returns an
// error if the initial dial fails; reconnects after that are silent.
func (s *Stream) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("stream is closed")
	}
	if s.connected {
		s.mu.Unlock()
		return fmt.Errorf("stream already connected")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.connected = true
	s.mu.Unlock()

	resp, err := s.dial(ctx)
	if err != nil {
		cancel()
		s.mu.Lock()
		s.connected = false
		s.mu.Unlock()
		return err
	}

	go s.run(ctx, resp)
	return nil
}

// Close tears down the connection. After Close returns no further
// events are delivered and the events channel is closed.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Stream) dial(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/api/stream", nil)
	if err != nil {
		return nil, fmt.Errorf("create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dial stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("dial stream: unexpected status %d", resp.StatusCode)
	}
	return resp, nil
}

func (s *Stream) run(ctx context.Context, resp *http.Response) {
	defer close(s.events)

	for {
		if resp != nil {
			s.read(ctx, resp)
			resp.Body.Close()
		}

		if !s.cfg.Reconnect || ctx.Err() != nil {
			return
		}

		if err := s.cfg.ReconnectLimiter.Wait(ctx); err != nil {
			return
		}

		next, err := s.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Try again on the next limiter slot.
			resp = nil
			continue
		}
		resp = next
	}
}

// read consumes one connection until it drops or ctx is done.
func (s *Stream) read(ctx context.Context, resp *http.Response) {
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventName string
	var data strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			if eventName != "" && data.Len() > 0 {
				if event, ok := decodeEvent(eventName, data.String()); ok {
					select {
					case s.events <- event:
					case <-ctx.Done():
						return
					}
				}
			}
			eventName = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
			// Heartbeat comment.
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
}

// decodeEvent unmarshals one framed event. Unknown event names and
// malformed payloads are dropped so one bad frame cannot kill the stream.
func decodeEvent(name, data string) (domain.StreamEvent, bool) {
	switch domain.StreamEventType(name) {
	case domain.StreamServiceStatusUpdated:
		var service domain.ServiceDetail
		if err := json.Unmarshal([]byte(data), &service); err != nil {
			return domain.StreamEvent{}, false
		}
		return domain.StreamEvent{
			Type:    domain.StreamServiceStatusUpdated,
			Service: &service,
		}, true
	case domain.StreamIncidentCreated, domain.StreamIncidentUpdated:
		var incident domain.IncidentDetail
		if err := json.Unmarshal([]byte(data), &incident); err != nil {
			return domain.StreamEvent{}, false
		}
		return domain.StreamEvent{
			Type:     domain.StreamEventType(name),
			Incident: &incident,
		}, true
	}
	return domain.StreamEvent{}, false
}
