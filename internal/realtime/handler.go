package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bissquit/statusdeck/internal/domain"
	"github.com/bissquit/statusdeck/internal/pkg/ctxlog"
	"github.com/bissquit/statusdeck/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// Handler serves the SSE stream endpoint.
type Handler struct {
	broker    *Broker
	heartbeat time.Duration
}

// NewHandler creates a new stream handler.
func NewHandler(broker *Broker, heartbeat time.Duration) *Handler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &Handler{broker: broker, heartbeat: heartbeat}
}

// RegisterRoutes registers the stream route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream", h.Stream)
}

// Stream handles GET /stream. One SSE connection per viewer; the
// subscription is released when the client disconnects.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sub := h.broker.Subscribe()
	defer sub.Close()

	// Initial comment so proxies and clients see the stream is live.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	logger := ctxlog.FromContext(r.Context())
	logger.Debug("stream subscriber connected")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug("stream subscriber disconnected")
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case event, open := <-sub.Events():
			if !open {
				return
			}
			if err := writeEvent(w, event); err != nil {
				logger.Debug("stream write failed", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

// writeEvent frames one event in text/event-stream format. The data
// payload is the enriched entity itself, matching the broadcast
// contract: the event name tells the client which shape to expect.
func writeEvent(w http.ResponseWriter, event domain.StreamEvent) error {
	var payload interface{}
	switch event.Type {
	case domain.StreamServiceStatusUpdated:
		payload = event.Service
	case domain.StreamIncidentCreated, domain.StreamIncidentUpdated:
		payload = event.Incident
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
	return err
}
