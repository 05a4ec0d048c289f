package domain

// StreamEventType names a realtime broadcast event.
type StreamEventType string

// Stream event types.
const (
	StreamServiceStatusUpdated StreamEventType = "service_status_updated"
	StreamIncidentCreated      StreamEventType = "incident_created"
	StreamIncidentUpdated      StreamEventType = "incident_updated"
)

// StreamEvent is a single server-to-viewer broadcast. Exactly one of
// Service or Incident is set, depending on Type. Shared between the
// server-side broker and the client stream so both ends agree on
// payload shapes.
type StreamEvent struct {
	Type     StreamEventType `json:"type"`
	Service  *ServiceDetail  `json:"service,omitempty"`
	Incident *IncidentDetail `json:"incident,omitempty"`
}
