package domain

import "time"

// IncidentStatus represents the lifecycle status of an incident.
type IncidentStatus string

// Incident statuses.
const (
	IncidentStatusOpen        IncidentStatus = "OPEN"
	IncidentStatusResolved    IncidentStatus = "RESOLVED"
	IncidentStatusMaintenance IncidentStatus = "MAINTENANCE"
)

// IsValid checks if the incident status is valid.
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusOpen, IncidentStatusResolved, IncidentStatusMaintenance:
		return true
	}
	return false
}

// Incident represents a reported problem affecting one service.
type Incident struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Status         IncidentStatus `json:"status"`
	ServiceID      string         `json:"serviceId"`
	OrganizationID string         `json:"organizationId"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// IncidentUpdate is a timestamped note attached to an incident.
// Appending one also overwrites the parent incident's status.
type IncidentUpdate struct {
	ID         string         `json:"id"`
	IncidentID string         `json:"incidentId"`
	Message    string         `json:"message"`
	Status     IncidentStatus `json:"status"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// IncidentDetail is an incident enriched with its service, organization
// and update timeline (newest first). Updates is nil for operations that
// do not load the timeline; JSON then omits the field entirely, matching
// the original wire shapes.
type IncidentDetail struct {
	Incident
	Service      *Service         `json:"service,omitempty"`
	Organization *Organization    `json:"organization,omitempty"`
	Updates      []IncidentUpdate `json:"updates,omitempty"`
}
