package domain

import "time"

// ServiceStatus represents the operational status of a service.
type ServiceStatus string

// Service statuses. Values travel on the wire exactly as stored.
const (
	ServiceStatusOperational   ServiceStatus = "OPERATIONAL"
	ServiceStatusDegraded      ServiceStatus = "DEGRADED"
	ServiceStatusPartialOutage ServiceStatus = "PARTIAL_OUTAGE"
	ServiceStatusMajorOutage   ServiceStatus = "MAJOR_OUTAGE"
)

// IsValid checks if the service status is valid.
func (s ServiceStatus) IsValid() bool {
	switch s {
	case ServiceStatusOperational, ServiceStatusDegraded,
		ServiceStatusPartialOutage, ServiceStatusMajorOutage:
		return true
	}
	return false
}

// Service represents a monitored component of a product.
type Service struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Status         ServiceStatus `json:"status"`
	OrganizationID string        `json:"organizationId"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// ServiceDetail is a service enriched with its organization and
// currently open incidents. This is the shape returned by service
// reads and carried by service_status_updated broadcasts.
type ServiceDetail struct {
	Service
	Organization *Organization `json:"organization,omitempty"`
	Incidents    []Incident    `json:"incidents"`
}
