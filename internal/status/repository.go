package status

import (
	"context"

	"github.com/bissquit/statusdeck/internal/domain"
	"github.com/jackc/pgx/v5"
)

// Repository defines the interface for service/incident storage.
type Repository interface {
	CreateService(ctx context.Context, service *domain.Service) error
	GetService(ctx context.Context, id string) (*domain.Service, error)
	GetServiceDetail(ctx context.Context, id string) (*domain.ServiceDetail, error)
	ListServiceDetails(ctx context.Context, filter ServiceFilter) ([]domain.ServiceDetail, error)
	UpdateService(ctx context.Context, service *domain.Service) error
	UpdateServiceStatus(ctx context.Context, id string, status domain.ServiceStatus) error
	DeleteService(ctx context.Context, id string) error

	CreateIncident(ctx context.Context, incident *domain.Incident) error
	GetIncident(ctx context.Context, id string) (*domain.Incident, error)
	// GetIncidentDetail loads an incident with its service and organization;
	// withUpdates additionally loads the newest-first update timeline.
	GetIncidentDetail(ctx context.Context, id string, withUpdates bool) (*domain.IncidentDetail, error)
	ListIncidentDetails(ctx context.Context, filter IncidentFilter) ([]domain.IncidentDetail, error)
	UpdateIncident(ctx context.Context, incident *domain.Incident) error
	UpdateIncidentStatus(ctx context.Context, id string, status domain.IncidentStatus) error
	DeleteIncident(ctx context.Context, id string) error

	ListIncidentUpdates(ctx context.Context, incidentID string) ([]domain.IncidentUpdate, error)
	UpdateIncidentUpdate(ctx context.Context, update *domain.IncidentUpdate) error
	DeleteIncidentUpdate(ctx context.Context, id string) error

	OrganizationExists(ctx context.Context, id string) (bool, error)

	// Transaction support for the append-update + parent-status pair.
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CreateIncidentUpdateTx(ctx context.Context, tx pgx.Tx, update *domain.IncidentUpdate) error
	UpdateIncidentStatusTx(ctx context.Context, tx pgx.Tx, id string, status domain.IncidentStatus) error
}

// ServiceFilter holds filter options for listing services.
type ServiceFilter struct {
	OrganizationID *string
}

// IncidentFilter holds filter options for listing incidents.
type IncidentFilter struct {
	OrganizationID *string
	Status         *domain.IncidentStatus
}

// Broadcaster publishes state-change events to connected viewers.
// Implementations must be fire-and-forget: never block, never fail.
type Broadcaster interface {
	ServiceStatusUpdated(service *domain.ServiceDetail)
	IncidentCreated(incident *domain.IncidentDetail)
	IncidentUpdated(incident *domain.IncidentDetail)
}
