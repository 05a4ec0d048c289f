// Package status implements the service/incident status engine: it
// validates and applies status transitions, maintains the append-only
// incident update timeline, and hands committed changes to the
// realtime broadcaster.
package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bissquit/statusdeck/internal/domain"
	"github.com/jackc/pgx/v5"
)

// Service implements status engine business logic and the composed
// read paths for services, incidents and incident updates.
type Service struct {
	repo        Repository
	broadcaster Broadcaster
}

// NewService creates a new status service. broadcaster may be nil, in
// which case state changes are applied without fan-out.
func NewService(repo Repository, broadcaster Broadcaster) *Service {
	return &Service{
		repo:        repo,
		broadcaster: broadcaster,
	}
}

// CreateServiceInput holds data for registering a service.
type CreateServiceInput struct {
	Name           string
	OrganizationID string
	Status         domain.ServiceStatus
}

// UpdateServiceInput holds data for updating a service record.
type UpdateServiceInput struct {
	Name   string
	Status domain.ServiceStatus
}

// CreateIncidentInput holds data for opening an incident.
type CreateIncidentInput struct {
	Title          string
	Description    string
	ServiceID      string
	OrganizationID string
	Status         domain.IncidentStatus
}

// UpdateIncidentInput holds data for editing an incident record.
type UpdateIncidentInput struct {
	Title       string
	Description string
	Status      domain.IncidentStatus
}

// CreateService registers a new service under an organization.
// Status defaults to OPERATIONAL when empty.
func (s *Service) CreateService(ctx context.Context, input CreateServiceInput) (*domain.ServiceDetail, error) {
	if input.Status == "" {
		input.Status = domain.ServiceStatusOperational
	}
	if !input.Status.IsValid() {
		return nil, ErrInvalidStatus
	}

	exists, err := s.repo.OrganizationExists(ctx, input.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("check organization: %w", err)
	}
	if !exists {
		return nil, ErrOrganizationNotFound
	}

	service := &domain.Service{
		Name:           input.Name,
		Status:         input.Status,
		OrganizationID: input.OrganizationID,
	}
	if err := s.repo.CreateService(ctx, service); err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	return s.repo.GetServiceDetail(ctx, service.ID)
}

// SetServiceStatus overwrites a service's status. Only the status field
// changes; the service's incidents are untouched (service status is
// never derived from incidents). On success the enriched service is
// broadcast as service_status_updated.
func (s *Service) SetServiceStatus(ctx context.Context, serviceID string, newStatus domain.ServiceStatus) (*domain.ServiceDetail, error) {
	if !newStatus.IsValid() {
		return nil, ErrInvalidStatus
	}

	if err := s.repo.UpdateServiceStatus(ctx, serviceID, newStatus); err != nil {
		return nil, err
	}

	detail, err := s.repo.GetServiceDetail(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("get updated service: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.ServiceStatusUpdated(detail)
	}
	return detail, nil
}

// UpdateService replaces a service's name and status.
func (s *Service) UpdateService(ctx context.Context, id string, input UpdateServiceInput) (*domain.ServiceDetail, error) {
	if !input.Status.IsValid() {
		return nil, ErrInvalidStatus
	}

	service, err := s.repo.GetService(ctx, id)
	if err != nil {
		return nil, err
	}

	service.Name = input.Name
	service.Status = input.Status
	if err := s.repo.UpdateService(ctx, service); err != nil {
		return nil, fmt.Errorf("update service: %w", err)
	}

	return s.repo.GetServiceDetail(ctx, id)
}

// DeleteService removes a service. Hard delete; associated incidents go
// with it via the schema's referential rules.
func (s *Service) DeleteService(ctx context.Context, id string) error {
	return s.repo.DeleteService(ctx, id)
}

// ListServices returns all services with their organization and
// currently open incidents.
func (s *Service) ListServices(ctx context.Context) ([]domain.ServiceDetail, error) {
	return s.repo.ListServiceDetails(ctx, ServiceFilter{})
}

// ListServicesForOrganization returns an organization's services with
// the same nesting as ListServices.
func (s *Service) ListServicesForOrganization(ctx context.Context, orgID string) ([]domain.ServiceDetail, error) {
	return s.repo.ListServiceDetails(ctx, ServiceFilter{OrganizationID: &orgID})
}

// CreateIncident opens an incident against a service. Status defaults
// to OPEN. Title and description may be empty. On success the enriched
// incident is broadcast as incident_created.
func (s *Service) CreateIncident(ctx context.Context, input CreateIncidentInput) (*domain.IncidentDetail, error) {
	if input.Status == "" {
		input.Status = domain.IncidentStatusOpen
	}
	if !input.Status.IsValid() {
		return nil, ErrInvalidStatus
	}

	if _, err := s.repo.GetService(ctx, input.ServiceID); err != nil {
		return nil, err
	}
	exists, err := s.repo.OrganizationExists(ctx, input.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("check organization: %w", err)
	}
	if !exists {
		return nil, ErrOrganizationNotFound
	}

	incident := &domain.Incident{
		Title:          input.Title,
		Description:    input.Description,
		Status:         input.Status,
		ServiceID:      input.ServiceID,
		OrganizationID: input.OrganizationID,
	}
	if err := s.repo.CreateIncident(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}

	detail, err := s.repo.GetIncidentDetail(ctx, incident.ID, false)
	if err != nil {
		return nil, fmt.Errorf("get created incident: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.IncidentCreated(detail)
	}
	return detail, nil
}

// SetIncidentStatus overwrites an incident's status without appending a
// timeline entry. Broadcasts incident_updated with service and
// organization but without the update timeline.
func (s *Service) SetIncidentStatus(ctx context.Context, incidentID string, newStatus domain.IncidentStatus) (*domain.IncidentDetail, error) {
	if !newStatus.IsValid() {
		return nil, ErrInvalidStatus
	}

	if err := s.repo.UpdateIncidentStatus(ctx, incidentID, newStatus); err != nil {
		return nil, err
	}

	detail, err := s.repo.GetIncidentDetail(ctx, incidentID, false)
	if err != nil {
		return nil, fmt.Errorf("get updated incident: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.IncidentUpdated(detail)
	}
	return detail, nil
}

// UpdateIncident replaces an incident's title, description and status.
func (s *Service) UpdateIncident(ctx context.Context, id string, input UpdateIncidentInput) (*domain.IncidentDetail, error) {
	if !input.Status.IsValid() {
		return nil, ErrInvalidStatus
	}

	incident, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return nil, err
	}

	incident.Title = input.Title
	incident.Description = input.Description
	incident.Status = input.Status
	if err := s.repo.UpdateIncident(ctx, incident); err != nil {
		return nil, fmt.Errorf("update incident: %w", err)
	}

	detail, err := s.repo.GetIncidentDetail(ctx, id, false)
	if err != nil {
		return nil, fmt.Errorf("get updated incident: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.IncidentUpdated(detail)
	}
	return detail, nil
}

// DeleteIncident removes an incident and its updates.
func (s *Service) DeleteIncident(ctx context.Context, id string) error {
	return s.repo.DeleteIncident(ctx, id)
}

// ListOpenIncidents returns all OPEN incidents with service,
// organization and update timeline, newest-created first.
func (s *Service) ListOpenIncidents(ctx context.Context) ([]domain.IncidentDetail, error) {
	open := domain.IncidentStatusOpen
	return s.repo.ListIncidentDetails(ctx, IncidentFilter{Status: &open})
}

// ListIncidentsForOrganization returns an organization's incidents
// regardless of status, same nesting, newest first.
func (s *Service) ListIncidentsForOrganization(ctx context.Context, orgID string) ([]domain.IncidentDetail, error) {
	return s.repo.ListIncidentDetails(ctx, IncidentFilter{OrganizationID: &orgID})
}

// AppendIncidentUpdate appends a timeline entry and overwrites the
// parent incident's status to match. Both writes happen in one
// transaction so readers never observe the pair half-applied. Returns
// the created update; the broadcast carries the full incident with the
// fresh timeline so viewers can replace their record in one merge.
//
// Concurrent appends against the same incident remain last-write-wins
// for the incident status; there is no cross-call serialization.
func (s *Service) AppendIncidentUpdate(ctx context.Context, incidentID, message string, newStatus domain.IncidentStatus) (*domain.IncidentUpdate, error) {
	if !newStatus.IsValid() {
		return nil, ErrInvalidStatus
	}

	if _, err := s.repo.GetIncident(ctx, incidentID); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	update := &domain.IncidentUpdate{
		IncidentID: incidentID,
		Message:    message,
		Status:     newStatus,
	}
	if err := s.repo.CreateIncidentUpdateTx(ctx, tx, update); err != nil {
		return nil, fmt.Errorf("create incident update: %w", err)
	}

	if err := s.repo.UpdateIncidentStatusTx(ctx, tx, incidentID, newStatus); err != nil {
		return nil, fmt.Errorf("sync incident status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	detail, err := s.repo.GetIncidentDetail(ctx, incidentID, true)
	if err != nil {
		// The write is committed; viewers catch up on next snapshot.
		slog.Error("failed to load incident for broadcast", "incident_id", incidentID, "error", err)
		return update, nil
	}

	if s.broadcaster != nil {
		s.broadcaster.IncidentUpdated(detail)
	}
	return update, nil
}

// ListIncidentUpdates returns an incident's timeline, newest first.
func (s *Service) ListIncidentUpdates(ctx context.Context, incidentID string) ([]domain.IncidentUpdate, error) {
	return s.repo.ListIncidentUpdates(ctx, incidentID)
}

// EditIncidentUpdate rewrites an existing timeline entry. The parent
// incident's status is NOT touched: the one-way sync runs only on
// append. An unknown id surfaces as a store error.
func (s *Service) EditIncidentUpdate(ctx context.Context, id, message string, newStatus domain.IncidentStatus) (*domain.IncidentUpdate, error) {
	if !newStatus.IsValid() {
		return nil, ErrInvalidStatus
	}

	update := &domain.IncidentUpdate{
		ID:      id,
		Message: message,
		Status:  newStatus,
	}
	if err := s.repo.UpdateIncidentUpdate(ctx, update); err != nil {
		return nil, err
	}
	return update, nil
}

// DeleteIncidentUpdate removes a timeline entry. An unknown id surfaces
// as a store error.
func (s *Service) DeleteIncidentUpdate(ctx context.Context, id string) error {
	return s.repo.DeleteIncidentUpdate(ctx, id)
}
