// Package postgres provides the PostgreSQL implementation of the status repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/statusdeck/internal/domain"
	"github.com/bissquit/statusdeck/internal/status"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the status.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateService creates a new service in the database.
func (r *Repository) CreateService(ctx context.Context, service *domain.Service) error {
	query := `
		INSERT INTO services (name, status, organization_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		service.Name,
		service.Status,
		service.OrganizationID,
	).Scan(&service.ID, &service.CreatedAt, &service.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

// GetService retrieves a service by its ID.
func (r *Repository) GetService(ctx context.Context, id string) (*domain.Service, error) {
	query := `
		SELECT id, name, status, organization_id, created_at, updated_at
		FROM services
		WHERE id = $1
	`
	var service domain.Service
	err := r.db.QueryRow(ctx, query, id).Scan(
		&service.ID,
		&service.Name,
		&service.Status,
		&service.OrganizationID,
		&service.CreatedAt,
		&service.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, status.ErrServiceNotFound
		}
		return nil, fmt.Errorf("get service by id: %w", err)
	}
	return &service, nil
}

// GetServiceDetail retrieves a service with its organization and open incidents.
func (r *Repository) GetServiceDetail(ctx context.Context, id string) (*domain.ServiceDetail, error) {
	service, err := r.GetService(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &domain.ServiceDetail{Service: *service}

	org, err := r.getOrganization(ctx, service.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("get service organization: %w", err)
	}
	detail.Organization = org

	incidents, err := r.getOpenIncidentsForService(ctx, service.ID)
	if err != nil {
		return nil, fmt.Errorf("get service incidents: %w", err)
	}
	detail.Incidents = incidents

	return detail, nil
}

// ListServiceDetails retrieves services matching the filter, newest first,
// each with its organization and open incidents.
func (r *Repository) ListServiceDetails(ctx context.Context, filter status.ServiceFilter) ([]domain.ServiceDetail, error) {
	query := `
		SELECT id, name, status, organization_id, created_at, updated_at
		FROM services
	`
	var args []interface{}
	if filter.OrganizationID != nil {
		query += " WHERE organization_id = $1"
		args = append(args, *filter.OrganizationID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	details := make([]domain.ServiceDetail, 0)
	for rows.Next() {
		var service domain.Service
		err := rows.Scan(
			&service.ID,
			&service.Name,
			&service.Status,
			&service.OrganizationID,
			&service.CreatedAt,
			&service.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		details = append(details, domain.ServiceDetail{Service: service})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}

	for i := range details {
		org, err := r.getOrganization(ctx, details[i].OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("get service organization: %w", err)
		}
		details[i].Organization = org

		incidents, err := r.getOpenIncidentsForService(ctx, details[i].ID)
		if err != nil {
			return nil, fmt.Errorf("get service incidents: %w", err)
		}
		details[i].Incidents = incidents
	}

	return details, nil
}

// UpdateService updates a service's name and status.
func (r *Repository) UpdateService(ctx context.Context, service *domain.Service) error {
	query := `
		UPDATE services
		SET name = $2, status = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		service.ID,
		service.Name,
		service.Status,
	).Scan(&service.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return status.ErrServiceNotFound
		}
		return fmt.Errorf("update service: %w", err)
	}
	return nil
}

// UpdateServiceStatus overwrites a service's status.
func (r *Repository) UpdateServiceStatus(ctx context.Context, id string, st domain.ServiceStatus) error {
	query := `UPDATE services SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id, st)
	if err != nil {
		return fmt.Errorf("update service status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return status.ErrServiceNotFound
	}
	return nil
}

// DeleteService deletes a service by its ID. Incidents and their updates
// cascade with it.
func (r *Repository) DeleteService(ctx context.Context, id string) error {
	query := `DELETE FROM services WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if result.RowsAffected() == 0 {
		return status.ErrServiceNotFound
	}
	return nil
}

// CreateIncident creates a new incident in the database.
func (r *Repository) CreateIncident(ctx context.Context, incident *domain.Incident) error {
	query := `
		INSERT INTO incidents (title, description, status, service_id, organization_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		incident.Title,
		incident.Description,
		incident.Status,
		incident.ServiceID,
		incident.OrganizationID,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create incident: %w", err)
	}
	return nil
}

// GetIncident retrieves an incident by its ID.
func (r *Repository) GetIncident(ctx context.Context, id string) (*domain.Incident, error) {
	query := `
		SELECT id, title, description, status, service_id, organization_id, created_at, updated_at
		FROM incidents
		WHERE id = $1
	`
	var incident domain.Incident
	err := r.db.QueryRow(ctx, query, id).Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&incident.Status,
		&incident.ServiceID,
		&incident.OrganizationID,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, status.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("get incident by id: %w", err)
	}
	return &incident, nil
}

// GetIncidentDetail retrieves an incident with its service and organization.
// When withUpdates is true the newest-first update timeline is loaded too.
func (r *Repository) GetIncidentDetail(ctx context.Context, id string, withUpdates bool) (*domain.IncidentDetail, error) {
	incident, err := r.GetIncident(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &domain.IncidentDetail{Incident: *incident}

	if err := r.enrichIncident(ctx, detail); err != nil {
		return nil, err
	}

	if withUpdates {
		updates, err := r.ListIncidentUpdates(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get incident updates: %w", err)
		}
		detail.Updates = updates
	}

	return detail, nil
}

// ListIncidentDetails retrieves incidents matching the filter, newest first,
// each with its service, organization and update timeline.
func (r *Repository) ListIncidentDetails(ctx context.Context, filter status.IncidentFilter) ([]domain.IncidentDetail, error) {
	query := `
		SELECT id, title, description, status, service_id, organization_id, created_at, updated_at
		FROM incidents
		WHERE 1=1
	`
	var args []interface{}
	argNum := 1

	if filter.OrganizationID != nil {
		query += fmt.Sprintf(" AND organization_id = $%d", argNum)
		args = append(args, *filter.OrganizationID)
		argNum++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, *filter.Status)
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	details := make([]domain.IncidentDetail, 0)
	for rows.Next() {
		var incident domain.Incident
		err := rows.Scan(
			&incident.ID,
			&incident.Title,
			&incident.Description,
			&incident.Status,
			&incident.ServiceID,
			&incident.OrganizationID,
			&incident.CreatedAt,
			&incident.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		details = append(details, domain.IncidentDetail{Incident: incident})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}

	for i := range details {
		if err := r.enrichIncident(ctx, &details[i]); err != nil {
			return nil, err
		}
		updates, err := r.ListIncidentUpdates(ctx, details[i].ID)
		if err != nil {
			return nil, fmt.Errorf("get incident updates: %w", err)
		}
		details[i].Updates = updates
	}

	return details, nil
}

// UpdateIncident updates an incident's title, description and status.
func (r *Repository) UpdateIncident(ctx context.Context, incident *domain.Incident) error {
	query := `
		UPDATE incidents
		SET title = $2, description = $3, status = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		incident.ID,
		incident.Title,
		incident.Description,
		incident.Status,
	).Scan(&incident.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return status.ErrIncidentNotFound
		}
		return fmt.Errorf("update incident: %w", err)
	}
	return nil
}

// UpdateIncidentStatus overwrites an incident's status.
func (r *Repository) UpdateIncidentStatus(ctx context.Context, id string, st domain.IncidentStatus) error {
	query := `UPDATE incidents SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id, st)
	if err != nil {
		return fmt.Errorf("update incident status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return status.ErrIncidentNotFound
	}
	return nil
}

// DeleteIncident deletes an incident by its ID. Its updates cascade.
func (r *Repository) DeleteIncident(ctx context.Context, id string) error {
	query := `DELETE FROM incidents WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete incident: %w", err)
	}
	if result.RowsAffected() == 0 {
		return status.ErrIncidentNotFound
	}
	return nil
}

// ListIncidentUpdates retrieves an incident's update timeline, newest first.
func (r *Repository) ListIncidentUpdates(ctx context.Context, incidentID string) ([]domain.IncidentUpdate, error) {
	query := `
		SELECT id, incident_id, message, status, created_at
		FROM incident_updates
		WHERE incident_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, incidentID)
	if err != nil {
		return nil, fmt.Errorf("list incident updates: %w", err)
	}
	defer rows.Close()

	updates := make([]domain.IncidentUpdate, 0)
	for rows.Next() {
		var update domain.IncidentUpdate
		err := rows.Scan(
			&update.ID,
			&update.IncidentID,
			&update.Message,
			&update.Status,
			&update.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan incident update: %w", err)
		}
		updates = append(updates, update)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incident updates: %w", err)
	}

	return updates, nil
}

// UpdateIncidentUpdate rewrites an existing incident update's message and
// status. An unknown id is a plain storage error, not a sentinel.
func (r *Repository) UpdateIncidentUpdate(ctx context.Context, update *domain.IncidentUpdate) error {
	query := `
		UPDATE incident_updates
		SET message = $2, status = $3
		WHERE id = $1
		RETURNING incident_id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		update.ID,
		update.Message,
		update.Status,
	).Scan(&update.IncidentID, &update.CreatedAt)

	if err != nil {
		return fmt.Errorf("update incident update: %w", err)
	}
	return nil
}

// DeleteIncidentUpdate deletes an incident update by its ID. An unknown id
// is a plain storage error, not a sentinel.
func (r *Repository) DeleteIncidentUpdate(ctx context.Context, id string) error {
	query := `DELETE FROM incident_updates WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete incident update: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete incident update: no row with id %s", id)
	}
	return nil
}

// OrganizationExists reports whether an organization with the given id exists.
func (r *Repository) OrganizationExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM organizations WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check organization exists: %w", err)
	}
	return exists, nil
}

// BeginTx starts a new transaction.
func (r *Repository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

// CreateIncidentUpdateTx creates a new incident update within a transaction.
func (r *Repository) CreateIncidentUpdateTx(ctx context.Context, tx pgx.Tx, update *domain.IncidentUpdate) error {
	query := `
		INSERT INTO incident_updates (incident_id, message, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := tx.QueryRow(ctx, query,
		update.IncidentID,
		update.Message,
		update.Status,
	).Scan(&update.ID, &update.CreatedAt)

	if err != nil {
		return fmt.Errorf("create incident update: %w", err)
	}
	return nil
}

// UpdateIncidentStatusTx overwrites an incident's status within a transaction.
func (r *Repository) UpdateIncidentStatusTx(ctx context.Context, tx pgx.Tx, id string, st domain.IncidentStatus) error {
	query := `UPDATE incidents SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := tx.Exec(ctx, query, id, st)
	if err != nil {
		return fmt.Errorf("update incident status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return status.ErrIncidentNotFound
	}
	return nil
}

// getOrganization loads one organization row.
func (r *Repository) getOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`
	var org domain.Organization
	err := r.db.QueryRow(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, status.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &org, nil
}

// getOpenIncidentsForService loads a service's currently open incidents,
// newest first.
func (r *Repository) getOpenIncidentsForService(ctx context.Context, serviceID string) ([]domain.Incident, error) {
	query := `
		SELECT id, title, description, status, service_id, organization_id, created_at, updated_at
		FROM incidents
		WHERE service_id = $1 AND status = $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, serviceID, domain.IncidentStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("list open incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]domain.Incident, 0)
	for rows.Next() {
		var incident domain.Incident
		err := rows.Scan(
			&incident.ID,
			&incident.Title,
			&incident.Description,
			&incident.Status,
			&incident.ServiceID,
			&incident.OrganizationID,
			&incident.CreatedAt,
			&incident.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		incidents = append(incidents, incident)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}

	return incidents, nil
}

// enrichIncident attaches the incident's service and organization.
func (r *Repository) enrichIncident(ctx context.Context, detail *domain.IncidentDetail) error {
	service, err := r.GetService(ctx, detail.ServiceID)
	if err != nil {
		return fmt.Errorf("get incident service: %w", err)
	}
	detail.Service = service

	org, err := r.getOrganization(ctx, detail.OrganizationID)
	if err != nil {
		return fmt.Errorf("get incident organization: %w", err)
	}
	detail.Organization = org

	return nil
}
