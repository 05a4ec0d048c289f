// Package postgres provides the PostgreSQL implementation of the directory repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/statusdeck/internal/directory"
	"github.com/bissquit/statusdeck/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

// Repository implements the directory.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// CreateUser creates a new user in the database.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (email, name)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		user.Email,
		user.Name,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return directory.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by its ID.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, name, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user domain.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &user, nil
}

// GetUserDetail retrieves a user with their memberships, each carrying
// the organization record.
func (r *Repository) GetUserDetail(ctx context.Context, id string) (*domain.UserDetail, error) {
	user, err := r.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	memberships, err := r.ListMembershipsForUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user memberships: %w", err)
	}

	return &domain.UserDetail{
		User:        *user,
		Memberships: memberships,
	}, nil
}

// ListUserDetails retrieves all users with their memberships, newest first.
func (r *Repository) ListUserDetails(ctx context.Context) ([]domain.UserDetail, error) {
	query := `
		SELECT id, email, name, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	details := make([]domain.UserDetail, 0)
	for rows.Next() {
		var user domain.User
		err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Name,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		details = append(details, domain.UserDetail{User: user})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	for i := range details {
		memberships, err := r.ListMembershipsForUser(ctx, details[i].ID)
		if err != nil {
			return nil, fmt.Errorf("get user memberships: %w", err)
		}
		details[i].Memberships = memberships
	}

	return details, nil
}

// UpdateUser updates a user's email and name.
func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET email = $2, name = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Name,
	).Scan(&user.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return directory.ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return directory.ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// DeleteUser deletes a user by its ID. Memberships cascade with it.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return directory.ErrUserNotFound
	}
	return nil
}

// CreateOrganization creates a new organization in the database.
func (r *Repository) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	query := `
		INSERT INTO organizations (name)
		VALUES ($1)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, org.Name).
		Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}

// GetOrganization retrieves an organization by its ID.
func (r *Repository) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
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
			return nil, directory.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("get organization by id: %w", err)
	}
	return &org, nil
}

// GetOrganizationDetail retrieves an organization with its services, full
// incident history (newest first) and members.
func (r *Repository) GetOrganizationDetail(ctx context.Context, id string) (*domain.OrganizationDetail, error) {
	org, err := r.GetOrganization(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &domain.OrganizationDetail{Organization: *org}

	services, err := r.listServicesForOrganization(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get organization services: %w", err)
	}
	detail.Services = services

	incidents, err := r.listIncidentsForOrganization(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get organization incidents: %w", err)
	}
	detail.Incidents = incidents

	members, err := r.ListMembersForOrganization(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get organization members: %w", err)
	}
	detail.Members = members

	return detail, nil
}

// ListOrganizations retrieves all organizations, newest first.
func (r *Repository) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM organizations
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	orgs := make([]domain.Organization, 0)
	for rows.Next() {
		var org domain.Organization
		err := rows.Scan(
			&org.ID,
			&org.Name,
			&org.CreatedAt,
			&org.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}

	return orgs, nil
}

// UpdateOrganization renames an organization.
func (r *Repository) UpdateOrganization(ctx context.Context, org *domain.Organization) error {
	query := `
		UPDATE organizations
		SET name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, org.ID, org.Name).Scan(&org.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return directory.ErrOrganizationNotFound
		}
		return fmt.Errorf("update organization: %w", err)
	}
	return nil
}

// DeleteOrganization deletes an organization by its ID. Services,
// incidents and memberships cascade with it.
func (r *Repository) DeleteOrganization(ctx context.Context, id string) error {
	query := `DELETE FROM organizations WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	if result.RowsAffected() == 0 {
		return directory.ErrOrganizationNotFound
	}
	return nil
}

// CreateMember creates a new organization membership.
func (r *Repository) CreateMember(ctx context.Context, member *domain.OrganizationMember) error {
	query := `
		INSERT INTO organization_members (user_id, organization_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		member.UserID,
		member.OrganizationID,
		member.Role,
	).Scan(&member.ID, &member.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return directory.ErrAlreadyMember
		}
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

// GetMember retrieves a membership by its ID.
func (r *Repository) GetMember(ctx context.Context, id string) (*domain.OrganizationMember, error) {
	query := `
		SELECT id, user_id, organization_id, role, created_at
		FROM organization_members
		WHERE id = $1
	`
	var member domain.OrganizationMember
	err := r.db.QueryRow(ctx, query, id).Scan(
		&member.ID,
		&member.UserID,
		&member.OrganizationID,
		&member.Role,
		&member.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member by id: %w", err)
	}
	return &member, nil
}

// ListMembersForOrganization retrieves an organization's memberships,
// each joined with its user.
func (r *Repository) ListMembersForOrganization(ctx context.Context, orgID string) ([]domain.MemberDetail, error) {
	query := `
		SELECT m.id, m.user_id, m.organization_id, m.role, m.created_at,
		       u.id, u.email, u.name, u.created_at, u.updated_at
		FROM organization_members m
		JOIN users u ON m.user_id = u.id
		WHERE m.organization_id = $1
		ORDER BY m.created_at
	`
	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list organization members: %w", err)
	}
	defer rows.Close()

	members := make([]domain.MemberDetail, 0)
	for rows.Next() {
		var detail domain.MemberDetail
		var user domain.User
		err := rows.Scan(
			&detail.ID,
			&detail.UserID,
			&detail.OrganizationID,
			&detail.Role,
			&detail.CreatedAt,
			&user.ID,
			&user.Email,
			&user.Name,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		detail.User = &user
		members = append(members, detail)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}

	return members, nil
}

// ListMembershipsForUser retrieves a user's memberships, each joined
// with its organization.
func (r *Repository) ListMembershipsForUser(ctx context.Context, userID string) ([]domain.MemberDetail, error) {
	query := `
		SELECT m.id, m.user_id, m.organization_id, m.role, m.created_at,
		       o.id, o.name, o.created_at, o.updated_at
		FROM organization_members m
		JOIN organizations o ON m.organization_id = o.id
		WHERE m.user_id = $1
		ORDER BY m.created_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user memberships: %w", err)
	}
	defer rows.Close()

	members := make([]domain.MemberDetail, 0)
	for rows.Next() {
		var detail domain.MemberDetail
		var org domain.Organization
		err := rows.Scan(
			&detail.ID,
			&detail.UserID,
			&detail.OrganizationID,
			&detail.Role,
			&detail.CreatedAt,
			&org.ID,
			&org.Name,
			&org.CreatedAt,
			&org.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		detail.Organization = &org
		members = append(members, detail)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}

	return members, nil
}

// UpdateMemberRole changes a membership's role.
func (r *Repository) UpdateMemberRole(ctx context.Context, id string, role domain.Role) error {
	query := `UPDATE organization_members SET role = $2 WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id, role)
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return directory.ErrMemberNotFound
	}
	return nil
}

// DeleteMember deletes a membership by its ID.
func (r *Repository) DeleteMember(ctx context.Context, id string) error {
	query := `DELETE FROM organization_members WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return directory.ErrMemberNotFound
	}
	return nil
}

// listServicesForOrganization loads an organization's services, newest first.
func (r *Repository) listServicesForOrganization(ctx context.Context, orgID string) ([]domain.Service, error) {
	query := `
		SELECT id, name, status, organization_id, created_at, updated_at
		FROM services
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	services := make([]domain.Service, 0)
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
		services = append(services, service)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}

	return services, nil
}

// listIncidentsForOrganization loads an organization's full incident
// history, newest first.
func (r *Repository) listIncidentsForOrganization(ctx context.Context, orgID string) ([]domain.Incident, error) {
	query := `
		SELECT id, title, description, status, service_id, organization_id, created_at, updated_at
		FROM incidents
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
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
