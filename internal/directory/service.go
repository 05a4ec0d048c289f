// Package directory manages the staff directory: users, organizations
// and organization memberships. Plain record keeping; no broadcast side
// effects and no authentication, which lives in an external system.
package directory

import (
	"context"
	"fmt"

	"github.com/bissquit/statusdeck/internal/domain"
)

// Service implements directory business logic.
type Service struct {
	repo Repository
}

// NewService creates a new directory service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateUserInput holds data for creating a user.
type CreateUserInput struct {
	Email string
	Name  *string
}

// UpdateUserInput holds data for updating a user.
type UpdateUserInput struct {
	Email string
	Name  *string
}

// CreateUser creates a new directory user.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	user := &domain.User{
		Email: input.Email,
		Name:  input.Name,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser returns a user with their memberships, each carrying the
// organization record.
func (s *Service) GetUser(ctx context.Context, id string) (*domain.UserDetail, error) {
	return s.repo.GetUserDetail(ctx, id)
}

// ListUsers returns all users with their memberships.
func (s *Service) ListUsers(ctx context.Context) ([]domain.UserDetail, error) {
	return s.repo.ListUserDetails(ctx)
}

// UpdateUser replaces a user's email and name.
func (s *Service) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Email = input.Email
	user.Name = input.Name
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user and their memberships.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.repo.DeleteUser(ctx, id)
}

// CreateOrganization creates a new organization.
func (s *Service) CreateOrganization(ctx context.Context, name string) (*domain.Organization, error) {
	org := &domain.Organization{Name: name}
	if err := s.repo.CreateOrganization(ctx, org); err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}
	return org, nil
}

// GetOrganization returns an organization with its services, full
// incident history (newest first) and members.
func (s *Service) GetOrganization(ctx context.Context, id string) (*domain.OrganizationDetail, error) {
	return s.repo.GetOrganizationDetail(ctx, id)
}

// ListOrganizations returns all organizations.
func (s *Service) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	return s.repo.ListOrganizations(ctx)
}

// UpdateOrganization renames an organization.
func (s *Service) UpdateOrganization(ctx context.Context, id, name string) (*domain.Organization, error) {
	org, err := s.repo.GetOrganization(ctx, id)
	if err != nil {
		return nil, err
	}

	org.Name = name
	if err := s.repo.UpdateOrganization(ctx, org); err != nil {
		return nil, fmt.Errorf("update organization: %w", err)
	}
	return org, nil
}

// DeleteOrganization removes an organization. Services, incidents and
// memberships cascade with it.
func (s *Service) DeleteOrganization(ctx context.Context, id string) error {
	return s.repo.DeleteOrganization(ctx, id)
}

// AddMemberInput holds data for adding a user to an organization.
type AddMemberInput struct {
	UserID         string
	OrganizationID string
	Role           domain.Role
}

// AddMember adds a user to an organization. Role defaults to member.
func (s *Service) AddMember(ctx context.Context, input AddMemberInput) (*domain.OrganizationMember, error) {
	if input.Role == "" {
		input.Role = domain.RoleMember
	}
	if !input.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	if _, err := s.repo.GetUser(ctx, input.UserID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetOrganization(ctx, input.OrganizationID); err != nil {
		return nil, err
	}

	member := &domain.OrganizationMember{
		UserID:         input.UserID,
		OrganizationID: input.OrganizationID,
		Role:           input.Role,
	}
	if err := s.repo.CreateMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// ListMembersForOrganization returns an organization's memberships, each
// carrying the user record.
func (s *Service) ListMembersForOrganization(ctx context.Context, orgID string) ([]domain.MemberDetail, error) {
	return s.repo.ListMembersForOrganization(ctx, orgID)
}

// ListMembershipsForUser returns a user's memberships, each carrying the
// organization record.
func (s *Service) ListMembershipsForUser(ctx context.Context, userID string) ([]domain.MemberDetail, error) {
	return s.repo.ListMembershipsForUser(ctx, userID)
}

// SetMemberRole changes a membership's role.
func (s *Service) SetMemberRole(ctx context.Context, id string, role domain.Role) (*domain.OrganizationMember, error) {
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	if err := s.repo.UpdateMemberRole(ctx, id, role); err != nil {
		return nil, err
	}
	return s.repo.GetMember(ctx, id)
}

// RemoveMember removes a membership.
func (s *Service) RemoveMember(ctx context.Context, id string) error {
	return s.repo.DeleteMember(ctx, id)
}
