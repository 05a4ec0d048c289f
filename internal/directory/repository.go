package directory

import (
	"context"

	"github.com/bissquit/statusdeck/internal/domain"
)

// Repository defines the interface for directory storage.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserDetail(ctx context.Context, id string) (*domain.UserDetail, error)
	ListUserDetails(ctx context.Context) ([]domain.UserDetail, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id string) error

	CreateOrganization(ctx context.Context, org *domain.Organization) error
	GetOrganization(ctx context.Context, id string) (*domain.Organization, error)
	GetOrganizationDetail(ctx context.Context, id string) (*domain.OrganizationDetail, error)
	ListOrganizations(ctx context.Context) ([]domain.Organization, error)
	UpdateOrganization(ctx context.Context, org *domain.Organization) error
	DeleteOrganization(ctx context.Context, id string) error

	CreateMember(ctx context.Context, member *domain.OrganizationMember) error
	GetMember(ctx context.Context, id string) (*domain.OrganizationMember, error)
	ListMembersForOrganization(ctx context.Context, orgID string) ([]domain.MemberDetail, error)
	ListMembershipsForUser(ctx context.Context, userID string) ([]domain.MemberDetail, error)
	UpdateMemberRole(ctx context.Context, id string, role domain.Role) error
	DeleteMember(ctx context.Context, id string) error
}
