package domain

import "time"

// Role is a member's role within an organization.
type Role string

// Roles.
const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// IsValid checks if the role is valid.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleMember
}

// User is a staff account. Authentication is handled by an external
// collaborator; users here are plain directory records.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrganizationMember links a user to an organization with a role.
type OrganizationMember struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	OrganizationID string    `json:"organizationId"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
}

// MemberDetail is a membership enriched with its user and organization.
type MemberDetail struct {
	OrganizationMember
	User         *User         `json:"user,omitempty"`
	Organization *Organization `json:"organization,omitempty"`
}

// UserDetail is a user enriched with their memberships.
type UserDetail struct {
	User
	Memberships []MemberDetail `json:"orgs"`
}
