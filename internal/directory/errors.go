package directory

import "errors"

// Sentinel errors returned by the directory service.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrMemberNotFound       = errors.New("member not found")
	ErrAlreadyMember        = errors.New("user is already a member of this organization")
	ErrInvalidRole          = errors.New("invalid role")
	ErrEmailTaken           = errors.New("email already in use")
)
