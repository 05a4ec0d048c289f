package status

import "errors"

// Sentinel errors returned by the status engine.
var (
	ErrServiceNotFound      = errors.New("service not found")
	ErrIncidentNotFound     = errors.New("incident not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrInvalidStatus        = errors.New("invalid status")
)
