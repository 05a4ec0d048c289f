package domain

import "time"

// Organization is the tenant boundary owning services, incidents and members.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrganizationDetail is an organization enriched with its services,
// full incident history (newest first) and members.
type OrganizationDetail struct {
	Organization
	Services  []Service      `json:"services"`
	Incidents []Incident     `json:"incidents"`
	Members   []MemberDetail `json:"members"`
}
