package client

import (
	"sync"

	"github.com/bissquit/statusdeck/internal/domain"
)

// View is a local projection of the service and incident lists. It is
// seeded from REST snapshots and then kept current by applying stream
// events. Apply follows the merge rules of the event stream:
//
//   - service_status_updated replaces the matching service in place; an
//     unknown service id is a no-op, never an insert.
//   - incident_created prepends the incident to the list.
//   - incident_updated replaces the matching incident in place; an
//     unknown incident id is a no-op, never an insert.
//
// Order is established by the snapshots and by prepend; Apply never
// re-sorts.
type View struct {
	mu        sync.RWMutex
	services  []domain.ServiceDetail
	incidents []domain.IncidentDetail
}

// NewView creates an empty view.
func NewView() *View {
	return &View{}
}

// SetServices seeds the service list from a snapshot.
func (v *View) SetServices(services []domain.ServiceDetail) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.services = append([]domain.ServiceDetail(nil), services...)
}

// SetIncidents seeds the incident list from a snapshot.
func (v *View) SetIncidents(incidents []domain.IncidentDetail) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.incidents = append([]domain.IncidentDetail(nil), incidents...)
}

// Apply merges one stream event into the view.
func (v *View) Apply(event domain.StreamEvent) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch event.Type {
	case domain.StreamServiceStatusUpdated:
		if event.Service == nil {
			return
		}
		for i := range v.services {
			if v.services[i].ID == event.Service.ID {
				v.services[i] = *event.Service
				return
			}
		}
	case domain.StreamIncidentCreated:
		if event.Incident == nil {
			return
		}
		v.incidents = append([]domain.IncidentDetail{*event.Incident}, v.incidents...)
	case domain.StreamIncidentUpdated:
		if event.Incident == nil {
			return
		}
		for i := range v.incidents {
			if v.incidents[i].ID == event.Incident.ID {
				v.incidents[i] = *event.Incident
				return
			}
		}
	}
}

// Bind consumes a stream's events until its channel closes, applying
// each to the view. It blocks; run it in its own goroutine.
func (v *View) Bind(events <-chan domain.StreamEvent) {
	for event := range events {
		v.Apply(event)
	}
}

// Services returns a copy of the current service list.
func (v *View) Services() []domain.ServiceDetail {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]domain.ServiceDetail(nil), v.services...)
}

// Incidents returns a copy of the current incident list.
func (v *View) Incidents() []domain.IncidentDetail {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]domain.IncidentDetail(nil), v.incidents...)
}

// Service returns the service with the given id, or nil.
func (v *View) Service(id string) *domain.ServiceDetail {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for i := range v.services {
		if v.services[i].ID == id {
			s := v.services[i]
			return &s
		}
	}
	return nil
}

// Incident returns the incident with the given id, or nil.
func (v *View) Incident(id string) *domain.IncidentDetail {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for i := range v.incidents {
		if v.incidents[i].ID == id {
			in := v.incidents[i]
			return &in
		}
	}
	return nil
}
