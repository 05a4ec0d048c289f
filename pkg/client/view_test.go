package client

import (
	"testing"

	"github.com/bissquit/statusdeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serviceDetail(id string, status domain.ServiceStatus) domain.ServiceDetail {
	return domain.ServiceDetail{
		Service: domain.Service{ID: id, Name: "Service " + id, Status: status},
	}
}

func incidentDetail(id string, status domain.IncidentStatus) domain.IncidentDetail {
	return domain.IncidentDetail{
		Incident: domain.Incident{ID: id, Title: "Incident " + id, Status: status},
	}
}

func TestViewServiceStatusUpdateReplacesInPlace(t *testing.T) {
	view := NewView()
	view.SetServices([]domain.ServiceDetail{
		serviceDetail("a", domain.ServiceStatusOperational),
		serviceDetail("b", domain.ServiceStatusOperational),
		serviceDetail("c", domain.ServiceStatusOperational),
	})

	updated := serviceDetail("b", domain.ServiceStatusMajorOutage)
	view.Apply(domain.StreamEvent{
		Type:    domain.StreamServiceStatusUpdated,
		Service: &updated,
	})

	services := view.Services()
	require.Len(t, services, 3)
	// Position is preserved
	assert.Equal(t, "a", services[0].ID)
	assert.Equal(t, "b", services[1].ID)
	assert.Equal(t, "c", services[2].ID)
	assert.Equal(t, domain.ServiceStatusMajorOutage, services[1].Status)
}

func TestViewUnknownServiceIsNoOp(t *testing.T) {
	view := NewView()
	view.SetServices([]domain.ServiceDetail{
		serviceDetail("a", domain.ServiceStatusOperational),
	})

	stranger := serviceDetail("zzz", domain.ServiceStatusDegraded)
	view.Apply(domain.StreamEvent{
		Type:    domain.StreamServiceStatusUpdated,
		Service: &stranger,
	})

	services := view.Services()
	require.Len(t, services, 1)
	assert.Equal(t, "a", services[0].ID)
	assert.Nil(t, view.Service("zzz"))
}

func TestViewIncidentCreatedPrepends(t *testing.T) {
	view := NewView()
	view.SetIncidents([]domain.IncidentDetail{
		incidentDetail("old", domain.IncidentStatusOpen),
	})

	fresh := incidentDetail("new", domain.IncidentStatusOpen)
	view.Apply(domain.StreamEvent{
		Type:     domain.StreamIncidentCreated,
		Incident: &fresh,
	})

	incidents := view.Incidents()
	require.Len(t, incidents, 2)
	assert.Equal(t, "new", incidents[0].ID)
	assert.Equal(t, "old", incidents[1].ID)
}

func TestViewIncidentUpdatedReplacesInPlace(t *testing.T) {
	view := NewView()
	view.SetIncidents([]domain.IncidentDetail{
		incidentDetail("x", domain.IncidentStatusOpen),
		incidentDetail("y", domain.IncidentStatusOpen),
	})

	resolved := incidentDetail("y", domain.IncidentStatusResolved)
	resolved.Updates = []domain.IncidentUpdate{{ID: "u1", Message: "fixed"}}
	view.Apply(domain.StreamEvent{
		Type:     domain.StreamIncidentUpdated,
		Incident: &resolved,
	})

	incidents := view.Incidents()
	require.Len(t, incidents, 2)
	assert.Equal(t, "x", incidents[0].ID)
	assert.Equal(t, domain.IncidentStatusResolved, incidents[1].Status)
	require.Len(t, incidents[1].Updates, 1)
	assert.Equal(t, "fixed", incidents[1].Updates[0].Message)
}

func TestViewIncidentUpdatedUnknownIDIsNoOp(t *testing.T) {
	view := NewView()
	view.SetIncidents([]domain.IncidentDetail{
		incidentDetail("x", domain.IncidentStatusOpen),
	})

	stranger := incidentDetail("zzz", domain.IncidentStatusResolved)
	view.Apply(domain.StreamEvent{
		Type:     domain.StreamIncidentUpdated,
		Incident: &stranger,
	})

	assert.Len(t, view.Incidents(), 1)
	assert.Nil(t, view.Incident("zzz"))
}

func TestViewEventWithoutPayloadIsNoOp(t *testing.T) {
	view := NewView()
	view.SetServices([]domain.ServiceDetail{serviceDetail("a", domain.ServiceStatusOperational)})
	view.SetIncidents([]domain.IncidentDetail{incidentDetail("x", domain.IncidentStatusOpen)})

	view.Apply(domain.StreamEvent{Type: domain.StreamServiceStatusUpdated})
	view.Apply(domain.StreamEvent{Type: domain.StreamIncidentCreated})
	view.Apply(domain.StreamEvent{Type: domain.StreamIncidentUpdated})

	assert.Len(t, view.Services(), 1)
	assert.Len(t, view.Incidents(), 1)
}

func TestViewSnapshotsAreCopies(t *testing.T) {
	view := NewView()
	view.SetServices([]domain.ServiceDetail{serviceDetail("a", domain.ServiceStatusOperational)})

	services := view.Services()
	services[0].Status = domain.ServiceStatusMajorOutage

	// Mutating the returned slice does not touch the view
	got := view.Service("a")
	require.NotNil(t, got)
	assert.Equal(t, domain.ServiceStatusOperational, got.Status)
}

func TestViewBindConsumesUntilClose(t *testing.T) {
	view := NewView()
	view.SetServices([]domain.ServiceDetail{serviceDetail("a", domain.ServiceStatusOperational)})

	events := make(chan domain.StreamEvent, 2)
	degraded := serviceDetail("a", domain.ServiceStatusDegraded)
	events <- domain.StreamEvent{Type: domain.StreamServiceStatusUpdated, Service: &degraded}
	fresh := incidentDetail("i", domain.IncidentStatusOpen)
	events <- domain.StreamEvent{Type: domain.StreamIncidentCreated, Incident: &fresh}
	close(events)

	// Bind returns once the channel closes
	view.Bind(events)

	got := view.Service("a")
	require.NotNil(t, got)
	assert.Equal(t, domain.ServiceStatusDegraded, got.Status)
	assert.Len(t, view.Incidents(), 1)
}
