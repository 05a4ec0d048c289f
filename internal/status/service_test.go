package status

import (
	"context"
	"errors"
	"testing"

	"github.com/bissquit/statusdeck/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTx implements pgx.Tx for testing. Only Commit and Rollback are
// meaningful; statement execution goes through the repository mock.
type mockTx struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (m *mockTx) Begin(_ context.Context) (pgx.Tx, error) { return m, nil }

func (m *mockTx) Commit(_ context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(_ context.Context) error {
	if m.committed {
		return pgx.ErrTxClosed
	}
	m.rolledBack = true
	return nil
}

func (m *mockTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *mockTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }
func (m *mockTx) LargeObjects() pgx.LargeObjects                             { return pgx.LargeObjects{} }
func (m *mockTx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *mockTx) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (m *mockTx) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return nil, nil }
func (m *mockTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row        { return nil }
func (m *mockTx) Conn() *pgx.Conn                                               { return nil }

// mockRepository implements Repository for testing.
type mockRepository struct {
	services  map[string]*domain.Service
	incidents map[string]*domain.Incident
	updates   map[string]*domain.IncidentUpdate
	orgs      map[string]bool

	tx                *mockTx
	createUpdateErr   error
	syncStatusErr     error
	getDetailErr      error
	statusUpdates     []domain.IncidentStatus
	updateUpdateCalls int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		services:  make(map[string]*domain.Service),
		incidents: make(map[string]*domain.Incident),
		updates:   make(map[string]*domain.IncidentUpdate),
		orgs:      make(map[string]bool),
		tx:        &mockTx{},
	}
}

func (m *mockRepository) CreateService(_ context.Context, service *domain.Service) error {
	service.ID = "svc-new"
	m.services[service.ID] = service
	return nil
}

func (m *mockRepository) GetService(_ context.Context, id string) (*domain.Service, error) {
	if s, ok := m.services[id]; ok {
		return s, nil
	}
	return nil, ErrServiceNotFound
}

func (m *mockRepository) GetServiceDetail(_ context.Context, id string) (*domain.ServiceDetail, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return &domain.ServiceDetail{
		Service:      *s,
		Organization: &domain.Organization{ID: s.OrganizationID},
		Incidents:    []domain.Incident{},
	}, nil
}

func (m *mockRepository) ListServiceDetails(_ context.Context, _ ServiceFilter) ([]domain.ServiceDetail, error) {
	details := make([]domain.ServiceDetail, 0, len(m.services))
	for _, s := range m.services {
		details = append(details, domain.ServiceDetail{Service: *s})
	}
	return details, nil
}

func (m *mockRepository) UpdateService(_ context.Context, service *domain.Service) error {
	if _, ok := m.services[service.ID]; !ok {
		return ErrServiceNotFound
	}
	m.services[service.ID] = service
	return nil
}

func (m *mockRepository) UpdateServiceStatus(_ context.Context, id string, status domain.ServiceStatus) error {
	s, ok := m.services[id]
	if !ok {
		return ErrServiceNotFound
	}
	s.Status = status
	return nil
}

func (m *mockRepository) DeleteService(_ context.Context, id string) error {
	if _, ok := m.services[id]; !ok {
		return ErrServiceNotFound
	}
	delete(m.services, id)
	return nil
}

func (m *mockRepository) CreateIncident(_ context.Context, incident *domain.Incident) error {
	incident.ID = "inc-new"
	m.incidents[incident.ID] = incident
	return nil
}

func (m *mockRepository) GetIncident(_ context.Context, id string) (*domain.Incident, error) {
	if in, ok := m.incidents[id]; ok {
		return in, nil
	}
	return nil, ErrIncidentNotFound
}

func (m *mockRepository) GetIncidentDetail(_ context.Context, id string, withUpdates bool) (*domain.IncidentDetail, error) {
	if m.getDetailErr != nil {
		return nil, m.getDetailErr
	}
	in, ok := m.incidents[id]
	if !ok {
		return nil, ErrIncidentNotFound
	}
	detail := &domain.IncidentDetail{
		Incident:     *in,
		Service:      &domain.Service{ID: in.ServiceID},
		Organization: &domain.Organization{ID: in.OrganizationID},
	}
	if withUpdates {
		detail.Updates = make([]domain.IncidentUpdate, 0, len(m.updates))
		for _, u := range m.updates {
			if u.IncidentID == id {
				detail.Updates = append(detail.Updates, *u)
			}
		}
	}
	return detail, nil
}

func (m *mockRepository) ListIncidentDetails(_ context.Context, _ IncidentFilter) ([]domain.IncidentDetail, error) {
	return nil, nil
}

func (m *mockRepository) UpdateIncident(_ context.Context, incident *domain.Incident) error {
	if _, ok := m.incidents[incident.ID]; !ok {
		return ErrIncidentNotFound
	}
	m.incidents[incident.ID] = incident
	return nil
}

func (m *mockRepository) UpdateIncidentStatus(_ context.Context, id string, status domain.IncidentStatus) error {
	in, ok := m.incidents[id]
	if !ok {
		return ErrIncidentNotFound
	}
	in.Status = status
	m.statusUpdates = append(m.statusUpdates, status)
	return nil
}

func (m *mockRepository) DeleteIncident(_ context.Context, id string) error {
	if _, ok := m.incidents[id]; !ok {
		return ErrIncidentNotFound
	}
	delete(m.incidents, id)
	return nil
}

func (m *mockRepository) ListIncidentUpdates(_ context.Context, incidentID string) ([]domain.IncidentUpdate, error) {
	updates := make([]domain.IncidentUpdate, 0)
	for _, u := range m.updates {
		if u.IncidentID == incidentID {
			updates = append(updates, *u)
		}
	}
	return updates, nil
}

func (m *mockRepository) UpdateIncidentUpdate(_ context.Context, update *domain.IncidentUpdate) error {
	m.updateUpdateCalls++
	if _, ok := m.updates[update.ID]; !ok {
		return errors.New("update incident update: no rows")
	}
	m.updates[update.ID] = update
	return nil
}

func (m *mockRepository) DeleteIncidentUpdate(_ context.Context, id string) error {
	if _, ok := m.updates[id]; !ok {
		return errors.New("delete incident update: no rows")
	}
	delete(m.updates, id)
	return nil
}

func (m *mockRepository) OrganizationExists(_ context.Context, id string) (bool, error) {
	return m.orgs[id], nil
}

func (m *mockRepository) BeginTx(_ context.Context) (pgx.Tx, error) {
	return m.tx, nil
}

func (m *mockRepository) CreateIncidentUpdateTx(_ context.Context, _ pgx.Tx, update *domain.IncidentUpdate) error {
	if m.createUpdateErr != nil {
		return m.createUpdateErr
	}
	update.ID = "upd-new"
	m.updates[update.ID] = update
	return nil
}

func (m *mockRepository) UpdateIncidentStatusTx(ctx context.Context, _ pgx.Tx, id string, status domain.IncidentStatus) error {
	if m.syncStatusErr != nil {
		return m.syncStatusErr
	}
	return m.UpdateIncidentStatus(ctx, id, status)
}

// recordingBroadcaster implements Broadcaster for testing.
type recordingBroadcaster struct {
	serviceEvents []*domain.ServiceDetail
	createdEvents []*domain.IncidentDetail
	updatedEvents []*domain.IncidentDetail
}

func (r *recordingBroadcaster) ServiceStatusUpdated(s *domain.ServiceDetail) {
	r.serviceEvents = append(r.serviceEvents, s)
}

func (r *recordingBroadcaster) IncidentCreated(i *domain.IncidentDetail) {
	r.createdEvents = append(r.createdEvents, i)
}

func (r *recordingBroadcaster) IncidentUpdated(i *domain.IncidentDetail) {
	r.updatedEvents = append(r.updatedEvents, i)
}

func seedService(repo *mockRepository, id, orgID string) {
	repo.orgs[orgID] = true
	repo.services[id] = &domain.Service{
		ID:             id,
		Name:           "Service " + id,
		Status:         domain.ServiceStatusOperational,
		OrganizationID: orgID,
	}
}

func seedIncident(repo *mockRepository, id, serviceID, orgID string) {
	repo.incidents[id] = &domain.Incident{
		ID:             id,
		Title:          "Incident " + id,
		Status:         domain.IncidentStatusOpen,
		ServiceID:      serviceID,
		OrganizationID: orgID,
	}
}

func TestCreateService_DefaultsToOperational(t *testing.T) {
	repo := newMockRepository()
	repo.orgs["org-1"] = true
	service := NewService(repo, nil)

	detail, err := service.CreateService(context.Background(), CreateServiceInput{
		Name:           "API",
		OrganizationID: "org-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ServiceStatusOperational, detail.Status)
}

func TestCreateService_UnknownOrganization(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, nil)

	_, err := service.CreateService(context.Background(), CreateServiceInput{
		Name:           "API",
		OrganizationID: "nope",
	})
	assert.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestSetServiceStatus_BroadcastsEnrichedService(t *testing.T) {
	repo := newMockRepository()
	seedService(repo, "svc-1", "org-1")
	broadcaster := &recordingBroadcaster{}
	service := NewService(repo, broadcaster)

	detail, err := service.SetServiceStatus(context.Background(), "svc-1", domain.ServiceStatusMajorOutage)
	require.NoError(t, err)
	assert.Equal(t, domain.ServiceStatusMajorOutage, detail.Status)

	require.Len(t, broadcaster.serviceEvents, 1)
	assert.Equal(t, "svc-1", broadcaster.serviceEvents[0].ID)
	require.NotNil(t, broadcaster.serviceEvents[0].Organization)
}

func TestSetServiceStatus_InvalidStatus(t *testing.T) {
	repo := newMockRepository()
	seedService(repo, "svc-1", "org-1")
	broadcaster := &recordingBroadcaster{}
	service := NewService(repo, broadcaster)

	_, err := service.SetServiceStatus(context.Background(), "svc-1", "sideways")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Empty(t, broadcaster.serviceEvents)
}

func TestSetServiceStatus_UnknownService(t *testing.T) {
	repo := newMockRepository()
	broadcaster := &recordingBroadcaster{}
	service := NewService(repo, broadcaster)

	_, err := service.SetServiceStatus(context.Background(), "ghost", domain.ServiceStatusDegraded)
	assert.ErrorIs(t, err, ErrServiceNotFound)
	assert.Empty(t, broadcaster.serviceEvents)
}

func TestCreateIncident_DefaultsToOpenAndBroadcasts(t *testing.T) {
	repo := newMockRepository()
	seedService(repo, "svc-1", "org-1")
	broadcaster := &recordingBroadcaster{}
	service := NewService(repo, broadcaster)

	detail, err := service.CreateIncident(context.Background(), CreateIncidentInput{
		Title:          "Degraded checkout",
		ServiceID:      "svc-1",
		OrganizationID: "org-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusOpen, detail.Status)

	require.Len(t, broadcaster.createdEvents, 1)
	assert.Equal(t, detail.ID, broadcaster.createdEvents[0].ID)
	assert.Nil(t, broadcaster.createdEvents[0].Updates)
}

func TestCreateIncident_UnknownService(t *testing.T) {
	repo := newMockRepository()
	repo.orgs["org-1"] = true
	service := NewService(repo, nil)

	_, err := service.CreateIncident(context.Background(), CreateIncidentInput{
		ServiceID:      "ghost",
		OrganizationID: "org-1",
	})
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestSetIncidentStatus_BroadcastsWithoutTimeline(t *testing.T) {
	repo := newMockRepository()
	seedService(repo, "svc-1", "org-1")
	seedIncident(repo, "inc-1", "svc-1", "org-1")
	broadcaster := &recordingBroadcaster{}
	service := NewService(repo, broadcaster)

	detail, err := service.SetIncidentStatus(context.Background(), "inc-1", domain.IncidentStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusResolved, detail.Status)

	require.Len(t, broadcaster.updatedEvents, 1)
	assert.Nil(t, broadcaster.updatedEvents[0].Updates)
}

func TestAppendIncidentUpdate_SyncsParentInOneTransaction(t *testing.T) {
	repo := newMockRepository()
	seedService(repo, "svc-1", "org-1")
	seedIncident(repo, "inc-1", "svc-1", "org-1")
	broadcaster := &recordingBroadcaster{}
	service := NewService(repo, broadcaster)

	update, err := service.AppendIncidentUpdate(context.Background(), "inc-1", "Mitigated", domain.IncidentStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, "Mitigated", update.Message)
	assert.True(t, repo.tx.committed)

	// Parent status follows the appended entry
	assert.Equal(t, domain.IncidentStatusResolved, repo.incidents["inc-1"].Status)

	// Broadcast carries the full incident with its timeline
	require.Len(t, broadcaster.updatedEvents, 1)
	require.Len(t, broadcaster.updatedEvents[0].Updates, 1)
	assert.Equal(t, "Mitigated", broadcaster.updatedEvents[0].Updates[0].Message)
}

func TestAppendIncidentUpdate_RollsBackOnSyncFailure(t *testing.T) {
	repo := newMockRepository()
	seedService(repo, "svc-1", "org-1")
	seedIncident(repo, "inc-1", "svc-1", "org-1")
	repo.syncStatusErr = errors.New("deadlock")
	broadcaster := &recordingBroadcaster{}
	service := NewService(repo, broadcaster)

	_, err := service.AppendIncidentUpdate(context.Background(), "inc-1", "boom", domain.IncidentStatusResolved)
	require.Error(t, err)
	assert.False(t, repo.tx.committed)
	assert.True(t, repo.tx.rolledBack)
	assert.Empty(t, broadcaster.updatedEvents)
}

func TestAppendIncidentUpdate_UnknownIncident(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, nil)

	_, err := service.AppendIncidentUpdate(context.Background(), "ghost", "hi", domain.IncidentStatusOpen)
	assert.ErrorIs(t, err, ErrIncidentNotFound)
}

func TestAppendIncidentUpdate_InvalidStatus(t *testing.T) {
	repo := newMockRepository()
	seedIncident(repo, "inc-1", "svc-1", "org-1")
	service := NewService(repo, nil)

	_, err := service.AppendIncidentUpdate(context.Background(), "inc-1", "hi", "BROKEN")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestEditIncidentUpdate_DoesNotSyncParent(t *testing.T) {
	repo := newMockRepository()
	seedService(repo, "svc-1", "org-1")
	seedIncident(repo, "inc-1", "svc-1", "org-1")
	repo.updates["upd-1"] = &domain.IncidentUpdate{
		ID:         "upd-1",
		IncidentID: "inc-1",
		Message:    "original",
		Status:     domain.IncidentStatusOpen,
	}
	broadcaster := &recordingBroadcaster{}
	service := NewService(repo, broadcaster)

	update, err := service.EditIncidentUpdate(context.Background(), "upd-1", "rewritten", domain.IncidentStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, "rewritten", update.Message)

	// One-way sync runs only on append
	assert.Equal(t, domain.IncidentStatusOpen, repo.incidents["inc-1"].Status)
	assert.Empty(t, repo.statusUpdates)
	assert.Empty(t, broadcaster.updatedEvents)
}

func TestEditIncidentUpdate_UnknownIDSurfacesStoreError(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo, nil)

	_, err := service.EditIncidentUpdate(context.Background(), "ghost", "hi", domain.IncidentStatusOpen)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIncidentNotFound)
}
