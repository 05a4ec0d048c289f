//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/bissquit/statusdeck/internal/domain"
	"github.com/bissquit/statusdeck/internal/testutil"
	"github.com/bissquit/statusdeck/pkg/client"
	"github.com/stretchr/testify/require"
)

// createTestOrganization creates an organization and returns its ID.
// The organization is deleted on test cleanup, cascading its services,
// incidents and memberships.
func createTestOrganization(t *testing.T, c *testutil.Client, name string) string {
	t.Helper()

	resp, err := c.POST("/api/organizations", map[string]interface{}{
		"name": name,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var org domain.Organization
	testutil.DecodeJSON(t, resp, &org)

	t.Cleanup(func() {
		resp, err := c.WithoutValidation().DELETE("/api/organizations/" + org.ID)
		if err == nil {
			_ = resp.Body.Close()
		}
	})
	return org.ID
}

// createTestService creates a service under the organization and returns its ID.
func createTestService(t *testing.T, c *testutil.Client, name, orgID string) string {
	t.Helper()

	resp, err := c.POST("/api/services", map[string]interface{}{
		"name":           name,
		"organizationId": orgID,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var service domain.ServiceDetail
	testutil.DecodeJSON(t, resp, &service)
	return service.ID
}

// createTestIncident opens an incident against the service and returns its ID.
func createTestIncident(t *testing.T, c *testutil.Client, title, serviceID, orgID string) string {
	t.Helper()

	resp, err := c.POST("/api/incidents", map[string]interface{}{
		"title":          title,
		"description":    "integration test incident",
		"serviceId":      serviceID,
		"organizationId": orgID,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var incident domain.IncidentDetail
	testutil.DecodeJSON(t, resp, &incident)
	return incident.ID
}

// createTestUser creates a user and returns its ID.
func createTestUser(t *testing.T, c *testutil.Client, email string) string {
	t.Helper()

	resp, err := c.POST("/api/users", map[string]interface{}{
		"email": email,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user domain.User
	testutil.DecodeJSON(t, resp, &user)

	t.Cleanup(func() {
		resp, err := c.WithoutValidation().DELETE("/api/users/" + user.ID)
		if err == nil {
			_ = resp.Body.Close()
		}
	})
	return user.ID
}

// subscribeStream opens an event stream against the test server and
// returns it. The stream is closed on test cleanup.
func subscribeStream(t *testing.T) *client.Stream {
	t.Helper()

	stream := client.NewStream(client.StreamConfig{BaseURL: testServer.URL})
	require.NoError(t, stream.Connect(context.Background()))
	t.Cleanup(stream.Close)

	return stream
}

// waitForEvent reads stream events until one of the wanted type arrives
// or the timeout expires.
func waitForEvent(t *testing.T, stream *client.Stream, eventType domain.StreamEventType, timeout time.Duration) domain.StreamEvent {
	t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case event, ok := <-stream.Events():
			if !ok {
				t.Fatalf("stream closed while waiting for %s", eventType)
			}
			if event.Type == eventType {
				return event
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", eventType)
		}
	}
}

// assertNoEvent asserts that no event arrives on the stream within the window.
func assertNoEvent(t *testing.T, stream *client.Stream, window time.Duration) {
	t.Helper()

	select {
	case event, ok := <-stream.Events():
		if ok {
			t.Fatalf("unexpected %s event", event.Type)
		}
	case <-time.After(window):
	}
}
