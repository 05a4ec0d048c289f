//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bissquit/statusdeck/internal/domain"
	"github.com/bissquit/statusdeck/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uniqueEmail avoids collisions across runs against the same container.
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

func TestOrganizationDetail(t *testing.T) {
	c := newTestClient(t)
	orgID := createTestOrganization(t, c, "Detail Org")
	serviceID := createTestService(t, c, "Billing", orgID)

	firstIncident := createTestIncident(t, c, "First", serviceID, orgID)
	secondIncident := createTestIncident(t, c, "Second", serviceID, orgID)

	userID := createTestUser(t, c, uniqueEmail("detail-member"))
	resp, err := c.POST("/api/members", map[string]interface{}{
		"userId":         userID,
		"organizationId": orgID,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = c.GET("/api/organizations/" + orgID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail domain.OrganizationDetail
	testutil.DecodeJSON(t, resp, &detail)

	require.Len(t, detail.Services, 1)
	assert.Equal(t, serviceID, detail.Services[0].ID)

	// Full history, newest first
	require.Len(t, detail.Incidents, 2)
	assert.Equal(t, secondIncident, detail.Incidents[0].ID)
	assert.Equal(t, firstIncident, detail.Incidents[1].ID)

	require.Len(t, detail.Members, 1)
	require.NotNil(t, detail.Members[0].User)
	assert.Equal(t, userID, detail.Members[0].User.ID)
	assert.Equal(t, domain.RoleMember, detail.Members[0].Role)
}

func TestOrganizationNotFound(t *testing.T) {
	c := newTestClient(t)

	resp, err := c.GET("/api/organizations/" + uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestUserLifecycle(t *testing.T) {
	c := newTestClient(t)
	email := uniqueEmail("lifecycle")

	resp, err := c.POST("/api/users", map[string]interface{}{
		"email": email,
		"name":  "Dana",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user domain.User
	testutil.DecodeJSON(t, resp, &user)
	require.NotNil(t, user.Name)
	assert.Equal(t, "Dana", *user.Name)

	// Duplicate email conflicts
	resp, err = c.POST("/api/users", map[string]interface{}{
		"email": email,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	// Memberships are nested on reads
	orgID := createTestOrganization(t, c, "User Lifecycle Org")
	resp, err = c.POST("/api/members", map[string]interface{}{
		"userId":         user.ID,
		"organizationId": orgID,
		"role":           "admin",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = c.GET("/api/users/" + user.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail domain.UserDetail
	testutil.DecodeJSON(t, resp, &detail)
	require.Len(t, detail.Memberships, 1)
	require.NotNil(t, detail.Memberships[0].Organization)
	assert.Equal(t, orgID, detail.Memberships[0].Organization.ID)
	assert.Equal(t, domain.RoleAdmin, detail.Memberships[0].Role)

	// Update
	resp, err = c.PUT("/api/users/"+user.ID, map[string]interface{}{
		"email": email,
		"name":  "Dana Q.",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated domain.User
	testutil.DecodeJSON(t, resp, &updated)
	require.NotNil(t, updated.Name)
	assert.Equal(t, "Dana Q.", *updated.Name)

	// Delete, then 404
	resp, err = c.DELETE("/api/users/" + user.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = c.GET("/api/users/" + user.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestMembershipLifecycle(t *testing.T) {
	c := newTestClient(t)
	orgID := createTestOrganization(t, c, "Membership Org")
	userID := createTestUser(t, c, uniqueEmail("membership"))

	// Role defaults to member
	resp, err := c.POST("/api/members", map[string]interface{}{
		"userId":         userID,
		"organizationId": orgID,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var member domain.OrganizationMember
	testutil.DecodeJSON(t, resp, &member)
	assert.Equal(t, domain.RoleMember, member.Role)

	// Same pair again conflicts
	resp, err = c.POST("/api/members", map[string]interface{}{
		"userId":         userID,
		"organizationId": orgID,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	// Promote
	resp, err = c.PUT("/api/members/"+member.ID, map[string]string{
		"role": "admin",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var promoted domain.OrganizationMember
	testutil.DecodeJSON(t, resp, &promoted)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)

	// Visible from both sides
	resp, err = c.GET("/api/members/organization/" + orgID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var byOrg []domain.MemberDetail
	testutil.DecodeJSON(t, resp, &byOrg)
	require.Len(t, byOrg, 1)
	require.NotNil(t, byOrg[0].User)
	assert.Equal(t, userID, byOrg[0].User.ID)

	resp, err = c.GET("/api/members/user/" + userID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var byUser []domain.MemberDetail
	testutil.DecodeJSON(t, resp, &byUser)
	require.Len(t, byUser, 1)
	require.NotNil(t, byUser[0].Organization)
	assert.Equal(t, orgID, byUser[0].Organization.ID)

	// Remove
	resp, err = c.DELETE("/api/members/" + member.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = c.DELETE("/api/members/" + member.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAddMemberUnknownUser(t *testing.T) {
	c := newTestClient(t)
	orgID := createTestOrganization(t, c, "Unknown Member Org")

	resp, err := c.POST("/api/members", map[string]interface{}{
		"userId":         uuid.NewString(),
		"organizationId": orgID,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}
