// Package client provides a Go client for the status page API: an HTTP
// client for the REST surface, an SSE stream consumer, and a local view
// projection that applies stream events to fetched snapshots.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bissquit/statusdeck/internal/domain"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:3001"

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Config holds client settings.
type Config struct {
	// BaseURL is the server origin, without the /api prefix.
	BaseURL    string
	HTTPClient *http.Client
}

// Client is an HTTP client for the status page API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a new API client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    cfg.HTTPClient,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api"+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// CreateServiceParams holds fields for registering a service.
type CreateServiceParams struct {
	Name           string               `json:"name"`
	OrganizationID string               `json:"organizationId"`
	Status         domain.ServiceStatus `json:"status,omitempty"`
}

// UpdateServiceParams holds fields for updating a service.
type UpdateServiceParams struct {
	Name   string               `json:"name"`
	Status domain.ServiceStatus `json:"status"`
}

// CreateIncidentParams holds fields for opening an incident.
type CreateIncidentParams struct {
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	ServiceID      string                `json:"serviceId"`
	OrganizationID string                `json:"organizationId"`
	Status         domain.IncidentStatus `json:"status,omitempty"`
}

// UpdateIncidentParams holds fields for editing an incident.
type UpdateIncidentParams struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Status      domain.IncidentStatus `json:"status"`
}

// AppendUpdateParams holds fields for appending an incident update.
type AppendUpdateParams struct {
	IncidentID string                `json:"incidentId"`
	Message    string                `json:"message"`
	Status     domain.IncidentStatus `json:"status"`
}

type statusBody struct {
	Status string `json:"status"`
}

// ListServices returns all services with organization and open incidents.
func (c *Client) ListServices(ctx context.Context) ([]domain.ServiceDetail, error) {
	var services []domain.ServiceDetail
	err := c.do(ctx, http.MethodGet, "/services", nil, &services)
	return services, err
}

// ListServicesForOrganization returns an organization's services.
func (c *Client) ListServicesForOrganization(ctx context.Context, orgID string) ([]domain.ServiceDetail, error) {
	var services []domain.ServiceDetail
	err := c.do(ctx, http.MethodGet, "/services/organization/"+orgID, nil, &services)
	return services, err
}

// CreateService registers a new service.
func (c *Client) CreateService(ctx context.Context, params CreateServiceParams) (*domain.ServiceDetail, error) {
	var service domain.ServiceDetail
	err := c.do(ctx, http.MethodPost, "/services", params, &service)
	if err != nil {
		return nil, err
	}
	return &service, nil
}

// UpdateServiceStatus overwrites a service's status.
func (c *Client) UpdateServiceStatus(ctx context.Context, id string, status domain.ServiceStatus) (*domain.ServiceDetail, error) {
	var service domain.ServiceDetail
	err := c.do(ctx, http.MethodPatch, "/services/"+id+"/status", statusBody{Status: string(status)}, &service)
	if err != nil {
		return nil, err
	}
	return &service, nil
}

// UpdateService replaces a service's name and status.
func (c *Client) UpdateService(ctx context.Context, id string, params UpdateServiceParams) (*domain.ServiceDetail, error) {
	var service domain.ServiceDetail
	err := c.do(ctx, http.MethodPut, "/services/"+id, params, &service)
	if err != nil {
		return nil, err
	}
	return &service, nil
}

// DeleteService removes a service.
func (c *Client) DeleteService(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/services/"+id, nil, nil)
}

// ListOpenIncidents returns all open incidents.
func (c *Client) ListOpenIncidents(ctx context.Context) ([]domain.IncidentDetail, error) {
	var incidents []domain.IncidentDetail
	err := c.do(ctx, http.MethodGet, "/incidents", nil, &incidents)
	return incidents, err
}

// ListIncidentsForOrganization returns an organization's incidents.
func (c *Client) ListIncidentsForOrganization(ctx context.Context, orgID string) ([]domain.IncidentDetail, error) {
	var incidents []domain.IncidentDetail
	err := c.do(ctx, http.MethodGet, "/incidents/organization/"+orgID, nil, &incidents)
	return incidents, err
}

// CreateIncident opens an incident.
func (c *Client) CreateIncident(ctx context.Context, params CreateIncidentParams) (*domain.IncidentDetail, error) {
	var incident domain.IncidentDetail
	err := c.do(ctx, http.MethodPost, "/incidents", params, &incident)
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

// UpdateIncidentStatus overwrites an incident's status without appending
// a timeline entry.
func (c *Client) UpdateIncidentStatus(ctx context.Context, id string, status domain.IncidentStatus) (*domain.IncidentDetail, error) {
	var incident domain.IncidentDetail
	err := c.do(ctx, http.MethodPatch, "/incidents/"+id+"/status", statusBody{Status: string(status)}, &incident)
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

// UpdateIncident replaces an incident's title, description and status.
func (c *Client) UpdateIncident(ctx context.Context, id string, params UpdateIncidentParams) (*domain.IncidentDetail, error) {
	var incident domain.IncidentDetail
	err := c.do(ctx, http.MethodPut, "/incidents/"+id, params, &incident)
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

// DeleteIncident removes an incident.
func (c *Client) DeleteIncident(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/incidents/"+id, nil, nil)
}

// ListIncidentUpdates returns an incident's update timeline, newest first.
func (c *Client) ListIncidentUpdates(ctx context.Context, incidentID string) ([]domain.IncidentUpdate, error) {
	var updates []domain.IncidentUpdate
	err := c.do(ctx, http.MethodGet, "/incident-updates/incident/"+incidentID, nil, &updates)
	return updates, err
}

// AppendUpdate appends a timeline entry; the server also overwrites the
// parent incident's status to match.
func (c *Client) AppendUpdate(ctx context.Context, params AppendUpdateParams) (*domain.IncidentUpdate, error) {
	var update domain.IncidentUpdate
	err := c.do(ctx, http.MethodPost, "/incident-updates", params, &update)
	if err != nil {
		return nil, err
	}
	return &update, nil
}

// EditUpdate rewrites an existing timeline entry.
func (c *Client) EditUpdate(ctx context.Context, id, message string, status domain.IncidentStatus) (*domain.IncidentUpdate, error) {
	body := struct {
		Message string                `json:"message"`
		Status  domain.IncidentStatus `json:"status"`
	}{Message: message, Status: status}

	var update domain.IncidentUpdate
	err := c.do(ctx, http.MethodPut, "/incident-updates/"+id, body, &update)
	if err != nil {
		return nil, err
	}
	return &update, nil
}

// DeleteUpdate removes a timeline entry.
func (c *Client) DeleteUpdate(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/incident-updates/"+id, nil, nil)
}

// ListOrganizations returns all organizations.
func (c *Client) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	var orgs []domain.Organization
	err := c.do(ctx, http.MethodGet, "/organizations", nil, &orgs)
	return orgs, err
}

// GetOrganization returns an organization with its services, incident
// history and members.
func (c *Client) GetOrganization(ctx context.Context, id string) (*domain.OrganizationDetail, error) {
	var org domain.OrganizationDetail
	err := c.do(ctx, http.MethodGet, "/organizations/"+id, nil, &org)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// CreateOrganization creates a new organization.
func (c *Client) CreateOrganization(ctx context.Context, name string) (*domain.Organization, error) {
	body := struct {
		Name string `json:"name"`
	}{Name: name}

	var org domain.Organization
	err := c.do(ctx, http.MethodPost, "/organizations", body, &org)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// GetUser returns a user with their memberships.
func (c *Client) GetUser(ctx context.Context, id string) (*domain.UserDetail, error) {
	var user domain.UserDetail
	err := c.do(ctx, http.MethodGet, "/users/"+id, nil, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns all users with their memberships.
func (c *Client) ListUsers(ctx context.Context) ([]domain.UserDetail, error) {
	var users []domain.UserDetail
	err := c.do(ctx, http.MethodGet, "/users", nil, &users)
	return users, err
}
