package status

import (
	"encoding/json"
	"net/http"

	"github.com/bissquit/statusdeck/internal/domain"
	"github.com/bissquit/statusdeck/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for services, incidents and incident updates.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new status handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers all HTTP routes for the status module.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/services", func(r chi.Router) {
		r.Get("/", h.ListServices)
		r.Post("/", h.CreateService)
		r.Get("/organization/{orgID}", h.ListServicesForOrganization)
		r.Patch("/{id}/status", h.SetServiceStatus)
		r.Put("/{id}", h.UpdateService)
		r.Delete("/{id}", h.DeleteService)
	})

	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.ListOpenIncidents)
		r.Post("/", h.CreateIncident)
		r.Get("/organization/{orgID}", h.ListIncidentsForOrganization)
		r.Patch("/{id}/status", h.SetIncidentStatus)
		r.Put("/{id}", h.UpdateIncident)
		r.Delete("/{id}", h.DeleteIncident)
	})

	r.Route("/incident-updates", func(r chi.Router) {
		r.Get("/incident/{incidentID}", h.ListIncidentUpdates)
		r.Post("/", h.AppendIncidentUpdate)
		r.Put("/{id}", h.EditIncidentUpdate)
		r.Delete("/{id}", h.DeleteIncidentUpdate)
	})
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrServiceNotFound, Status: http.StatusNotFound},
	{Error: ErrIncidentNotFound, Status: http.StatusNotFound},
	{Error: ErrOrganizationNotFound, Status: http.StatusNotFound},
	{Error: ErrInvalidStatus, Status: http.StatusBadRequest},
}

// CreateServiceRequest represents the request body for registering a service.
type CreateServiceRequest struct {
	Name           string `json:"name" validate:"required,min=1,max=255"`
	OrganizationID string `json:"organizationId" validate:"required,uuid"`
	Status         string `json:"status" validate:"omitempty,oneof=OPERATIONAL DEGRADED PARTIAL_OUTAGE MAJOR_OUTAGE"`
}

// UpdateServiceRequest represents the request body for updating a service.
type UpdateServiceRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=255"`
	Status string `json:"status" validate:"required,oneof=OPERATIONAL DEGRADED PARTIAL_OUTAGE MAJOR_OUTAGE"`
}

// SetStatusRequest represents the request body for a status overwrite.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateIncidentRequest represents the request body for opening an incident.
// Title and description are free text; empty strings are permitted.
type CreateIncidentRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	ServiceID      string `json:"serviceId" validate:"required,uuid"`
	OrganizationID string `json:"organizationId" validate:"required,uuid"`
	Status         string `json:"status" validate:"omitempty,oneof=OPEN RESOLVED MAINTENANCE"`
}

// UpdateIncidentRequest represents the request body for editing an incident.
type UpdateIncidentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"required,oneof=OPEN RESOLVED MAINTENANCE"`
}

// AppendUpdateRequest represents the request body for appending an
// incident update.
type AppendUpdateRequest struct {
	IncidentID string `json:"incidentId" validate:"required,uuid"`
	Message    string `json:"message"`
	Status     string `json:"status" validate:"required"`
}

// EditUpdateRequest represents the request body for editing an incident update.
type EditUpdateRequest struct {
	Message string `json:"message"`
	Status  string `json:"status" validate:"required"`
}

// ListServices handles GET /services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.service.ListServices(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusOK, services)
}

// ListServicesForOrganization handles GET /services/organization/{orgID}.
func (h *Handler) ListServicesForOrganization(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	services, err := h.service.ListServicesForOrganization(r.Context(), orgID)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusOK, services)
}

// CreateService handles POST /services.
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	service, err := h.service.CreateService(r.Context(), CreateServiceInput{
		Name:           req.Name,
		OrganizationID: req.OrganizationID,
		Status:         domain.ServiceStatus(req.Status),
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusCreated, service)
}

// SetServiceStatus handles PATCH /services/{id}/status.
func (h *Handler) SetServiceStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	service, err := h.service.SetServiceStatus(r.Context(), id, domain.ServiceStatus(req.Status))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusOK, service)
}

// UpdateService handles PUT /services/{id}.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	service, err := h.service.UpdateService(r.Context(), id, UpdateServiceInput{
		Name:   req.Name,
		Status: domain.ServiceStatus(req.Status),
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusOK, service)
}

// DeleteService handles DELETE /services/{id}.
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteService(r.Context(), id); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.NoContent(w)
}

// ListOpenIncidents handles GET /incidents.
func (h *Handler) ListOpenIncidents(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.service.ListOpenIncidents(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusOK, incidents)
}

// ListIncidentsForOrganization handles GET /incidents/organization/{orgID}.
func (h *Handler) ListIncidentsForOrganization(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")

	incidents, err := h.service.ListIncidentsForOrganization(r.Context(), orgID)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusOK, incidents)
}

// CreateIncident handles POST /incidents.
func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.CreateIncident(r.Context(), CreateIncidentInput{
		Title:          req.Title,
		Description:    req.Description,
		ServiceID:      req.ServiceID,
		OrganizationID: req.OrganizationID,
		Status:         domain.IncidentStatus(req.Status),
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusCreated, incident)
}

// SetIncidentStatus handles PATCH /incidents/{id}/status.
func (h *Handler) SetIncidentStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.SetIncidentStatus(r.Context(), id, domain.IncidentStatus(req.Status))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusOK, incident)
}

// UpdateIncident handles PUT /incidents/{id}.
func (h *Handler) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.UpdateIncident(r.Context(), id, UpdateIncidentInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.IncidentStatus(req.Status),
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusOK, incident)
}

// DeleteIncident handles DELETE /incidents/{id}.
func (h *Handler) DeleteIncident(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteIncident(r.Context(), id); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.NoContent(w)
}

// ListIncidentUpdates handles GET /incident-updates/incident/{incidentID}.
func (h *Handler) ListIncidentUpdates(w http.ResponseWriter, r *http.Request) {
	incidentID := chi.URLParam(r, "incidentID")

	updates, err := h.service.ListIncidentUpdates(r.Context(), incidentID)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusOK, updates)
}

// AppendIncidentUpdate handles POST /incident-updates.
func (h *Handler) AppendIncidentUpdate(w http.ResponseWriter, r *http.Request) {
	var req AppendUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	update, err := h.service.AppendIncidentUpdate(r.Context(), req.IncidentID, req.Message, domain.IncidentStatus(req.Status))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusCreated, update)
}

// EditIncidentUpdate handles PUT /incident-updates/{id}.
func (h *Handler) EditIncidentUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req EditUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	update, err := h.service.EditIncidentUpdate(r.Context(), id, req.Message, domain.IncidentStatus(req.Status))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.JSON(w, http.StatusOK, update)
}

// DeleteIncidentUpdate handles DELETE /incident-updates/{id}.
func (h *Handler) DeleteIncidentUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteIncidentUpdate(r.Context(), id); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.NoContent(w)
}
