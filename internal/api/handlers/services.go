package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cachefleet/cachefleet/internal/api/middleware"
	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/cachefleet/cachefleet/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ServiceHandler struct {
	svc   *service.ServiceService
	users *service.UserService
}

func NewServiceHandler(svc *service.ServiceService, users *service.UserService) *ServiceHandler {
	return &ServiceHandler{svc: svc, users: users}
}

type serviceResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	ServiceVersion string    `json:"serviceVersion,omitempty"`
	Port           int       `json:"port,omitempty"`
	Description    string    `json:"description,omitempty"`
	AgentID        string    `json:"agentId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toServiceResponse(s *domain.Service) serviceResponse {
	resp := serviceResponse{
		ID:             s.ID.String(),
		Name:           s.Name,
		Status:         string(s.Status),
		ServiceVersion: s.ServiceVersion,
		Port:           s.Port,
		Description:    s.Description,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	if s.AgentID != nil {
		resp.AgentID = s.AgentID.String()
	}
	return resp
}

// authorize checks that the caller may act on the named service. Admins
// always pass; others need the service in their linked list.
func (h *ServiceHandler) authorize(w http.ResponseWriter, r *http.Request, serviceName string) bool {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}

	ok, err := h.users.CanAccessService(r.Context(), userID, claims.Role, serviceName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check service access")
		return false
	}
	if !ok {
		writeError(w, http.StatusForbidden, "service not linked to user")
		return false
	}
	return true
}

type createServiceRequest struct {
	Name           string `json:"name"`
	Status         string `json:"status,omitempty"`
	ServiceVersion string `json:"serviceVersion,omitempty"`
	Port           int    `json:"port,omitempty"`
	Description    string `json:"description,omitempty"`
	AgentID        string `json:"agentId,omitempty"`
}

func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if claims.Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "insufficient role")
		return
	}

	var req createServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	svc := &domain.Service{
		Name:           req.Name,
		Status:         domain.ServiceStatus(req.Status),
		ServiceVersion: req.ServiceVersion,
		Port:           req.Port,
		Description:    req.Description,
	}
	if req.AgentID != "" {
		agentID, err := uuid.Parse(req.AgentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid agent id")
			return
		}
		svc.AgentID = &agentID
	}

	if err := h.svc.Create(r.Context(), svc); err != nil {
		switch {
		case errors.Is(err, service.ErrServiceNameRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAgentNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create service")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toServiceResponse(svc))
}

// List returns every service for admins and only linked services otherwise.
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	services, err := h.svc.GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list services")
		return
	}

	if claims.Role != domain.RoleAdmin {
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, err := h.users.GetByID(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list services")
			return
		}

		linked := services[:0]
		for _, s := range services {
			if user.HasService(s.Name) {
				linked = append(linked, s)
			}
		}
		services = linked
	}

	out := make([]serviceResponse, 0, len(services))
	for _, s := range services {
		out = append(out, toServiceResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ServiceHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service id")
		return
	}

	svc, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrServiceNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get service")
		return
	}

	if !h.authorize(w, r, svc.Name) {
		return
	}

	writeJSON(w, http.StatusOK, toServiceResponse(svc))
}

func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service id")
		return
	}

	current, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrServiceNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get service")
		return
	}

	if !h.authorize(w, r, current.Name) {
		return
	}

	var req createServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := &domain.Service{
		Name:           req.Name,
		Status:         domain.ServiceStatus(req.Status),
		ServiceVersion: req.ServiceVersion,
		Port:           req.Port,
		Description:    req.Description,
	}
	patch.ID = id
	if req.AgentID != "" {
		agentID, err := uuid.Parse(req.AgentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid agent id")
			return
		}
		patch.AgentID = &agentID
	}

	updated, err := h.svc.Update(r.Context(), patch)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrServiceNotFound),
			errors.Is(err, service.ErrAgentNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to update service")
		}
		return
	}

	writeJSON(w, http.StatusOK, toServiceResponse(updated))
}

func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service id")
		return
	}

	svc, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrServiceNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get service")
		return
	}

	if !h.authorize(w, r, svc.Name) {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrServiceNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete service")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
