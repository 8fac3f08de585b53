package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cachefleet/cachefleet/internal/api/middleware"
	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/cachefleet/cachefleet/internal/service"
)

// CallbackHandler serves the routes agents call themselves, gated by API key
// rather than JWT.
type CallbackHandler struct {
	svc *service.ServiceService
}

func NewCallbackHandler(svc *service.ServiceService) *CallbackHandler {
	return &CallbackHandler{svc: svc}
}

type registerServiceRequest struct {
	Name           string `json:"name"`
	Status         string `json:"status,omitempty"`
	ServiceVersion string `json:"serviceVersion,omitempty"`
	Port           int    `json:"port,omitempty"`
	Description    string `json:"description,omitempty"`
	// AgentID is accepted but ignored: the authenticated key decides.
	AgentID string `json:"agentId,omitempty"`
}

// RegisterService lets an unattended agent self-register a service without a
// human login. The AgentID always comes from the validated API key.
func (h *CallbackHandler) RegisterService(w http.ResponseWriter, r *http.Request) {
	agent := middleware.AgentFromContext(r.Context())
	if agent == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req registerServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	incoming := &domain.Service{
		Name:           req.Name,
		Status:         domain.ServiceStatus(req.Status),
		ServiceVersion: req.ServiceVersion,
		Port:           req.Port,
		Description:    req.Description,
	}

	svc, err := h.svc.RegisterFromAgent(r.Context(), agent, incoming)
	if err != nil {
		if errors.Is(err, service.ErrServiceNameRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to register service")
		return
	}

	writeJSON(w, http.StatusCreated, toServiceResponse(svc))
}

// Health lets an agent verify reachability before presenting a key.
func (h *CallbackHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
