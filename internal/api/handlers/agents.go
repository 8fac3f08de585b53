package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/cachefleet/cachefleet/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type AgentHandler struct {
	svc *service.AgentService
}

func NewAgentHandler(svc *service.AgentService) *AgentHandler {
	return &AgentHandler{svc: svc}
}

// agentResponse masks the API key; create and regenerate return it once via
// agentKeyResponse.
type agentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type agentKeyResponse struct {
	agentResponse
	APIKey string `json:"apiKey"`
}

func toAgentResponse(a *domain.Agent) agentResponse {
	return agentResponse{
		ID:        a.ID.String(),
		Name:      a.Name,
		URL:       a.URL,
		Active:    a.Active,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type createAgentRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	agent := &domain.Agent{Name: req.Name, URL: req.URL}
	if err := h.svc.Create(r.Context(), agent); err != nil {
		switch {
		case errors.Is(err, service.ErrAgentNameRequired),
			errors.Is(err, service.ErrAgentURLRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create agent")
		}
		return
	}

	writeJSON(w, http.StatusCreated, agentKeyResponse{
		agentResponse: toAgentResponse(agent),
		APIKey:        agent.APIKey,
	})
}

func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	agents, err := h.svc.GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list agents")
		return
	}

	out := make([]agentResponse, 0, len(agents))
	for _, a := range agents {
		out = append(out, toAgentResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AgentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid agent id")
		return
	}

	agent, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrAgentNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get agent")
		return
	}

	writeJSON(w, http.StatusOK, toAgentResponse(agent))
}

type updateAgentRequest struct {
	Name   string `json:"name,omitempty"`
	URL    string `json:"url,omitempty"`
	Active bool   `json:"active"`
}

func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid agent id")
		return
	}

	var req updateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	agent, err := h.svc.Update(r.Context(), id, req.Name, req.URL, req.Active)
	if err != nil {
		if errors.Is(err, service.ErrAgentNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update agent")
		return
	}

	writeJSON(w, http.StatusOK, toAgentResponse(agent))
}

func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid agent id")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrAgentNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete agent")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AgentHandler) RegenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid agent id")
		return
	}

	agent, err := h.svc.RegenerateAPIKey(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrAgentNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to regenerate api key")
		return
	}

	writeJSON(w, http.StatusOK, agentKeyResponse{
		agentResponse: toAgentResponse(agent),
		APIKey:        agent.APIKey,
	})
}

func (h *AgentHandler) Ping(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid agent id")
		return
	}

	if err := h.svc.Ping(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrAgentNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAgentInactive):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAgentUnavailable):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to ping agent")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
