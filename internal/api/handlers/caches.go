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

type CacheHandler struct {
	svc *service.CacheService
}

func NewCacheHandler(svc *service.CacheService) *CacheHandler {
	return &CacheHandler{svc: svc}
}

type cacheResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Type      string    `json:"type,omitempty"`
	Status    string    `json:"status,omitempty"`
	ServiceID string    `json:"serviceId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toCacheResponse(c *domain.Cache) cacheResponse {
	return cacheResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Size:      c.Size,
		Type:      c.Type,
		Status:    c.Status,
		ServiceID: c.ServiceID.String(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// relayError maps the cache relay pre-check and transport failures. Local
// lookups that miss stay 404; broken preconditions are the client's problem
// (400); a failing agent is upstream's (502).
func relayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrServiceNotFound),
		errors.Is(err, service.ErrAgentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrServiceHasNoAgent),
		errors.Is(err, service.ErrAgentInactive):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAgentUnavailable):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "cache operation failed")
	}
}

type createCacheRequest struct {
	Name      string `json:"name"`
	Size      int64  `json:"size,omitempty"`
	Type      string `json:"type,omitempty"`
	Status    string `json:"status,omitempty"`
	ServiceID string `json:"serviceId"`
}

func (h *CacheHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCacheRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service id")
		return
	}

	cache := &domain.Cache{
		Name:      req.Name,
		Size:      req.Size,
		Type:      req.Type,
		Status:    req.Status,
		ServiceID: serviceID,
	}

	if err := h.svc.Create(r.Context(), cache); err != nil {
		switch {
		case errors.Is(err, service.ErrCacheNameRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrServiceNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create cache")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toCacheResponse(cache))
}

func (h *CacheHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		caches []*domain.Cache
		err    error
	)

	if sid := r.URL.Query().Get("serviceId"); sid != "" {
		serviceID, parseErr := uuid.Parse(sid)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "invalid service id")
			return
		}
		caches, err = h.svc.ListByService(r.Context(), serviceID)
	} else {
		caches, err = h.svc.GetAll(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list caches")
		return
	}

	out := make([]cacheResponse, 0, len(caches))
	for _, c := range caches {
		out = append(out, toCacheResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CacheHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cache id")
		return
	}

	cache, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCacheNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get cache")
		return
	}

	writeJSON(w, http.StatusOK, toCacheResponse(cache))
}

func (h *CacheHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cache id")
		return
	}

	var req createCacheRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := &domain.Cache{
		Name:   req.Name,
		Size:   req.Size,
		Type:   req.Type,
		Status: req.Status,
	}
	patch.ID = id

	cache, err := h.svc.Update(r.Context(), patch)
	if err != nil {
		if errors.Is(err, service.ErrCacheNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update cache")
		return
	}

	writeJSON(w, http.StatusOK, toCacheResponse(cache))
}

func (h *CacheHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cache id")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrCacheNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete cache")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Live returns the service's live cache contents straight from its agent.
func (h *CacheHandler) Live(w http.ResponseWriter, r *http.Request) {
	serviceID, err := uuid.Parse(chi.URLParam(r, "serviceId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service id")
		return
	}

	snapshot, err := h.svc.LiveCaches(r.Context(), serviceID)
	if err != nil {
		relayError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// LiveKey returns one live cache entry straight from the service's agent.
func (h *CacheHandler) LiveKey(w http.ResponseWriter, r *http.Request) {
	serviceID, err := uuid.Parse(chi.URLParam(r, "serviceId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service id")
		return
	}
	key := chi.URLParam(r, "cacheKey")

	entry, err := h.svc.LiveCacheKey(r.Context(), serviceID, key)
	if err != nil {
		relayError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *CacheHandler) FlushAll(w http.ResponseWriter, r *http.Request) {
	serviceID, err := uuid.Parse(chi.URLParam(r, "serviceId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service id")
		return
	}

	result, err := h.svc.FlushAll(r.Context(), serviceID)
	if err != nil {
		relayError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *CacheHandler) ClearKey(w http.ResponseWriter, r *http.Request) {
	serviceID, err := uuid.Parse(chi.URLParam(r, "serviceId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service id")
		return
	}
	key := chi.URLParam(r, "cacheKey")

	if err := h.svc.ClearKey(r.Context(), serviceID, key); err != nil {
		relayError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "key": key})
}
