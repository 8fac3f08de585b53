package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/cachefleet/cachefleet/internal/store"
	"github.com/google/uuid"
)

var (
	ErrAgentNotFound     = errors.New("agent not found")
	ErrAgentNameRequired = errors.New("agent name is required")
	ErrAgentURLRequired  = errors.New("agent url is required")
	ErrAgentInactive     = errors.New("agent is not active")
	ErrAgentUnavailable  = errors.New("agent is unavailable")
)

type AgentService struct {
	store  domain.AgentStore
	caller domain.AgentCaller
}

func NewAgentService(s domain.AgentStore, caller domain.AgentCaller) *AgentService {
	return &AgentService{store: s, caller: caller}
}

// Create stores the agent with a freshly generated API key. The key is
// returned on the agent record exactly once per generation; list and get
// responses mask it.
func (s *AgentService) Create(ctx context.Context, a *domain.Agent) error {
	if a.Name == "" {
		return ErrAgentNameRequired
	}
	if a.URL == "" {
		return ErrAgentURLRequired
	}

	key, err := GenerateAPIKey()
	if err != nil {
		return err
	}
	a.APIKey = key
	a.Active = true

	return s.store.Create(ctx, a)
}

func (s *AgentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *AgentService) GetAll(ctx context.Context) ([]*domain.Agent, error) {
	return s.store.GetAll(ctx)
}

// Update changes name, URL and active flag. The API key only changes through
// RegenerateAPIKey.
func (s *AgentService) Update(ctx context.Context, id uuid.UUID, name, url string, active bool) (*domain.Agent, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != "" {
		a.Name = name
	}
	if url != "" {
		a.URL = url
	}
	a.Active = active

	if err := s.store.Update(ctx, a); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *AgentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAgentNotFound
		}
		return err
	}
	return nil
}

// RegenerateAPIKey replaces the agent's key. The old key stops authenticating
// as soon as the update lands; the new key is returned once.
func (s *AgentService) RegenerateAPIKey(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key, err := GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	a.APIKey = key

	if err := s.store.Update(ctx, a); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}
	return a, nil
}

// Ping relays a liveness check to the agent's own cache API.
func (s *AgentService) Ping(ctx context.Context, id uuid.UUID) error {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !a.Active {
		return ErrAgentInactive
	}

	if err := s.caller.Ping(ctx, a); err != nil {
		return fmt.Errorf("%w: %w", ErrAgentUnavailable, err)
	}
	return nil
}

// GenerateAPIKey returns a fresh opaque credential.
func GenerateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "cf_" + hex.EncodeToString(b), nil
}
