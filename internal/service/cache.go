package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/cachefleet/cachefleet/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrCacheNotFound     = errors.New("cache not found")
	ErrCacheNameRequired = errors.New("cache name is required")
	ErrServiceHasNoAgent = errors.New("service has no agent assigned")
)

// CacheService owns the persisted cache records and the live relay path.
// Relay operations never touch the network until every local pre-check
// passes: service exists, an agent is assigned, the agent exists and is
// active.
type CacheService struct {
	caches   domain.CacheStore
	services domain.ServiceStore
	agents   domain.AgentStore
	caller   domain.AgentCaller
	logger   *zap.Logger
}

func NewCacheService(caches domain.CacheStore, services domain.ServiceStore, agents domain.AgentStore, caller domain.AgentCaller, logger *zap.Logger) *CacheService {
	return &CacheService{
		caches:   caches,
		services: services,
		agents:   agents,
		caller:   caller,
		logger:   logger,
	}
}

func (s *CacheService) Create(ctx context.Context, c *domain.Cache) error {
	if c.Name == "" {
		return ErrCacheNameRequired
	}

	if _, err := s.services.GetByID(ctx, c.ServiceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrServiceNotFound
		}
		return err
	}

	return s.caches.Create(ctx, c)
}

func (s *CacheService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cache, error) {
	c, err := s.caches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCacheNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *CacheService) GetAll(ctx context.Context) ([]*domain.Cache, error) {
	return s.caches.GetAll(ctx)
}

func (s *CacheService) ListByService(ctx context.Context, serviceID uuid.UUID) ([]*domain.Cache, error) {
	return s.caches.ListByService(ctx, serviceID)
}

func (s *CacheService) Update(ctx context.Context, c *domain.Cache) (*domain.Cache, error) {
	current, err := s.GetByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	if c.Name != "" {
		current.Name = c.Name
	}
	if c.Size != 0 {
		current.Size = c.Size
	}
	if c.Type != "" {
		current.Type = c.Type
	}
	if c.Status != "" {
		current.Status = c.Status
	}

	if err := s.caches.Update(ctx, current); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCacheNotFound
		}
		return nil, err
	}
	return current, nil
}

func (s *CacheService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.caches.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCacheNotFound
		}
		return err
	}
	return nil
}

// resolveAgent runs the relay pre-checks for a service and returns the agent
// to call. No outbound request is made here.
func (s *CacheService) resolveAgent(ctx context.Context, serviceID uuid.UUID) (*domain.Agent, *domain.Service, error) {
	svc, err := s.services.GetByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrServiceNotFound
		}
		return nil, nil, err
	}

	if svc.AgentID == nil {
		return nil, nil, ErrServiceHasNoAgent
	}

	agent, err := s.agents.GetByID(ctx, *svc.AgentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrAgentNotFound
		}
		return nil, nil, err
	}

	if !agent.Active {
		return nil, nil, ErrAgentInactive
	}

	return agent, svc, nil
}

// LiveCaches fetches the service's live key list and entries from its agent.
// Nothing is persisted.
func (s *CacheService) LiveCaches(ctx context.Context, serviceID uuid.UUID) (*domain.CacheSnapshot, error) {
	agent, svc, err := s.resolveAgent(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.caller.ListCaches(ctx, agent, svc.Name)
	if err != nil {
		s.logger.Warn("agent cache listing failed",
			zap.String("agent", agent.Name),
			zap.String("service", svc.Name),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrAgentUnavailable, err)
	}
	return snapshot, nil
}

// LiveCacheKey fetches a single live entry by key from the service's agent.
func (s *CacheService) LiveCacheKey(ctx context.Context, serviceID uuid.UUID, key string) (*domain.CacheEntry, error) {
	agent, svc, err := s.resolveAgent(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	entry, err := s.caller.GetCacheKey(ctx, agent, key)
	if err != nil {
		s.logger.Warn("agent cache lookup failed",
			zap.String("agent", agent.Name),
			zap.String("service", svc.Name),
			zap.String("key", key),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrAgentUnavailable, err)
	}
	return entry, nil
}

// FlushAll relays a flush of every cache entry the service's agent holds.
func (s *CacheService) FlushAll(ctx context.Context, serviceID uuid.UUID) (*domain.FlushResult, error) {
	agent, svc, err := s.resolveAgent(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	result, err := s.caller.FlushAll(ctx, agent)
	if err != nil {
		s.logger.Warn("agent flush failed",
			zap.String("agent", agent.Name),
			zap.String("service", svc.Name),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrAgentUnavailable, err)
	}

	s.logger.Info("flushed caches",
		zap.String("agent", agent.Name),
		zap.String("service", svc.Name),
		zap.Int("flushed", result.Flushed))
	return result, nil
}

// ClearKey relays removal of one cache entry.
func (s *CacheService) ClearKey(ctx context.Context, serviceID uuid.UUID, key string) error {
	agent, svc, err := s.resolveAgent(ctx, serviceID)
	if err != nil {
		return err
	}

	if err := s.caller.ClearKey(ctx, agent, key); err != nil {
		s.logger.Warn("agent cache clear failed",
			zap.String("agent", agent.Name),
			zap.String("service", svc.Name),
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrAgentUnavailable, err)
	}
	return nil
}
