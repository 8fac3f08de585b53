package service

import (
	"context"
	"errors"

	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/cachefleet/cachefleet/internal/store"
	"github.com/google/uuid"
)

var (
	ErrServiceNotFound     = errors.New("service not found")
	ErrServiceNameRequired = errors.New("service name is required")
)

// ServiceService manages the registry of services and their agent references.
type ServiceService struct {
	services domain.ServiceStore
	agents   domain.AgentStore
}

func NewServiceService(services domain.ServiceStore, agents domain.AgentStore) *ServiceService {
	return &ServiceService{services: services, agents: agents}
}

func (s *ServiceService) Create(ctx context.Context, svc *domain.Service) error {
	if svc.Name == "" {
		return ErrServiceNameRequired
	}
	if svc.Status == "" {
		svc.Status = domain.ServiceStatusUnknown
	}

	// AgentID is a plain reference; the only integrity check is this lookup.
	if svc.AgentID != nil {
		if _, err := s.agents.GetByID(ctx, *svc.AgentID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrAgentNotFound
			}
			return err
		}
	}

	return s.services.Create(ctx, svc)
}

// RegisterFromAgent handles callback self-registration. The authenticated
// agent's identity always wins over whatever AgentID the body carried, so an
// agent cannot register services on behalf of another. Re-registering an
// existing name updates the record in place.
func (s *ServiceService) RegisterFromAgent(ctx context.Context, agent *domain.Agent, incoming *domain.Service) (*domain.Service, error) {
	if incoming.Name == "" {
		return nil, ErrServiceNameRequired
	}

	agentID := agent.ID
	incoming.AgentID = &agentID
	if incoming.Status == "" {
		incoming.Status = domain.ServiceStatusOnline
	}

	existing, err := s.services.GetByNameAndAgent(ctx, incoming.Name, agent.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if err := s.services.Create(ctx, incoming); err != nil {
			return nil, err
		}
		return incoming, nil
	}

	existing.Status = incoming.Status
	if incoming.ServiceVersion != "" {
		existing.ServiceVersion = incoming.ServiceVersion
	}
	if incoming.Port != 0 {
		existing.Port = incoming.Port
	}
	if incoming.Description != "" {
		existing.Description = incoming.Description
	}
	existing.AgentID = &agentID

	if err := s.services.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *ServiceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return svc, nil
}

func (s *ServiceService) GetAll(ctx context.Context) ([]*domain.Service, error) {
	return s.services.GetAll(ctx)
}

func (s *ServiceService) Update(ctx context.Context, svc *domain.Service) (*domain.Service, error) {
	current, err := s.GetByID(ctx, svc.ID)
	if err != nil {
		return nil, err
	}

	if svc.Name != "" {
		current.Name = svc.Name
	}
	if svc.Status != "" {
		current.Status = svc.Status
	}
	if svc.ServiceVersion != "" {
		current.ServiceVersion = svc.ServiceVersion
	}
	if svc.Port != 0 {
		current.Port = svc.Port
	}
	if svc.Description != "" {
		current.Description = svc.Description
	}
	if svc.AgentID != nil {
		if _, err := s.agents.GetByID(ctx, *svc.AgentID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrAgentNotFound
			}
			return nil, err
		}
		current.AgentID = svc.AgentID
	}

	if err := s.services.Update(ctx, current); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return current, nil
}

func (s *ServiceService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.services.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrServiceNotFound
		}
		return err
	}
	return nil
}
