package domain

import (
	"context"

	"github.com/google/uuid"
)

type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetAll(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type AgentStore interface {
	Create(ctx context.Context, a *Agent) error
	GetByID(ctx context.Context, id uuid.UUID) (*Agent, error)
	// GetByAPIKey resolves an active agent from the key it presents on
	// callback routes. Inactive agents do not match.
	GetByAPIKey(ctx context.Context, key string) (*Agent, error)
	GetAll(ctx context.Context) ([]*Agent, error)
	Update(ctx context.Context, a *Agent) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ServiceStore interface {
	Create(ctx context.Context, s *Service) error
	GetByID(ctx context.Context, id uuid.UUID) (*Service, error)
	GetByNameAndAgent(ctx context.Context, name string, agentID uuid.UUID) (*Service, error)
	GetAll(ctx context.Context) ([]*Service, error)
	Update(ctx context.Context, s *Service) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CacheStore interface {
	Create(ctx context.Context, c *Cache) error
	GetByID(ctx context.Context, id uuid.UUID) (*Cache, error)
	ListByService(ctx context.Context, serviceID uuid.UUID) ([]*Cache, error)
	GetAll(ctx context.Context) ([]*Cache, error)
	Update(ctx context.Context, c *Cache) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AgentCaller relays cache commands to a remote agent's own HTTP API.
type AgentCaller interface {
	Ping(ctx context.Context, agent *Agent) error
	ListCaches(ctx context.Context, agent *Agent, serviceName string) (*CacheSnapshot, error)
	GetCacheKey(ctx context.Context, agent *Agent, key string) (*CacheEntry, error)
	FlushAll(ctx context.Context, agent *Agent) (*FlushResult, error)
	ClearKey(ctx context.Context, agent *Agent, key string) error
}
