package store

import (
	"context"

	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AgentStore struct {
	c *Collection[domain.Agent, *domain.Agent]
}

func NewAgentStore(db *pgxpool.Pool) *AgentStore {
	return &AgentStore{c: NewCollection[domain.Agent, *domain.Agent](db, "agents", domain.PartitionAgents)}
}

func (s *AgentStore) Create(ctx context.Context, a *domain.Agent) error {
	return s.c.Create(ctx, a)
}

func (s *AgentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	return s.c.GetByID(ctx, id)
}

// GetByAPIKey matches active agents only, so rotating or deactivating a key
// takes effect on the next callback request.
func (s *AgentStore) GetByAPIKey(ctx context.Context, key string) (*domain.Agent, error) {
	return s.c.QueryOne(ctx, `doc->>'apiKey' = $2 AND (doc->>'active')::boolean`, key)
}

func (s *AgentStore) GetAll(ctx context.Context) ([]*domain.Agent, error) {
	return s.c.GetAll(ctx)
}

func (s *AgentStore) Update(ctx context.Context, a *domain.Agent) error {
	return s.c.Update(ctx, a)
}

func (s *AgentStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.c.Delete(ctx, id)
}
