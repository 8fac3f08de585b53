package store

import (
	"context"

	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ServiceStore struct {
	c *Collection[domain.Service, *domain.Service]
}

func NewServiceStore(db *pgxpool.Pool) *ServiceStore {
	return &ServiceStore{c: NewCollection[domain.Service, *domain.Service](db, "services", domain.PartitionServices)}
}

func (s *ServiceStore) Create(ctx context.Context, svc *domain.Service) error {
	return s.c.Create(ctx, svc)
}

func (s *ServiceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	return s.c.GetByID(ctx, id)
}

func (s *ServiceStore) GetByNameAndAgent(ctx context.Context, name string, agentID uuid.UUID) (*domain.Service, error) {
	return s.c.QueryOne(ctx, `doc->>'name' = $2 AND doc->>'agentId' = $3`, name, agentID.String())
}

func (s *ServiceStore) GetAll(ctx context.Context) ([]*domain.Service, error) {
	return s.c.GetAll(ctx)
}

func (s *ServiceStore) Update(ctx context.Context, svc *domain.Service) error {
	return s.c.Update(ctx, svc)
}

func (s *ServiceStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.c.Delete(ctx, id)
}
