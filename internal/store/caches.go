package store

import (
	"context"

	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CacheStore struct {
	c *Collection[domain.Cache, *domain.Cache]
}

func NewCacheStore(db *pgxpool.Pool) *CacheStore {
	return &CacheStore{c: NewCollection[domain.Cache, *domain.Cache](db, "caches", domain.PartitionCaches)}
}

func (s *CacheStore) Create(ctx context.Context, c *domain.Cache) error {
	return s.c.Create(ctx, c)
}

func (s *CacheStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cache, error) {
	return s.c.GetByID(ctx, id)
}

func (s *CacheStore) ListByService(ctx context.Context, serviceID uuid.UUID) ([]*domain.Cache, error) {
	return s.c.Query(ctx, `doc->>'serviceId' = $2`, serviceID.String())
}

func (s *CacheStore) GetAll(ctx context.Context) ([]*domain.Cache, error) {
	return s.c.GetAll(ctx)
}

func (s *CacheStore) Update(ctx context.Context, c *domain.Cache) error {
	return s.c.Update(ctx, c)
}

func (s *CacheStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.c.Delete(ctx, id)
}
