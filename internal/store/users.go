package store

import (
	"context"

	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserStore struct {
	c *Collection[domain.User, *domain.User]
}

func NewUserStore(db *pgxpool.Pool) *UserStore {
	return &UserStore{c: NewCollection[domain.User, *domain.User](db, "users", domain.PartitionUsers)}
}

func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	return s.c.Create(ctx, u)
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.c.GetByID(ctx, id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.c.QueryOne(ctx, `doc->>'email' = $2`, email)
}

func (s *UserStore) GetAll(ctx context.Context) ([]*domain.User, error) {
	return s.c.GetAll(ctx)
}

func (s *UserStore) Update(ctx context.Context, u *domain.User) error {
	return s.c.Update(ctx, u)
}

func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.c.Delete(ctx, id)
}
