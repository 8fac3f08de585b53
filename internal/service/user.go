package service

import (
	"context"
	"errors"

	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/cachefleet/cachefleet/internal/store"
	"github.com/google/uuid"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("a user with this email already exists")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrInvalidRole      = errors.New("invalid role")
)

type UserService struct {
	store domain.UserStore
}

func NewUserService(s domain.UserStore) *UserService {
	return &UserService{store: s}
}

func (s *UserService) Create(ctx context.Context, u *domain.User, password string) error {
	if u.Email == "" {
		return ErrEmailRequired
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	if !domain.ValidRole(string(u.Role)) {
		return ErrInvalidRole
	}

	if _, err := s.store.GetByEmail(ctx, u.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash

	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) GetAll(ctx context.Context) ([]*domain.User, error) {
	return s.store.GetAll(ctx)
}

// Update changes the profile fields. Role and linked services have their own
// operations; the password hash is never touched here.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, email string) (*domain.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if email != "" && email != u.Email {
		if _, err := s.store.GetByEmail(ctx, email); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		u.Email = email
	}

	if err := s.store.Update(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailTaken
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) (*domain.User, error) {
	if !domain.ValidRole(string(role)) {
		return nil, ErrInvalidRole
	}

	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.Role = role
	if err := s.store.Update(ctx, u); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// LinkServices replaces the user's service authorization scope.
func (s *UserService) LinkServices(ctx context.Context, id uuid.UUID, services []string) (*domain.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.LinkedServices = services
	if err := s.store.Update(ctx, u); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// CanAccessService reports whether the user identified by the claims may act
// on the named service. Admins always may; others need the service linked.
func (s *UserService) CanAccessService(ctx context.Context, userID uuid.UUID, role domain.Role, serviceName string) (bool, error) {
	if role == domain.RoleAdmin {
		return true, nil
	}

	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.HasService(serviceName), nil
}
