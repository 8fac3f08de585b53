package service

import (
	"context"
	"testing"

	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/google/uuid"
)

func TestUserService_CreateDuplicateEmail(t *testing.T) {
	users := newMockUserStore()
	s := NewUserService(users)
	ctx := context.Background()

	if err := s.Create(ctx, &domain.User{Email: "ops@example.com"}, "pw"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := s.Create(ctx, &domain.User{Email: "ops@example.com"}, "pw"); err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUserService_CreateValidation(t *testing.T) {
	s := NewUserService(newMockUserStore())
	ctx := context.Background()

	if err := s.Create(ctx, &domain.User{}, "pw"); err != ErrEmailRequired {
		t.Fatalf("expected ErrEmailRequired, got %v", err)
	}
	if err := s.Create(ctx, &domain.User{Email: "x@example.com"}, ""); err != ErrPasswordRequired {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
	if err := s.Create(ctx, &domain.User{Email: "x@example.com", Role: "superuser"}, "pw"); err != ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestUserService_CreateDefaultsRole(t *testing.T) {
	s := NewUserService(newMockUserStore())

	u := &domain.User{Email: "x@example.com"}
	if err := s.Create(context.Background(), u, "pw"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Role != domain.RoleUser {
		t.Fatalf("expected default role user, got %s", u.Role)
	}
	if u.PasswordHash == "" || u.PasswordHash == "pw" {
		t.Fatal("expected a hashed password")
	}
}

func TestUserService_UpdateRole(t *testing.T) {
	users := newMockUserStore()
	s := NewUserService(users)
	ctx := context.Background()

	u := &domain.User{Email: "x@example.com"}
	if err := s.Create(ctx, u, "pw"); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := s.UpdateRole(ctx, u.ID, domain.RoleManager)
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if updated.Role != domain.RoleManager {
		t.Fatalf("expected manager, got %s", updated.Role)
	}

	if _, err := s.UpdateRole(ctx, u.ID, "superuser"); err != ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestUserService_CanAccessService(t *testing.T) {
	users := newMockUserStore()
	s := NewUserService(users)
	ctx := context.Background()

	admin := &domain.User{Email: "admin@example.com", Role: domain.RoleAdmin}
	if err := s.Create(ctx, admin, "pw"); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	limited := &domain.User{Email: "u@example.com", Role: domain.RoleUser, LinkedServices: []string{"billing-api"}}
	if err := s.Create(ctx, limited, "pw"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	ok, err := s.CanAccessService(ctx, admin.ID, domain.RoleAdmin, "anything")
	if err != nil || !ok {
		t.Fatalf("expected admin access, got ok=%v err=%v", ok, err)
	}

	ok, err = s.CanAccessService(ctx, limited.ID, domain.RoleUser, "billing-api")
	if err != nil || !ok {
		t.Fatalf("expected linked access, got ok=%v err=%v", ok, err)
	}

	ok, err = s.CanAccessService(ctx, limited.ID, domain.RoleUser, "other-service")
	if err != nil || ok {
		t.Fatalf("expected no access to unlinked service, got ok=%v err=%v", ok, err)
	}
}

func TestUserService_LinkServices(t *testing.T) {
	users := newMockUserStore()
	s := NewUserService(users)
	ctx := context.Background()

	u := &domain.User{Email: "x@example.com"}
	if err := s.Create(ctx, u, "pw"); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := s.LinkServices(ctx, u.ID, []string{"a", "b"})
	if err != nil {
		t.Fatalf("link services: %v", err)
	}
	if len(updated.LinkedServices) != 2 {
		t.Fatalf("expected 2 linked services, got %d", len(updated.LinkedServices))
	}
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	s := NewUserService(newMockUserStore())

	if _, err := s.GetByID(context.Background(), uuid.New()); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
