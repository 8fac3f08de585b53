package service

import (
	"context"
	"testing"
	"time"

	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/cachefleet/cachefleet/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// mockUserStore implements domain.UserStore for testing.
type mockUserStore struct {
	users map[uuid.UUID]*domain.User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (m *mockUserStore) Create(ctx context.Context, u *domain.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return store.ErrConflict
		}
	}
	u.ID = uuid.New()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockUserStore) GetAll(ctx context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserStore) Update(ctx context.Context, u *domain.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return store.ErrNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func newTestAuthService(users domain.UserStore) *AuthService {
	return NewAuthService(users, "test-secret", "cachefleet-test", time.Hour)
}

func seedUser(t *testing.T, users *mockUserStore, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{Email: email, PasswordHash: hash, Role: role}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestAuthService_Login(t *testing.T) {
	users := newMockUserStore()
	s := newTestAuthService(users)
	seedUser(t, users, "admin@example.com", "s3cret", domain.RoleAdmin)

	token, user, err := s.Login(context.Background(), "admin@example.com", "s3cret")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if user.Email != "admin@example.com" {
		t.Fatalf("expected user email, got %s", user.Email)
	}
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	users := newMockUserStore()
	s := newTestAuthService(users)
	seedUser(t, users, "admin@example.com", "s3cret", domain.RoleAdmin)

	token, _, err := s.Login(context.Background(), "admin@example.com", "wrong")
	if err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if token != "" {
		t.Fatal("expected no token on failed login")
	}
}

func TestAuthService_LoginUnknownEmail(t *testing.T) {
	s := newTestAuthService(newMockUserStore())

	_, _, err := s.Login(context.Background(), "nobody@example.com", "whatever")
	if err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	users := newMockUserStore()
	s := newTestAuthService(users)
	u := seedUser(t, users, "ops@example.com", "pw", domain.RoleManager)

	token, err := s.IssueToken(u)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	claims, err := s.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != u.ID.String() {
		t.Fatalf("expected subject %s, got %s", u.ID, claims.Subject)
	}
	if claims.Email != "ops@example.com" {
		t.Fatalf("expected email claim, got %s", claims.Email)
	}
	if claims.Role != domain.RoleManager {
		t.Fatalf("expected manager role claim, got %s", claims.Role)
	}
}

func TestAuthService_ParseTokenWrongSecret(t *testing.T) {
	users := newMockUserStore()
	u := seedUser(t, users, "ops@example.com", "pw", domain.RoleUser)

	issuer := NewAuthService(users, "secret-a", "cachefleet-test", time.Hour)
	verifier := NewAuthService(users, "secret-b", "cachefleet-test", time.Hour)

	token, err := issuer.IssueToken(u)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := verifier.ParseToken(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestBootstrapAdmin(t *testing.T) {
	users := newMockUserStore()
	logger := zap.NewNop()
	ctx := context.Background()

	if err := BootstrapAdmin(ctx, users, "root@example.com", "pw", logger); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	u, err := users.GetByEmail(ctx, "root@example.com")
	if err != nil {
		t.Fatalf("expected admin to exist, got %v", err)
	}
	if u.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", u.Role)
	}

	// Second run must be a no-op
	if err := BootstrapAdmin(ctx, users, "root@example.com", "pw", logger); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	all, _ := users.GetAll(ctx)
	if len(all) != 1 {
		t.Fatalf("expected 1 user after rerun, got %d", len(all))
	}
}

func TestBootstrapAdmin_Disabled(t *testing.T) {
	users := newMockUserStore()

	if err := BootstrapAdmin(context.Background(), users, "", "", zap.NewNop()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	all, _ := users.GetAll(context.Background())
	if len(all) != 0 {
		t.Fatalf("expected no users, got %d", len(all))
	}
}
