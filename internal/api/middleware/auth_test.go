package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/cachefleet/cachefleet/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

type stubParser struct {
	claims *service.Claims
	err    error
}

func (s *stubParser) ParseToken(raw string) (*service.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func okHandler(seen **service.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = ClaimsFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	handler := JWTAuth(&stubParser{})(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuth_MalformedHeader(t *testing.T) {
	handler := JWTAuth(&stubParser{})(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuth_InvalidToken(t *testing.T) {
	handler := JWTAuth(&stubParser{err: errors.New("bad signature")})(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuth_AttachesClaims(t *testing.T) {
	want := &service.Claims{
		Email: "ops@example.com",
		Role:  domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "2b6b1a9e-0000-0000-0000-000000000001",
		},
	}
	var seen *service.Claims
	handler := JWTAuth(&stubParser{claims: want})(okHandler(&seen))

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, want, seen)
}

func TestRequireRole_NoClaims(t *testing.T) {
	handler := RequireRole(domain.RoleAdmin)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole_WrongRole(t *testing.T) {
	parser := &stubParser{claims: &service.Claims{Email: "u@example.com", Role: domain.RoleUser}}
	handler := JWTAuth(parser)(RequireRole(domain.RoleAdmin)(okHandler(nil)))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole_Allows(t *testing.T) {
	parser := &stubParser{claims: &service.Claims{Email: "a@example.com", Role: domain.RoleAdmin}}
	handler := JWTAuth(parser)(RequireRole(domain.RoleAdmin)(okHandler(nil)))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
