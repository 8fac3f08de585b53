package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cachefleet/cachefleet/internal/domain"
	"github.com/cachefleet/cachefleet/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims are embedded in every issued bearer token.
type Claims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	users  domain.UserStore
	secret []byte
	issuer string
	expiry time.Duration
}

func NewAuthService(users domain.UserStore, secret, issuer string, expiry time.Duration) *AuthService {
	return &AuthService{
		users:  users,
		secret: []byte(secret),
		issuer: issuer,
		expiry: expiry,
	}
}

// Login verifies the password against the stored bcrypt hash and issues a
// signed, time-limited token. Unknown emails and bad passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *AuthService) IssueToken(u *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates signature, expiry and issuer, and returns the claims.
func (s *AuthService) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword produces a bcrypt hash suitable for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// BootstrapAdmin creates the seeded admin account if no user with the given
// email exists. An empty email or password disables bootstrap.
func BootstrapAdmin(ctx context.Context, users domain.UserStore, email, password string, logger *zap.Logger) error {
	if email == "" || password == "" {
		return nil
	}

	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	admin := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		// Another instance may have raced the bootstrap; a conflict means
		// the admin exists.
		if errors.Is(err, store.ErrConflict) {
			return nil
		}
		return err
	}

	logger.Info("bootstrapped admin user", zap.String("email", email))
	return nil
}
