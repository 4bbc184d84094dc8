package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/imagevault/service/internal/tenant"
)

const tokenTTL = 24 * time.Hour

// ErrInvalidCredentials is returned for a wrong password, an unknown user
// or an unknown tenant. Deliberately indistinguishable to callers.
var ErrInvalidCredentials = errors.New("invalid credentials")

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token      string `json:"token"`
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	TenantName string `json:"tenantName"`
}

// Service contains the business logic for login and token issuance.
type Service struct {
	repo      *Repository
	tenants   *tenant.Repository
	jwtSecret string
}

// NewService creates a new auth Service.
func NewService(repo *Repository, tenants *tenant.Repository, jwtSecret string) *Service {
	return &Service{repo: repo, tenants: tenants, jwtSecret: jwtSecret}
}

// Login authenticates (email, password) inside the tenant addressed by
// subdomain and issues a JWT carrying the (user, tenant) identity pair.
func (s *Service) Login(ctx context.Context, email, password, subdomain string) (*LoginResult, error) {
	t, err := s.tenants.GetBySubdomain(ctx, subdomain)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			log.Warn().Str("subdomain", subdomain).Msg("login attempt for unknown tenant")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("resolve tenant: %w", err)
	}

	u, err := s.repo.GetByEmail(ctx, email, t.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		log.Warn().Str("email", email).Str("tenantId", t.ID).Msg("invalid login attempt")
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	log.Info().Str("userId", u.ID).Str("tenantId", t.ID).Msg("user logged in")
	return &LoginResult{
		Token:      token,
		UserID:     u.ID,
		Username:   u.Username,
		Email:      u.Email,
		TenantName: t.Name,
	}, nil
}

// GetUser returns an active user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// issueToken creates a signed JWT for the given user.
func (s *Service) issueToken(u *User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      u.ID,
		"email":    u.Email,
		"tenantId": u.TenantID,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
