// Package auth handles tenant-scoped email/password authentication.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// User is a registered account inside one tenant.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	TenantID     string    `json:"tenantId"`
	IsActive     bool      `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ErrUserNotFound is returned when no active user matches the query.
var ErrUserNotFound = errors.New("user not found")

// Repository handles user persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new auth Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetByEmail fetches an active user by email within one tenant.
func (r *Repository) GetByEmail(ctx context.Context, email, tenantID string) (*User, error) {
	return r.get(ctx,
		`SELECT id, username, email, password_hash, tenant_id, is_active, created_at
		 FROM users WHERE email = $1 AND tenant_id = $2 AND is_active`,
		email, tenantID)
}

// GetByID fetches an active user by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.get(ctx,
		`SELECT id, username, email, password_hash, tenant_id, is_active, created_at
		 FROM users WHERE id = $1 AND is_active`,
		id)
}

// Insert persists a new user and fills in the generated id.
func (r *Repository) Insert(ctx context.Context, u *User) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, tenant_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		u.Username, u.Email, u.PasswordHash, u.TenantID,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) get(ctx context.Context, query string, args ...any) (*User, error) {
	u := &User{}
	err := r.db.QueryRow(ctx, query, args...).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.TenantID, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
