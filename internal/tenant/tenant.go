// Package tenant resolves tenants and their storage containers.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tenant is one isolated customer of the platform. StorageContainer is
// the blob-store namespace all of the tenant's images live in.
type Tenant struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Subdomain        string    `json:"subdomain"`
	StorageContainer string    `json:"-"`
	IsActive         bool      `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ErrNotFound is returned when a tenant does not exist or is inactive.
var ErrNotFound = errors.New("tenant not found")

// Repository handles tenant database operations. Inactive tenants are
// invisible through every query.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetBySubdomain fetches an active tenant by its subdomain.
func (r *Repository) GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	return r.get(ctx,
		`SELECT id, name, subdomain, storage_container, is_active, created_at
		 FROM tenants WHERE subdomain = $1 AND is_active`,
		subdomain)
}

// GetByID fetches an active tenant by its id.
func (r *Repository) GetByID(ctx context.Context, id string) (*Tenant, error) {
	return r.get(ctx,
		`SELECT id, name, subdomain, storage_container, is_active, created_at
		 FROM tenants WHERE id = $1 AND is_active`,
		id)
}

// ContainerFor returns the storage container name for an active tenant.
func (r *Repository) ContainerFor(ctx context.Context, tenantID string) (string, error) {
	t, err := r.GetByID(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return t.StorageContainer, nil
}

func (r *Repository) get(ctx context.Context, query, arg string) (*Tenant, error) {
	t := &Tenant{}
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&t.ID, &t.Name, &t.Subdomain, &t.StorageContainer, &t.IsActive, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}
