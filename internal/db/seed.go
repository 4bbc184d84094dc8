package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/imagevault/service/internal/auth"
)

// SeedDemoData inserts two demo tenants and three demo users, all with
// password "password123". A no-op when any tenant already exists.
// Intended for development environments only.
func SeedDemoData(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&count); err != nil {
		return fmt.Errorf("count tenants: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword("password123")
	if err != nil {
		return err
	}

	tenants := []struct {
		name, subdomain, container string
	}{
		{"Acme Corporation", "acme", "acme-images"},
		{"Tech Startup Inc", "techstartup", "techstartup-images"},
	}
	ids := make(map[string]string, len(tenants))
	for _, t := range tenants {
		var id string
		err := pool.QueryRow(ctx,
			`INSERT INTO tenants (name, subdomain, storage_container) VALUES ($1, $2, $3) RETURNING id`,
			t.name, t.subdomain, t.container,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed tenant %q: %w", t.subdomain, err)
		}
		ids[t.subdomain] = id
	}

	users := []struct {
		username, email, subdomain string
	}{
		{"john.doe", "john.doe@acme.com", "acme"},
		{"jane.smith", "jane.smith@acme.com", "acme"},
		{"bob.wilson", "bob.wilson@techstartup.com", "techstartup"},
	}
	for _, u := range users {
		_, err := pool.Exec(ctx,
			`INSERT INTO users (username, email, password_hash, tenant_id) VALUES ($1, $2, $3, $4)`,
			u.username, u.email, hash, ids[u.subdomain],
		)
		if err != nil {
			return fmt.Errorf("seed user %q: %w", u.email, err)
		}
	}

	log.Info().Msg("seeded demo tenants and users")
	return nil
}
