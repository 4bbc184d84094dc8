package image

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository on a pgx connection pool.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository with the given pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert persists a new image record and fills in the generated id.
func (r *PostgresRepository) Insert(ctx context.Context, img *Image) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO images (
		    original_file_name, storage_key, thumbnail_storage_key, content_type,
		    file_size_bytes, width, height, thumbnail_width, thumbnail_height,
		    description, tags, uploaded_at, user_id, tenant_id,
		    original_url, thumbnail_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		    NULLIF($15, ''), NULLIF($16, ''))
		 RETURNING id`,
		img.OriginalFileName, img.StorageKey, img.ThumbnailStorageKey, img.ContentType,
		img.FileSizeBytes, img.Width, img.Height, img.ThumbnailWidth, img.ThumbnailHeight,
		img.Description, img.Tags, img.UploadedAt, img.UserID, img.TenantID,
		img.OriginalURL, img.ThumbnailURL,
	).Scan(&img.ID)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

// ListByOwner returns non-deleted summaries for (userID, tenantID), newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, userID, tenantID string) ([]Summary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, original_file_name, description, uploaded_at,
		        COALESCE(thumbnail_url, ''), thumbnail_storage_key
		 FROM images
		 WHERE user_id = $1 AND tenant_id = $2 AND NOT is_deleted
		 ORDER BY uploaded_at DESC`,
		userID, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.OriginalFileName, &s.Description, &s.UploadedAt,
			&s.ThumbnailURL, &s.ThumbnailStorageKey); err != nil {
			return nil, fmt.Errorf("scan image summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate image summaries: %w", err)
	}
	return summaries, nil
}

// GetByOwner fetches one non-deleted record scoped to its owner. An id
// that is not a UUID cannot match any record, so it reads as absent
// rather than tripping a type error in Postgres.
func (r *PostgresRepository) GetByOwner(ctx context.Context, id, userID, tenantID string) (*Image, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	img := &Image{}
	err := r.db.QueryRow(ctx,
		`SELECT id, original_file_name, storage_key, thumbnail_storage_key, content_type,
		        file_size_bytes, width, height, thumbnail_width, thumbnail_height,
		        description, tags, uploaded_at, is_deleted, user_id, tenant_id,
		        COALESCE(original_url, ''), COALESCE(thumbnail_url, '')
		 FROM images
		 WHERE id = $1 AND user_id = $2 AND tenant_id = $3 AND NOT is_deleted`,
		id, userID, tenantID,
	).Scan(
		&img.ID, &img.OriginalFileName, &img.StorageKey, &img.ThumbnailStorageKey, &img.ContentType,
		&img.FileSizeBytes, &img.Width, &img.Height, &img.ThumbnailWidth, &img.ThumbnailHeight,
		&img.Description, &img.Tags, &img.UploadedAt, &img.IsDeleted, &img.UserID, &img.TenantID,
		&img.OriginalURL, &img.ThumbnailURL,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get image by id: %w", err)
	}
	return img, nil
}

// SoftDelete flips is_deleted on the owned record and reports whether a
// matching, not-yet-deleted record existed.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id, userID, tenantID string) (bool, error) {
	if uuid.Validate(id) != nil {
		return false, nil
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE images SET is_deleted = true
		 WHERE id = $1 AND user_id = $2 AND tenant_id = $3 AND NOT is_deleted`,
		id, userID, tenantID,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete image: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FillURLs sets each locator only where it is still absent, so concurrent
// backfills and soft deletes commute and a stored URL is never regressed.
func (r *PostgresRepository) FillURLs(ctx context.Context, id, originalURL, thumbnailURL string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE images
		 SET original_url  = COALESCE(original_url, NULLIF($2, '')),
		     thumbnail_url = COALESCE(thumbnail_url, NULLIF($3, ''))
		 WHERE id = $1`,
		id, originalURL, thumbnailURL,
	)
	if err != nil {
		return fmt.Errorf("fill image urls: %w", err)
	}
	return nil
}
