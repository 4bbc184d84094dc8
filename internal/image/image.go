// Package image implements the image ingestion pipeline: validation,
// normalization, blob persistence and tenant-scoped metadata.
package image

import (
	"context"
	"errors"
	"time"
)

// Image is the durable metadata record for one uploaded image. The two
// storage keys name the blobs in the owner tenant's container; the URL
// fields are cached locators, always re-derivable from the keys.
type Image struct {
	ID                  string    `json:"id"`
	OriginalFileName    string    `json:"originalFileName"`
	StorageKey          string    `json:"-"`
	ThumbnailStorageKey string    `json:"-"`
	ContentType         string    `json:"contentType"`
	FileSizeBytes       int64     `json:"fileSizeBytes"`
	Width               int       `json:"width"`
	Height              int       `json:"height"`
	ThumbnailWidth      int       `json:"thumbnailWidth"`
	ThumbnailHeight     int       `json:"thumbnailHeight"`
	Description         *string   `json:"description,omitempty"`
	Tags                *string   `json:"tags,omitempty"`
	UploadedAt          time.Time `json:"uploadedAt"`
	IsDeleted           bool      `json:"-"`
	UserID              string    `json:"-"`
	TenantID            string    `json:"-"`
	OriginalURL         string    `json:"originalUrl"`
	ThumbnailURL        string    `json:"thumbnailUrl"`
}

// Summary is the reduced listing view of an image.
type Summary struct {
	ID                  string    `json:"id"`
	OriginalFileName    string    `json:"originalFileName"`
	Description         *string   `json:"description,omitempty"`
	UploadedAt          time.Time `json:"uploadedAt"`
	ThumbnailURL        string    `json:"thumbnailUrl"`
	ThumbnailStorageKey string    `json:"-"`
}

// ErrNotFound is returned when no matching, non-deleted image exists for
// the caller's (user, tenant) pair.
var ErrNotFound = errors.New("image not found")

// Repository is the metadata store the ingestion service runs against.
// Every query is scoped by (userID, tenantID) inside the implementation,
// never filtered after the fact.
type Repository interface {
	// Insert persists a new record and fills in its generated fields.
	Insert(ctx context.Context, img *Image) error

	// ListByOwner returns non-deleted summaries for the owner, newest first.
	ListByOwner(ctx context.Context, userID, tenantID string) ([]Summary, error)

	// GetByOwner returns the non-deleted record with the given id owned by
	// (userID, tenantID), or ErrNotFound.
	GetByOwner(ctx context.Context, id, userID, tenantID string) (*Image, error)

	// SoftDelete marks the owned record deleted and reports whether a
	// matching record existed.
	SoftDelete(ctx context.Context, id, userID, tenantID string) (bool, error)

	// FillURLs stores the given locators on the record, keeping any value
	// that is already present. Concurrent calls and concurrent soft
	// deletes commute; the update never clears a URL.
	FillURLs(ctx context.Context, id, originalURL, thumbnailURL string) error
}
