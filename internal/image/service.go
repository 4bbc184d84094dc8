package image

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/imagevault/service/internal/blob"
)

// ErrUnsupportedFormat is returned when the declared content type is not
// on the upload allow-list.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ErrTooLarge is returned when the upload exceeds the configured size limit.
var ErrTooLarge = errors.New("file size exceeds limit")

// PartialUploadError reports that the original blob was written but the
// thumbnail write failed, leaving an orphaned blob behind. No metadata
// record exists for it; reconciliation is an operator concern.
type PartialUploadError struct {
	Container string
	OrphanKey string
	Err       error
}

func (e *PartialUploadError) Error() string {
	return fmt.Sprintf("partial upload: orphaned blob %s/%s: %v", e.Container, e.OrphanKey, e.Err)
}

func (e *PartialUploadError) Unwrap() error { return e.Err }

// ContainerResolver maps a tenant to its storage container name.
// Unknown or inactive tenants yield tenant.ErrNotFound.
type ContainerResolver interface {
	ContainerFor(ctx context.Context, tenantID string) (string, error)
}

// Limits is the configuration surface of the ingestion service.
type Limits struct {
	MaxUploadBytes   int64
	ThumbnailMaxEdge int
}

// Service orchestrates upload, listing, retrieval and soft deletion of
// images. It holds no cross-request mutable state; every method is an
// independent unit of work scoped to one (user, tenant) pair.
type Service struct {
	repo    Repository
	store   blob.Store
	tenants ContainerResolver
	limits  Limits
}

// NewService creates a new ingestion Service.
func NewService(repo Repository, store blob.Store, tenants ContainerResolver, limits Limits) *Service {
	return &Service{repo: repo, store: store, tenants: tenants, limits: limits}
}

// UploadRequest carries one upload into the service.
type UploadRequest struct {
	Data        []byte
	FileName    string
	ContentType string
	Size        int64
	UserID      string
	TenantID    string
	Description *string
	Tags        *string
}

// Upload validates, normalizes and stores one image. Both blobs are
// written before the metadata record is inserted, so a visible record
// never references a missing blob. Validation failures short-circuit
// before any I/O.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*Image, error) {
	if !IsSupportedFormat(req.ContentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.ContentType)
	}
	if req.Size > s.limits.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, req.Size)
	}

	container, err := s.tenants.ContainerFor(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	norm, err := Normalize(req.Data, s.limits.ThumbnailMaxEdge)
	if err != nil {
		return nil, err
	}

	// Fresh random keys per upload; overwrites cannot collide.
	uid := uuid.NewString()
	ext := CanonicalExtension(req.ContentType)
	originalKey := "original_" + uid + ext
	thumbnailKey := "thumb_" + uid + ext

	originalURL, err := s.store.Put(ctx, container, originalKey, norm.OriginalBytes, normalizedContentType)
	if err != nil {
		return nil, fmt.Errorf("store original: %w", err)
	}

	thumbnailURL, err := s.store.Put(ctx, container, thumbnailKey, norm.ThumbnailBytes, normalizedContentType)
	if err != nil {
		log.Error().Err(err).
			Str("container", container).
			Str("orphanKey", originalKey).
			Msg("thumbnail write failed, original blob orphaned")
		return nil, &PartialUploadError{Container: container, OrphanKey: originalKey, Err: err}
	}

	img := &Image{
		OriginalFileName:    req.FileName,
		StorageKey:          originalKey,
		ThumbnailStorageKey: thumbnailKey,
		ContentType:         req.ContentType,
		FileSizeBytes:       req.Size,
		Width:               norm.Width,
		Height:              norm.Height,
		ThumbnailWidth:      norm.ThumbnailWidth,
		ThumbnailHeight:     norm.ThumbnailHeight,
		Description:         req.Description,
		Tags:                req.Tags,
		UploadedAt:          time.Now().UTC(),
		UserID:              req.UserID,
		TenantID:            req.TenantID,
		OriginalURL:         originalURL,
		ThumbnailURL:        thumbnailURL,
	}
	if err := s.repo.Insert(ctx, img); err != nil {
		log.Error().Err(err).
			Str("container", container).
			Str("orphanKey", originalKey).
			Str("orphanThumbnailKey", thumbnailKey).
			Msg("metadata insert failed, both blobs orphaned")
		return nil, fmt.Errorf("persist image metadata: %w", err)
	}

	log.Info().
		Str("imageId", img.ID).
		Str("userId", req.UserID).
		Str("tenantId", req.TenantID).
		Int64("sizeBytes", req.Size).
		Msg("image uploaded")
	return img, nil
}

// List returns the owner's non-deleted images, newest first. Summaries
// missing a thumbnail locator get one resolved and persisted back; a
// failed backfill never fails the read.
func (s *Service) List(ctx context.Context, userID, tenantID string) ([]Summary, error) {
	summaries, err := s.repo.ListByOwner(ctx, userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	container := ""
	for i := range summaries {
		if summaries[i].ThumbnailURL != "" {
			continue
		}
		if container == "" {
			container, err = s.tenants.ContainerFor(ctx, tenantID)
			if err != nil {
				log.Warn().Err(err).Str("tenantId", tenantID).Msg("thumbnail backfill skipped")
				break
			}
		}
		url, err := s.store.Resolve(ctx, container, summaries[i].ThumbnailStorageKey)
		if err != nil {
			log.Warn().Err(err).Str("imageId", summaries[i].ID).Msg("thumbnail backfill failed")
			continue
		}
		summaries[i].ThumbnailURL = url
		if err := s.repo.FillURLs(ctx, summaries[i].ID, "", url); err != nil {
			log.Warn().Err(err).Str("imageId", summaries[i].ID).Msg("thumbnail backfill persist failed")
		}
	}
	return summaries, nil
}

// Get returns the owned image with the given id, or ErrNotFound. Missing
// locators are resolved and persisted back before returning; a failed
// backfill returns the record with whatever URLs it already has.
func (s *Service) Get(ctx context.Context, id, userID, tenantID string) (*Image, error) {
	img, err := s.repo.GetByOwner(ctx, id, userID, tenantID)
	if err != nil {
		return nil, err
	}

	if img.OriginalURL == "" || img.ThumbnailURL == "" {
		s.backfillURLs(ctx, img)
	}
	return img, nil
}

// SoftDelete marks the owned image deleted and reports whether a matching
// record existed. Blobs are left in place; reclamation is a deliberate,
// separate operation that this service never performs.
func (s *Service) SoftDelete(ctx context.Context, id, userID, tenantID string) (bool, error) {
	deleted, err := s.repo.SoftDelete(ctx, id, userID, tenantID)
	if err != nil {
		return false, fmt.Errorf("soft delete image: %w", err)
	}
	if deleted {
		log.Info().Str("imageId", id).Str("userId", userID).Str("tenantId", tenantID).Msg("image soft-deleted")
	}
	return deleted, nil
}

func (s *Service) backfillURLs(ctx context.Context, img *Image) {
	container, err := s.tenants.ContainerFor(ctx, img.TenantID)
	if err != nil {
		log.Warn().Err(err).Str("imageId", img.ID).Msg("url backfill skipped")
		return
	}

	if img.OriginalURL == "" {
		url, err := s.store.Resolve(ctx, container, img.StorageKey)
		if err != nil {
			log.Warn().Err(err).Str("imageId", img.ID).Msg("original url backfill failed")
		} else {
			img.OriginalURL = url
		}
	}
	if img.ThumbnailURL == "" {
		url, err := s.store.Resolve(ctx, container, img.ThumbnailStorageKey)
		if err != nil {
			log.Warn().Err(err).Str("imageId", img.ID).Msg("thumbnail url backfill failed")
		} else {
			img.ThumbnailURL = url
		}
	}

	if img.OriginalURL == "" && img.ThumbnailURL == "" {
		return
	}
	if err := s.repo.FillURLs(ctx, img.ID, img.OriginalURL, img.ThumbnailURL); err != nil {
		log.Warn().Err(err).Str("imageId", img.ID).Msg("url backfill persist failed")
	}
}
