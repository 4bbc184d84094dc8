package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// MinioStore implements Store on a MinIO (or any S3-compatible) backend.
// Each container maps to one bucket, so container names must satisfy the
// S3 bucket naming rules (lowercase, DNS-safe, max 63 chars).
type MinioStore struct {
	client     *minio.Client
	publicBase string
}

// NewMinioStore creates a MinIO client and verifies connectivity.
// Buckets are not created here — containers come into existence lazily
// on the first write for their tenant.
func NewMinioStore(endpoint, accessKey, secretKey, publicBase string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioStore{
		client:     client,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

func (s *MinioStore) EnsureContainer(ctx context.Context, container string) error {
	exists, err := s.client.BucketExists(ctx, container)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", container, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, container, minio.MakeBucketOptions{}); err != nil {
		// Two concurrent first-uploads may race the existence check;
		// losing that race is not a failure.
		code := minio.ToErrorResponse(err).Code
		if code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return fmt.Errorf("create bucket %q: %w", container, err)
	}
	log.Info().Str("container", container).Msg("created storage bucket")
	return nil
}

func (s *MinioStore) Put(ctx context.Context, container, key string, data []byte, contentType string) (string, error) {
	if err := s.EnsureContainer(ctx, container); err != nil {
		return "", err
	}
	_, err := s.client.PutObject(ctx, container, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}
	return s.locator(container, key), nil
}

func (s *MinioStore) Resolve(ctx context.Context, container, key string) (string, error) {
	if _, err := s.client.StatObject(ctx, container, key, minio.StatObjectOptions{}); err != nil {
		if isMissing(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("stat object %q: %w", key, err)
	}
	return s.locator(container, key), nil
}

func (s *MinioStore) Delete(ctx context.Context, container, key string) (bool, error) {
	// RemoveObject does not report whether the key existed, so stat first.
	if _, err := s.client.StatObject(ctx, container, key, minio.StatObjectOptions{}); err != nil {
		if isMissing(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat object %q: %w", key, err)
	}
	if err := s.client.RemoveObject(ctx, container, key, minio.RemoveObjectOptions{}); err != nil {
		return false, fmt.Errorf("remove object %q: %w", key, err)
	}
	return true, nil
}

func (s *MinioStore) Get(ctx context.Context, container, key string) ([]byte, string, error) {
	obj, err := s.client.GetObject(ctx, container, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("get object %q: %w", key, err)
	}
	defer obj.Close()

	// GetObject is lazy; Stat surfaces both the missing-key case and
	// the stored content type.
	info, err := obj.Stat()
	if err != nil {
		if isMissing(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("stat object %q: %w", key, err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", fmt.Errorf("read object %q: %w", key, err)
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

// locator is the browser-accessible URL the backend serves the object at,
// e.g. "http://localhost:9000/acme-images/original_xxx.jpg".
func (s *MinioStore) locator(container, key string) string {
	return s.publicBase + "/" + container + "/" + key
}

func isMissing(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}
