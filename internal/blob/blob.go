// Package blob defines the contract for tenant-scoped blob storage.
// Swap implementations by changing the concrete type injected at startup:
// the in-memory store runs fully offline, the filesystem store persists
// across restarts without external services, and the MinIO store works
// with any S3-compatible provider.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a blob does not exist in the given container.
var ErrNotFound = errors.New("blob not found")

// Store is the interface every blob backend implements. Containers are
// per-tenant namespaces created lazily; keys are opaque names generated
// by the caller, never derived from user input.
type Store interface {
	// EnsureContainer creates the container if it does not exist.
	// Idempotent and safe to call concurrently; an existing container
	// is never an error.
	EnsureContainer(ctx context.Context, container string) error

	// Put stores data under (container, key), overwriting any previous
	// value, and returns a locator the caller can hand out for retrieval.
	// The container is created first if missing.
	Put(ctx context.Context, container, key string, data []byte, contentType string) (string, error)

	// Resolve returns the locator for an existing blob, or ErrNotFound.
	Resolve(ctx context.Context, container, key string) (string, error)

	// Delete removes the blob and reports whether anything was removed.
	// Deleting a missing key is not an error.
	Delete(ctx context.Context, container, key string) (bool, error)

	// Get returns the stored bytes and content type, or ErrNotFound.
	Get(ctx context.Context, container, key string) ([]byte, string, error)
}
