package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// metaSuffix is appended to a blob's file name to form the sidecar file
// holding its literal content-type string.
const metaSuffix = ".meta"

// FilesystemStore persists blobs as plain files: one directory per
// container under baseDir, one file per blob plus a content-type sidecar.
type FilesystemStore struct {
	baseDir    string
	publicBase string
}

// NewFilesystemStore creates the base directory if needed and returns a
// store rooted there. publicBase is the base URL of the in-process blob
// endpoint used to build locators.
func NewFilesystemStore(baseDir, publicBase string) (*FilesystemStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage base dir: %w", err)
	}
	return &FilesystemStore{
		baseDir:    baseDir,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// validName reports whether a container or key names exactly one path
// element under the base directory. Separators and dot segments would
// let a request reach files outside it.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

func (s *FilesystemStore) EnsureContainer(_ context.Context, container string) error {
	if !validName(container) {
		return fmt.Errorf("invalid container name %q", container)
	}
	// MkdirAll succeeds when the directory already exists, which also
	// makes concurrent first-writes for the same tenant safe.
	if err := os.MkdirAll(filepath.Join(s.baseDir, container), 0o755); err != nil {
		return fmt.Errorf("create container %q: %w", container, err)
	}
	return nil
}

func (s *FilesystemStore) Put(ctx context.Context, container, key string, data []byte, contentType string) (string, error) {
	if !validName(key) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	if err := s.EnsureContainer(ctx, container); err != nil {
		return "", err
	}
	path := s.path(container, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob %q: %w", key, err)
	}
	if err := os.WriteFile(path+metaSuffix, []byte(contentType), 0o644); err != nil {
		return "", fmt.Errorf("write blob metadata %q: %w", key, err)
	}
	return s.locator(container, key), nil
}

func (s *FilesystemStore) Resolve(_ context.Context, container, key string) (string, error) {
	if !validName(container) || !validName(key) {
		return "", ErrNotFound
	}
	if _, err := os.Stat(s.path(container, key)); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("stat blob %q: %w", key, err)
	}
	return s.locator(container, key), nil
}

func (s *FilesystemStore) Delete(_ context.Context, container, key string) (bool, error) {
	if !validName(container) || !validName(key) {
		return false, nil
	}
	path := s.path(container, key)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("remove blob %q: %w", key, err)
	}
	if err := os.Remove(path + metaSuffix); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("key", key).Msg("blob removed but sidecar cleanup failed")
	}
	return true, nil
}

func (s *FilesystemStore) Get(_ context.Context, container, key string) ([]byte, string, error) {
	if !validName(container) || !validName(key) {
		return nil, "", ErrNotFound
	}
	path := s.path(container, key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("read blob %q: %w", key, err)
	}

	contentType := "application/octet-stream"
	if meta, err := os.ReadFile(path + metaSuffix); err == nil {
		contentType = strings.TrimSpace(string(meta))
	}
	return data, contentType, nil
}

func (s *FilesystemStore) path(container, key string) string {
	return filepath.Join(s.baseDir, container, key)
}

func (s *FilesystemStore) locator(container, key string) string {
	return s.publicBase + "/api/v1/images/blob/" + container + "/" + key
}
