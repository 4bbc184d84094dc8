package blob

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestFilesystemStore(t *testing.T) *FilesystemStore {
	t.Helper()
	s, err := NewFilesystemStore(t.TempDir(), "http://localhost:8080")
	if err != nil {
		t.Fatalf("NewFilesystemStore error: %v", err)
	}
	return s
}

func TestFilesystemStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestFilesystemStore(t)

	data := []byte("not really a jpeg")
	locator, err := s.Put(ctx, "acme-images", "original_abc.jpg", data, "image/jpeg")
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}

	resolved, err := s.Resolve(ctx, "acme-images", "original_abc.jpg")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if resolved != locator {
		t.Errorf("Resolve returned %q, Put returned %q", resolved, locator)
	}

	got, contentType, err := s.Get(ctx, "acme-images", "original_abc.jpg")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Get returned %q, want %q", got, data)
	}
	if contentType != "image/jpeg" {
		t.Errorf("Get content type = %q, want image/jpeg", contentType)
	}
}

func TestFilesystemStore_SidecarLayout(t *testing.T) {
	ctx := context.Background()
	s := newTestFilesystemStore(t)

	if _, err := s.Put(ctx, "acme-images", "a.jpg", []byte{0x01}, "image/jpeg"); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	meta, err := os.ReadFile(filepath.Join(s.baseDir, "acme-images", "a.jpg.meta"))
	if err != nil {
		t.Fatalf("expected sidecar file: %v", err)
	}
	if string(meta) != "image/jpeg" {
		t.Errorf("sidecar holds %q, want image/jpeg", meta)
	}
}

func TestFilesystemStore_MissingSidecarFallsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestFilesystemStore(t)

	if _, err := s.Put(ctx, "acme-images", "a.jpg", []byte{0x01}, "image/jpeg"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := os.Remove(filepath.Join(s.baseDir, "acme-images", "a.jpg.meta")); err != nil {
		t.Fatalf("remove sidecar: %v", err)
	}

	_, contentType, err := s.Get(ctx, "acme-images", "a.jpg")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if contentType != "application/octet-stream" {
		t.Errorf("content type = %q, want application/octet-stream fallback", contentType)
	}
}

func TestFilesystemStore_DeleteRemovesSidecar(t *testing.T) {
	ctx := context.Background()
	s := newTestFilesystemStore(t)

	if _, err := s.Put(ctx, "acme-images", "a.jpg", []byte{0x01}, "image/jpeg"); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	removed, err := s.Delete(ctx, "acme-images", "a.jpg")
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if !removed {
		t.Error("expected removed=true")
	}
	if _, err := os.Stat(filepath.Join(s.baseDir, "acme-images", "a.jpg.meta")); !os.IsNotExist(err) {
		t.Error("sidecar should be removed with the blob")
	}

	removed, err = s.Delete(ctx, "acme-images", "a.jpg")
	if err != nil {
		t.Fatalf("repeat Delete error: %v", err)
	}
	if removed {
		t.Error("expected removed=false on repeat delete")
	}
}

func TestFilesystemStore_GetAbsent(t *testing.T) {
	s := newTestFilesystemStore(t)

	if _, _, err := s.Get(context.Background(), "acme-images", "missing.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFilesystemStore_RejectsPathEscapes(t *testing.T) {
	ctx := context.Background()

	root := t.TempDir()
	secret := filepath.Join(root, ".env")
	if err := os.WriteFile(secret, []byte("JWT_SECRET=supersecret"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	s, err := NewFilesystemStore(filepath.Join(root, "uploads"), "http://localhost:8080")
	if err != nil {
		t.Fatalf("NewFilesystemStore error: %v", err)
	}

	names := []struct {
		container, key string
	}{
		{"..", ".env"},
		{"acme-images", "../../.env"},
		{"../..", "etc"},
		{"acme-images", `..\..\.env`},
		{".", ".env"},
		{"", ".env"},
		{"acme-images", ""},
	}
	for _, n := range names {
		if _, _, err := s.Get(ctx, n.container, n.key); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%q, %q): expected ErrNotFound, got %v", n.container, n.key, err)
		}
		if _, err := s.Resolve(ctx, n.container, n.key); !errors.Is(err, ErrNotFound) {
			t.Errorf("Resolve(%q, %q): expected ErrNotFound, got %v", n.container, n.key, err)
		}
		removed, err := s.Delete(ctx, n.container, n.key)
		if err != nil || removed {
			t.Errorf("Delete(%q, %q) = (%v, %v), want (false, nil)", n.container, n.key, removed, err)
		}
		if _, err := s.Put(ctx, n.container, n.key, []byte{0x01}, "image/jpeg"); err == nil {
			t.Errorf("Put(%q, %q): expected error", n.container, n.key)
		}
	}

	// The file outside the base directory is untouched.
	if data, err := os.ReadFile(secret); err != nil || string(data) != "JWT_SECRET=supersecret" {
		t.Fatalf("secret file changed: %q, %v", data, err)
	}
}

func TestFilesystemStore_EnsureContainerIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestFilesystemStore(t)

	if err := s.EnsureContainer(ctx, "acme-images"); err != nil {
		t.Fatalf("first EnsureContainer error: %v", err)
	}
	if err := s.EnsureContainer(ctx, "acme-images"); err != nil {
		t.Fatalf("second EnsureContainer error: %v", err)
	}
}
