package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local stores uploads on disk under a single directory and serves them
// back through the router's /uploads static route.
type Local struct {
	dir     string
	baseURL string
}

func NewLocal(dir string) *Local {
	return &Local{dir: dir, baseURL: "/uploads"}
}

// Dir returns the storage directory, for static serving and health checks.
func (s *Local) Dir() string { return s.dir }

// Save copies the buffered upload into the storage directory, creating it
// on first use. storedName is already sanitized and timestamp-prefixed, so
// concurrent saves never collide.
func (s *Local) Save(ctx context.Context, localPath, storedName string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open buffered upload: %w", err)
	}
	defer src.Close()

	dst := filepath.Join(s.dir, storedName)
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dst, err)
	}

	return s.baseURL + "/" + storedName, nil
}

// Remove deletes a stored upload, used as compensating cleanup.
func (s *Local) Remove(ctx context.Context, storedName string) error {
	return os.Remove(filepath.Join(s.dir, storedName))
}
