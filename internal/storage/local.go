package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// LocalStore writes blobs to a directory served under baseURL.
type LocalStore struct {
	dir     string
	baseURL string
	log     *zap.Logger
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir, baseURL string, log *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, baseURL: baseURL, log: log.Named("local_store")}, nil
}

// Dir is the directory files are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes the blob and returns its URL.
func (s *LocalStore) Save(ctx context.Context, upload Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := objectName(upload.Filename)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, upload.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	s.log.Debug("stored image", zap.String("path", path), zap.Int("size_bytes", len(upload.Data)))
	return s.baseURL + "/" + name, nil
}
