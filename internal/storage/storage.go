// Package storage persists uploaded image blobs and returns their public URLs.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"housemarket/internal/config"
)

// Upload is one uploaded file. Field is the form key it arrived under.
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// ImageStore stores a blob and returns a stable URL for it.
type ImageStore interface {
	Save(ctx context.Context, upload Upload) (string, error)
}

// New builds the configured store wrapped in the resize pipeline.
func New(cfg *config.Config, log *zap.Logger) (ImageStore, error) {
	var (
		backend ImageStore
		err     error
	)
	switch cfg.ImageStore {
	case config.ImageStoreS3:
		backend, err = NewS3Store(context.Background(), cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3UseSSL, log)
	case config.ImageStoreLocal:
		backend, err = NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL+"/uploads", log)
	default:
		return nil, fmt.Errorf("unknown image store %q", cfg.ImageStore)
	}
	if err != nil {
		return nil, err
	}
	return NewResizingStore(backend, cfg.ImageMaxDimension, cfg.ImageJPEGQuality, cfg.ImageMaxPixels), nil
}

// LocalDir returns the directory behind store when it writes to local
// disk, and "" otherwise.
func LocalDir(store ImageStore) string {
	if r, ok := store.(*ResizingStore); ok {
		store = r.next
	}
	if d, ok := store.(interface{ Dir() string }); ok {
		return d.Dir()
	}
	return ""
}

// objectName returns a collision-free name that keeps the upload's extension.
func objectName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return uuid.NewString() + ext
}
