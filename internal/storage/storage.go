// AngelaMos | 2026
// storage.go

// Package storage abstracts blob persistence for uploaded product
// images. Two drivers exist: a local filesystem store for development
// and single-node deployments, and an S3-compatible store for
// everything else.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/carterperez-dev/storefront-api/internal/config"
)

var ErrObjectNotFound = errors.New("object not found")

// Store is the blob interface the product layer writes through. Keys
// are slash-separated relative paths, e.g. "admin/products/<uuid>.png".
type Store interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New selects the driver from configuration. Config validation already
// constrained the driver name, so an unknown value here is a bug.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "local":
		return NewLocalStore(cfg.LocalRoot, cfg.BaseURL)
	default:
		return nil, errors.New("unknown storage driver: " + cfg.Driver)
	}
}
