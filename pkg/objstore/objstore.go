package objstore

import (
	"context"
	"io"

	"github.com/tcmclinic/telemed/pkg/config"
	"github.com/tcmclinic/telemed/pkg/logger"
)

// Store is the file attachment backend. Bytes are addressed by an opaque
// key; metadata lives in the file_uploads table.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// New selects the S3 backend when a bucket is configured and falls back
// to local directory writes otherwise.
func New(cfg *config.StorageConfig, log *logger.Logger) (Store, error) {
	if cfg.Bucket != "" {
		return newS3Store(cfg, log)
	}
	log.WithField("dir", cfg.UploadDir).Info("STORAGE_BUCKET not set, using local file storage")
	return newLocalStore(cfg.UploadDir)
}
