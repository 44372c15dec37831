package upload

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/objstore"
	"github.com/tcmclinic/telemed/pkg/types"
)

// MaxUploadSize bounds a single attachment.
const MaxUploadSize = 10 << 20

// Service implements file attachment management. Bytes go to the object
// store first; the metadata row is written only after a successful store,
// so a failed upload never leaves a dangling row.
type Service struct {
	logger *logger.Logger
	repo   *Repository
	store  objstore.Store
}

// NewService creates a new upload service instance
func NewService(log *logger.Logger, repo *Repository, store objstore.Store) *Service {
	return &Service{
		logger: log,
		repo:   repo,
		store:  store,
	}
}

// Upload stores the attachment bytes and records its metadata.
func (s *Service) Upload(ctx context.Context, uploaderID, fileName, contentType string, size int64, body io.Reader, relatedType, relatedID string) (*types.FileUpload, error) {
	if fileName == "" {
		return nil, types.NewValidationError("file name is required")
	}
	if size <= 0 {
		return nil, types.NewValidationError("file is empty")
	}
	if size > MaxUploadSize {
		return nil, types.NewValidationError(fmt.Sprintf("file exceeds the %d MB limit", MaxUploadSize>>20))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	id := uuid.New().String()
	key := storageKey(id, fileName)

	if err := s.store.Put(ctx, key, contentType, io.LimitReader(body, MaxUploadSize)); err != nil {
		return nil, err
	}

	file := &types.FileUpload{
		ID:          id,
		UploaderID:  uploaderID,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
		Key:         key,
		RelatedType: relatedType,
		RelatedID:   relatedID,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Create(ctx, file); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.WithError(delErr).WithField("key", key).Warn("Failed to remove orphaned blob")
		}
		return nil, err
	}

	s.logger.WithField("file_id", id).WithField("size", size).Info("File uploaded")
	return file, nil
}

// Download returns the metadata and a reader over the stored bytes. The
// caller must close the reader.
func (s *Service) Download(ctx context.Context, principal *types.Principal, id string) (*types.FileUpload, io.ReadCloser, error) {
	file, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := authorizeAccess(principal, file); err != nil {
		return nil, nil, err
	}

	body, err := s.store.Get(ctx, file.Key)
	if err != nil {
		return nil, nil, err
	}
	return file, body, nil
}

// Delete removes the metadata row and then the blob. A blob that outlives
// its row is unreachable garbage, not a correctness problem.
func (s *Service) Delete(ctx context.Context, principal *types.Principal, id string) error {
	file, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeAccess(principal, file); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, file.Key); err != nil {
		s.logger.WithError(err).WithField("key", file.Key).Warn("Failed to delete stored blob")
	}
	return nil
}

// ListMine returns the caller's uploads.
func (s *Service) ListMine(ctx context.Context, principal *types.Principal, limit, offset int) ([]*types.FileUpload, error) {
	return s.repo.ListByUploader(ctx, principal.UserID, limit, offset)
}

func authorizeAccess(principal *types.Principal, file *types.FileUpload) error {
	if principal.Role == types.RoleAdmin || file.UploaderID == principal.UserID {
		return nil
	}
	return types.NewForbiddenError("not your file")
}

func storageKey(id, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return "uploads/" + id + ext
}
