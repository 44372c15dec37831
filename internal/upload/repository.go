package upload

import (
	"context"
	"database/sql"

	"github.com/tcmclinic/telemed/pkg/database"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Repository implements file upload metadata persistence
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new upload repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

const uploadColumns = `id, uploader_id, file_name, content_type, size, storage_key, related_type, related_id, created_at`

func scanUpload(row interface{ Scan(...interface{}) error }) (*types.FileUpload, error) {
	var f types.FileUpload
	var relatedType, relatedID sql.NullString

	err := row.Scan(
		&f.ID,
		&f.UploaderID,
		&f.FileName,
		&f.ContentType,
		&f.Size,
		&f.Key,
		&relatedType,
		&relatedID,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.RelatedType = relatedType.String
	f.RelatedID = relatedID.String
	return &f, nil
}

// Create inserts an upload metadata row.
func (r *Repository) Create(ctx context.Context, f *types.FileUpload) error {
	query := `
		INSERT INTO file_uploads (id, uploader_id, file_name, content_type,
			size, storage_key, related_type, related_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.UploaderID, f.FileName, f.ContentType,
		f.Size, f.Key, nullString(f.RelatedType), nullString(f.RelatedID), f.CreatedAt)
	if err != nil {
		return types.NewInternalError("failed to record upload", err)
	}
	return nil
}

// GetByID retrieves upload metadata by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*types.FileUpload, error) {
	query := `SELECT ` + uploadColumns + ` FROM file_uploads WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	f, err := scanUpload(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("file not found")
		}
		return nil, types.NewInternalError("failed to get upload", err)
	}
	return f, nil
}

// Delete removes the metadata row.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM file_uploads WHERE id = $1`, id)
	if err != nil {
		return types.NewInternalError("failed to delete upload", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return types.NewInternalError("failed to delete upload", err)
	}
	if rows == 0 {
		return types.NewNotFoundError("file not found")
	}
	return nil
}

// ListByUploader returns a user's uploads, newest first.
func (r *Repository) ListByUploader(ctx context.Context, uploaderID string, limit, offset int) ([]*types.FileUpload, error) {
	query := `SELECT ` + uploadColumns + ` FROM file_uploads
		WHERE uploader_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, uploaderID, limit, offset)
	if err != nil {
		return nil, types.NewInternalError("failed to list uploads", err)
	}
	defer rows.Close()

	uploads := []*types.FileUpload{}
	for rows.Next() {
		f, err := scanUpload(rows)
		if err != nil {
			return nil, types.NewInternalError("failed to scan upload", err)
		}
		uploads = append(uploads, f)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewInternalError("failed to list uploads", err)
	}
	return uploads, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
