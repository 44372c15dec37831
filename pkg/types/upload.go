package types

import "time"

// FileUpload is the metadata row for a stored attachment. The bytes live
// in object storage (or the local fallback directory); Key locates them.
type FileUpload struct {
	ID          string    `json:"id" db:"id"`
	UploaderID  string    `json:"uploader_id" db:"uploader_id"`
	FileName    string    `json:"file_name" db:"file_name"`
	ContentType string    `json:"content_type" db:"content_type"`
	Size        int64     `json:"size" db:"size"`
	Key         string    `json:"-" db:"storage_key"`
	RelatedType string    `json:"related_type,omitempty" db:"related_type"`
	RelatedID   string    `json:"related_id,omitempty" db:"related_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
