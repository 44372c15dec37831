package upload

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmclinic/telemed/pkg/config"
	"github.com/tcmclinic/telemed/pkg/database"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/objstore"
	"github.com/tcmclinic/telemed/pkg/types"
)

func setupTestService(t *testing.T) (*Service, sqlmock.Sqlmock, objstore.Store) {
	mockDB, dbMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	log := logger.New("error")
	store, err := objstore.New(&config.StorageConfig{UploadDir: t.TempDir()}, log)
	require.NoError(t, err)

	svc := NewService(log, NewRepository(database.NewWithDB(mockDB, log), log), store)
	return svc, dbMock, store
}

func uploadRow(f *types.FileUpload) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "uploader_id", "file_name", "content_type", "size",
		"storage_key", "related_type", "related_id", "created_at",
	}).AddRow(f.ID, f.UploaderID, f.FileName, f.ContentType, f.Size,
		f.Key, f.RelatedType, f.RelatedID, f.CreatedAt)
}

func TestUploadRoundTrip(t *testing.T) {
	svc, dbMock, _ := setupTestService(t)

	dbMock.ExpectExec("INSERT INTO file_uploads").
		WillReturnResult(sqlmock.NewResult(0, 1))

	content := "tongue photo bytes"
	file, err := svc.Upload(context.Background(), "patient-1", "tongue.jpg", "image/jpeg",
		int64(len(content)), strings.NewReader(content), "appointment", "apt-1")

	require.NoError(t, err)
	assert.Equal(t, "patient-1", file.UploaderID)
	assert.True(t, strings.HasPrefix(file.Key, "uploads/"))
	assert.True(t, strings.HasSuffix(file.Key, ".jpg"))
	assert.NoError(t, dbMock.ExpectationsWereMet())

	dbMock.ExpectQuery("SELECT .+ FROM file_uploads WHERE id").
		WillReturnRows(uploadRow(file))

	meta, body, err := svc.Download(context.Background(),
		&types.Principal{UserID: "patient-1", Role: types.RolePatient}, file.ID)
	require.NoError(t, err)
	defer body.Close()

	assert.Equal(t, int64(len(content)), meta.Size)
	got, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestUploadValidation(t *testing.T) {
	svc, _, _ := setupTestService(t)

	tests := []struct {
		name     string
		fileName string
		size     int64
	}{
		{"missing name", "", 10},
		{"empty file", "a.png", 0},
		{"oversized file", "a.png", MaxUploadSize + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), "patient-1", tt.fileName,
				"image/png", tt.size, strings.NewReader("x"), "", "")
			require.Error(t, err)
			assert.Equal(t, types.ErrorKindValidation, types.AsAppError(err).Kind)
		})
	}
}

func TestDownloadByStrangerForbidden(t *testing.T) {
	svc, dbMock, _ := setupTestService(t)

	stored := &types.FileUpload{
		ID: "file-1", UploaderID: "patient-1", FileName: "scan.pdf",
		ContentType: "application/pdf", Size: 4, Key: "uploads/file-1.pdf",
	}
	dbMock.ExpectQuery("SELECT .+ FROM file_uploads WHERE id").
		WillReturnRows(uploadRow(stored))

	_, _, err := svc.Download(context.Background(),
		&types.Principal{UserID: "patient-2", Role: types.RolePatient}, "file-1")

	require.Error(t, err)
	assert.Equal(t, types.ErrorKindForbidden, types.AsAppError(err).Kind)
}

func TestDeleteRemovesRowAndBlob(t *testing.T) {
	svc, dbMock, store := setupTestService(t)

	key := "uploads/file-1.pdf"
	require.NoError(t, store.Put(context.Background(), key, "application/pdf", strings.NewReader("pdf!")))

	stored := &types.FileUpload{
		ID: "file-1", UploaderID: "patient-1", FileName: "scan.pdf",
		ContentType: "application/pdf", Size: 4, Key: key,
	}
	dbMock.ExpectQuery("SELECT .+ FROM file_uploads WHERE id").
		WillReturnRows(uploadRow(stored))
	dbMock.ExpectExec("DELETE FROM file_uploads WHERE id").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.Delete(context.Background(),
		&types.Principal{UserID: "patient-1", Role: types.RolePatient}, "file-1")

	require.NoError(t, err)
	_, err = store.Get(context.Background(), key)
	assert.Error(t, err)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestDownloadUnknownFile(t *testing.T) {
	svc, dbMock, _ := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM file_uploads WHERE id").
		WillReturnError(sql.ErrNoRows)

	_, _, err := svc.Download(context.Background(),
		&types.Principal{UserID: "patient-1", Role: types.RolePatient}, "missing")

	require.Error(t, err)
	assert.Equal(t, types.ErrorKindNotFound, types.AsAppError(err).Kind)
}
