package doctor

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmclinic/telemed/pkg/cache"
	"github.com/tcmclinic/telemed/pkg/database"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

func setupTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	log := logger.New("error")
	disabled, err := cache.New("", log)
	require.NoError(t, err)

	return NewService(log, NewRepository(database.NewWithDB(mockDB, log), log), disabled), mock
}

func doctorRow(doc *types.Doctor) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "hospital", "department", "title", "specialties",
		"introduction", "experience", "photos", "created_at", "updated_at",
	}).AddRow(
		doc.ID, doc.UserID, doc.Hospital, doc.Department, doc.Title,
		[]byte(`["acupuncture"]`), doc.Introduction, doc.Experience,
		[]byte(`[]`), time.Now(), time.Now(),
	)
}

func TestCreateDoctorValidation(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &types.CreateDoctorRequest{Department: "internal"})
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindValidation, types.AsAppError(err).Kind)

	_, err = svc.Create(ctx, &types.CreateDoctorRequest{UserID: "u1"})
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindValidation, types.AsAppError(err).Kind)
}

func TestCreateDoctor(t *testing.T) {
	svc, mock := setupTestService(t)

	mock.ExpectExec("INSERT INTO doctors").
		WillReturnResult(sqlmock.NewResult(0, 1))

	doc, err := svc.Create(context.Background(), &types.CreateDoctorRequest{
		UserID:     "doc-user-1",
		Hospital:   "City TCM Hospital",
		Department: "acupuncture",
		Title:      "Chief Physician",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.NotNil(t, doc.Specialties)
	assert.NotNil(t, doc.Photos)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDoctor(t *testing.T) {
	svc, mock := setupTestService(t)

	mock.ExpectQuery("SELECT .+ FROM doctors WHERE id").
		WithArgs("doc-1").
		WillReturnRows(doctorRow(&types.Doctor{ID: "doc-1", UserID: "doc-user-1", Department: "acupuncture"}))

	doc, err := svc.GetDoctor(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, []string{"acupuncture"}, doc.Specialties)
}

func TestUpdateByNonOwnerForbidden(t *testing.T) {
	svc, mock := setupTestService(t)

	mock.ExpectQuery("SELECT .+ FROM doctors WHERE id").
		WithArgs("doc-1").
		WillReturnRows(doctorRow(&types.Doctor{ID: "doc-1", UserID: "doc-user-1"}))

	title := "Associate Physician"
	principal := &types.Principal{UserID: "doc-user-2", Role: types.RoleDoctor}
	_, err := svc.Update(context.Background(), principal, "doc-1", &types.DoctorUpdates{Title: &title})
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindForbidden, types.AsAppError(err).Kind)
}
