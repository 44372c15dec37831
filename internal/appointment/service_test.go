package appointment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tcmclinic/telemed/pkg/cache"
	"github.com/tcmclinic/telemed/pkg/database"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

type mockDoctorDirectory struct {
	mock.Mock
}

func (m *mockDoctorDirectory) GetDoctor(ctx context.Context, id string) (*types.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Doctor), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, req *types.CreateNotificationRequest) {
	m.Called(ctx, req)
}

func setupTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *mockDoctorDirectory, *mockNotifier) {
	mockDB, dbMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	log := logger.New("error")
	disabled, err := cache.New("", log)
	require.NoError(t, err)

	doctors := &mockDoctorDirectory{}
	notifier := &mockNotifier{}
	svc := NewService(log, NewRepository(database.NewWithDB(mockDB, log), log), disabled, doctors, notifier)
	return svc, dbMock, doctors, notifier
}

func testDoctor() *types.Doctor {
	return &types.Doctor{ID: "doc-1", UserID: "doc-user-1"}
}

func bookingRequest() *types.CreateAppointmentRequest {
	return &types.CreateAppointmentRequest{
		DoctorID:        "doc-1",
		AppointmentDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		TimeSlot:        "09:30",
		VisitType:       types.VisitOnlineVideo,
		Symptoms:        "persistent cough",
	}
}

func appointmentRow(apt *types.Appointment) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "patient_id", "doctor_id", "appointment_date", "time_slot",
		"visit_type", "symptoms", "has_visited_before", "status",
		"created_at", "updated_at",
	}).AddRow(
		apt.ID, apt.PatientID, apt.DoctorID, apt.AppointmentDate, apt.TimeSlot,
		apt.VisitType, apt.Symptoms, apt.HasVisitedBefore, apt.Status,
		time.Now(), time.Now(),
	)
}

func storedAppointment(status types.AppointmentStatus) *types.Appointment {
	return &types.Appointment{
		ID:              "apt-1",
		PatientID:       "patient-1",
		DoctorID:        "doc-1",
		AppointmentDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		TimeSlot:        "09:30",
		VisitType:       types.VisitOnlineVideo,
		Status:          status,
	}
}

func TestCreateAppointment(t *testing.T) {
	svc, dbMock, doctors, _ := setupTestService(t)

	doctors.On("GetDoctor", mock.Anything, "doc-1").Return(testDoctor(), nil)
	dbMock.ExpectExec("INSERT INTO appointments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	apt, err := svc.Create(context.Background(), "patient-1", bookingRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, apt.ID)
	assert.Equal(t, "patient-1", apt.PatientID)
	assert.Equal(t, types.AppointmentPending, apt.Status)
	require.NoError(t, dbMock.ExpectationsWereMet())
}

func TestCreateAcceptsMultibyteSymptoms(t *testing.T) {
	svc, dbMock, doctors, _ := setupTestService(t)

	doctors.On("GetDoctor", mock.Anything, "doc-1").Return(testDoctor(), nil)
	dbMock.ExpectExec("INSERT INTO appointments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := bookingRequest()
	req.Symptoms = strings.Repeat("咳嗽头痛", 10)

	_, err := svc.Create(context.Background(), "patient-1", req)
	require.NoError(t, err)
}

func TestCreateAppointmentSlotConflict(t *testing.T) {
	svc, dbMock, doctors, _ := setupTestService(t)

	doctors.On("GetDoctor", mock.Anything, "doc-1").Return(testDoctor(), nil)
	dbMock.ExpectExec("INSERT INTO appointments").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := svc.Create(context.Background(), "patient-1", bookingRequest())
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindConflict, types.AsAppError(err).Kind)
}

func TestCreateAppointmentValidation(t *testing.T) {
	svc, _, _, _ := setupTestService(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*types.CreateAppointmentRequest)
	}{
		{"missing doctor", func(r *types.CreateAppointmentRequest) { r.DoctorID = "" }},
		{"unknown slot", func(r *types.CreateAppointmentRequest) { r.TimeSlot = "12:00" }},
		{"unknown modality", func(r *types.CreateAppointmentRequest) { r.VisitType = "house_call" }},
		{"long symptoms", func(r *types.CreateAppointmentRequest) {
			r.Symptoms = strings.Repeat("咳", 101)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := bookingRequest()
			tc.mutate(req)
			_, err := svc.Create(ctx, "patient-1", req)
			require.Error(t, err)
			assert.Equal(t, types.ErrorKindValidation, types.AsAppError(err).Kind)
		})
	}
}

func TestCreateAppointmentUnknownDoctor(t *testing.T) {
	svc, _, doctors, _ := setupTestService(t)

	doctors.On("GetDoctor", mock.Anything, "doc-1").
		Return(nil, types.NewNotFoundError("doctor not found"))

	_, err := svc.Create(context.Background(), "patient-1", bookingRequest())
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindNotFound, types.AsAppError(err).Kind)
}

func TestConfirmByAssignedClinician(t *testing.T) {
	svc, dbMock, doctors, notifier := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM appointments WHERE id").
		WithArgs("apt-1").
		WillReturnRows(appointmentRow(storedAppointment(types.AppointmentPending)))
	doctors.On("GetDoctor", mock.Anything, "doc-1").Return(testDoctor(), nil)
	dbMock.ExpectExec("UPDATE appointments SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(req *types.CreateNotificationRequest) bool {
		return req.Type == types.NotifyAppointmentConfirmed && req.UserID == "patient-1"
	})).Return()

	principal := &types.Principal{UserID: "doc-user-1", Role: types.RoleDoctor}
	apt, err := svc.Confirm(context.Background(), principal, "apt-1")
	require.NoError(t, err)

	assert.Equal(t, types.AppointmentConfirmed, apt.Status)
	notifier.AssertExpectations(t)
}

func TestConfirmByPatientForbidden(t *testing.T) {
	svc, dbMock, doctors, _ := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM appointments WHERE id").
		WithArgs("apt-1").
		WillReturnRows(appointmentRow(storedAppointment(types.AppointmentPending)))
	doctors.On("GetDoctor", mock.Anything, "doc-1").Return(testDoctor(), nil)

	principal := &types.Principal{UserID: "patient-1", Role: types.RolePatient}
	_, err := svc.Confirm(context.Background(), principal, "apt-1")
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindForbidden, types.AsAppError(err).Kind)
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	svc, dbMock, doctors, _ := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM appointments WHERE id").
		WithArgs("apt-1").
		WillReturnRows(appointmentRow(storedAppointment(types.AppointmentPending)))
	doctors.On("GetDoctor", mock.Anything, "doc-1").Return(testDoctor(), nil)

	principal := &types.Principal{UserID: "doc-user-1", Role: types.RoleDoctor}
	_, err := svc.Complete(context.Background(), principal, "apt-1")
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindConflict, types.AsAppError(err).Kind)
}

func TestConfirmAfterCancelConflicts(t *testing.T) {
	svc, dbMock, doctors, _ := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM appointments WHERE id").
		WithArgs("apt-1").
		WillReturnRows(appointmentRow(storedAppointment(types.AppointmentCancelled)))
	doctors.On("GetDoctor", mock.Anything, "doc-1").Return(testDoctor(), nil)

	principal := &types.Principal{UserID: "doc-user-1", Role: types.RoleDoctor}
	_, err := svc.Confirm(context.Background(), principal, "apt-1")
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindConflict, types.AsAppError(err).Kind)
}

func TestConfirmLosesStatusRace(t *testing.T) {
	svc, dbMock, doctors, _ := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM appointments WHERE id").
		WithArgs("apt-1").
		WillReturnRows(appointmentRow(storedAppointment(types.AppointmentPending)))
	doctors.On("GetDoctor", mock.Anything, "doc-1").Return(testDoctor(), nil)
	dbMock.ExpectExec("UPDATE appointments SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	principal := &types.Principal{UserID: "doc-user-1", Role: types.RoleDoctor}
	_, err := svc.Confirm(context.Background(), principal, "apt-1")
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindConflict, types.AsAppError(err).Kind)
}

func TestCancelByOwner(t *testing.T) {
	svc, dbMock, _, notifier := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM appointments WHERE id").
		WithArgs("apt-1").
		WillReturnRows(appointmentRow(storedAppointment(types.AppointmentConfirmed)))
	dbMock.ExpectExec("UPDATE appointments SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	notifier.On("Notify", mock.Anything, mock.Anything).Return()

	principal := &types.Principal{UserID: "patient-1", Role: types.RolePatient}
	apt, err := svc.Cancel(context.Background(), principal, "apt-1")
	require.NoError(t, err)
	assert.Equal(t, types.AppointmentCancelled, apt.Status)
}

func TestCancelByStrangerForbidden(t *testing.T) {
	svc, dbMock, _, _ := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM appointments WHERE id").
		WithArgs("apt-1").
		WillReturnRows(appointmentRow(storedAppointment(types.AppointmentPending)))

	principal := &types.Principal{UserID: "patient-2", Role: types.RolePatient}
	_, err := svc.Cancel(context.Background(), principal, "apt-1")
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindForbidden, types.AsAppError(err).Kind)
}

func TestTerminalStatesAreFinal(t *testing.T) {
	svc, dbMock, _, _ := setupTestService(t)

	for _, status := range []types.AppointmentStatus{types.AppointmentCompleted, types.AppointmentCancelled} {
		dbMock.ExpectQuery("SELECT .+ FROM appointments WHERE id").
			WithArgs("apt-1").
			WillReturnRows(appointmentRow(storedAppointment(status)))

		principal := &types.Principal{UserID: "admin-1", Role: types.RoleAdmin}
		_, err := svc.Cancel(context.Background(), principal, "apt-1")
		require.Error(t, err)
		assert.Equal(t, types.ErrorKindConflict, types.AsAppError(err).Kind)
	}
}

func TestAvailableSlots(t *testing.T) {
	svc, dbMock, _, _ := setupTestService(t)

	dbMock.ExpectQuery("SELECT time_slot FROM appointments").
		WillReturnRows(sqlmock.NewRows([]string{"time_slot"}).
			AddRow("09:00").AddRow("10:30"))

	slots, err := svc.AvailableSlots(context.Background(), "doc-1", time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Len(t, slots, 10)
	assert.NotContains(t, slots, "09:00")
	assert.NotContains(t, slots, "10:30")
}

func TestRescheduleOnlyPending(t *testing.T) {
	svc, dbMock, _, _ := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM appointments WHERE id").
		WithArgs("apt-1").
		WillReturnRows(appointmentRow(storedAppointment(types.AppointmentConfirmed)))

	newSlot := "10:00"
	principal := &types.Principal{UserID: "patient-1", Role: types.RolePatient}
	_, err := svc.Reschedule(context.Background(), principal, "apt-1", &types.AppointmentUpdates{TimeSlot: &newSlot})
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindConflict, types.AsAppError(err).Kind)
}

func TestRescheduleRebooksSlot(t *testing.T) {
	svc, dbMock, _, _ := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM appointments WHERE id").
		WithArgs("apt-1").
		WillReturnRows(appointmentRow(storedAppointment(types.AppointmentPending)))
	dbMock.ExpectExec("UPDATE appointments SET appointment_date").
		WillReturnError(&pq.Error{Code: "23505"})

	newSlot := "10:00"
	principal := &types.Principal{UserID: "patient-1", Role: types.RolePatient}
	_, err := svc.Reschedule(context.Background(), principal, "apt-1", &types.AppointmentUpdates{TimeSlot: &newSlot})
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindConflict, types.AsAppError(err).Kind)
}

func TestListByPatientOwnershipEnforced(t *testing.T) {
	svc, _, _, _ := setupTestService(t)

	principal := &types.Principal{UserID: "patient-2", Role: types.RolePatient}
	_, _, err := svc.ListByPatient(context.Background(), principal, "patient-1", &types.AppointmentFilters{}, 20, 0)
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindForbidden, types.AsAppError(err).Kind)
}
