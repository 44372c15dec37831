package appointment

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tcmclinic/telemed/pkg/cache"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

const maxSymptomsLength = 100

// DoctorDirectory resolves clinician profiles for validation and
// assignment checks.
type DoctorDirectory interface {
	GetDoctor(ctx context.Context, id string) (*types.Doctor, error)
}

// Notifier delivers durable notifications with a best-effort live push.
type Notifier interface {
	Notify(ctx context.Context, req *types.CreateNotificationRequest)
}

// Service implements the appointment booking core.
type Service struct {
	logger   *logger.Logger
	repo     *Repository
	cache    *cache.Cache
	doctors  DoctorDirectory
	notifier Notifier
}

// NewService creates a new appointment service instance
func NewService(log *logger.Logger, repo *Repository, c *cache.Cache, doctors DoctorDirectory, notifier Notifier) *Service {
	return &Service{
		logger:   log,
		repo:     repo,
		cache:    c,
		doctors:  doctors,
		notifier: notifier,
	}
}

// Create books a slot for the patient. The storage layer's partial unique
// index arbitrates concurrent bookings of the same slot key.
func (s *Service) Create(ctx context.Context, patientID string, req *types.CreateAppointmentRequest) (*types.Appointment, error) {
	if err := s.validateBooking(req); err != nil {
		return nil, err
	}

	doctor, err := s.doctors.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	apt := &types.Appointment{
		ID:               uuid.New().String(),
		PatientID:        patientID,
		DoctorID:         doctor.ID,
		AppointmentDate:  req.AppointmentDate,
		TimeSlot:         req.TimeSlot,
		VisitType:        req.VisitType,
		Symptoms:         req.Symptoms,
		HasVisitedBefore: req.HasVisitedBefore,
		Status:           types.AppointmentPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, err
	}

	s.invalidateSlots(ctx, apt.DoctorID, apt.AppointmentDate)
	return apt, nil
}

// Get returns an appointment visible to the principal.
func (s *Service) Get(ctx context.Context, principal *types.Principal, id string) (*types.Appointment, error) {
	apt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, principal, apt); err != nil {
		return nil, err
	}
	return apt, nil
}

// Confirm moves a pending appointment to confirmed. Assigned clinician or
// admin only.
func (s *Service) Confirm(ctx context.Context, principal *types.Principal, id string) (*types.Appointment, error) {
	return s.transition(ctx, principal, id, types.AppointmentConfirmed)
}

// Complete moves a confirmed appointment to completed. Assigned clinician
// or admin only. The slot stays consumed.
func (s *Service) Complete(ctx context.Context, principal *types.Principal, id string) (*types.Appointment, error) {
	return s.transition(ctx, principal, id, types.AppointmentCompleted)
}

// Cancel moves a pending or confirmed appointment to cancelled, releasing
// its slot. Owning patient or admin only.
func (s *Service) Cancel(ctx context.Context, principal *types.Principal, id string) (*types.Appointment, error) {
	return s.transition(ctx, principal, id, types.AppointmentCancelled)
}

// Reschedule moves a pending appointment to a new slot key, re-running the
// booking protocol against it.
func (s *Service) Reschedule(ctx context.Context, principal *types.Principal, id string, updates *types.AppointmentUpdates) (*types.Appointment, error) {
	apt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if principal.Role != types.RoleAdmin && apt.PatientID != principal.UserID {
		return nil, types.NewForbiddenError("not your appointment")
	}
	if apt.Status != types.AppointmentPending {
		return nil, types.NewConflictError("only pending appointments can be rescheduled")
	}

	newDate := apt.AppointmentDate
	if updates.AppointmentDate != nil {
		newDate = *updates.AppointmentDate
	}
	newSlot := apt.TimeSlot
	if updates.TimeSlot != nil {
		newSlot = *updates.TimeSlot
	}
	if !ValidSlot(newSlot) {
		return nil, types.NewValidationError("unknown time slot")
	}

	if err := s.repo.Reschedule(ctx, id, newDate, newSlot); err != nil {
		return nil, err
	}

	s.invalidateSlots(ctx, apt.DoctorID, apt.AppointmentDate)
	s.invalidateSlots(ctx, apt.DoctorID, newDate)

	apt.AppointmentDate = newDate
	apt.TimeSlot = newSlot
	return apt, nil
}

// AvailableSlots derives the free slot labels for a clinician on a date,
// memoized in the cache.
func (s *Service) AvailableSlots(ctx context.Context, doctorID string, date time.Time) ([]string, error) {
	key := cache.Keys.AppointmentSlots(doctorID, date.Format("2006-01-02"))

	var cached []string
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	occupied, err := s.repo.OccupiedSlots(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	free := availableSlots(occupied)

	if err := s.cache.Set(ctx, key, free, cache.Short); err != nil {
		s.logger.WithError(err).Warn("Failed to cache slot availability")
	}
	return free, nil
}

// List returns appointments matching the filters. Admin only at the
// handler layer.
func (s *Service) List(ctx context.Context, filters *types.AppointmentFilters, limit, offset int) ([]*types.Appointment, int, error) {
	return s.repo.List(ctx, filters, limit, offset)
}

// ListByPatient returns a patient's appointment history, newest first.
func (s *Service) ListByPatient(ctx context.Context, principal *types.Principal, patientID string, filters *types.AppointmentFilters, limit, offset int) ([]*types.Appointment, int, error) {
	if principal.Role != types.RoleAdmin && principal.UserID != patientID {
		return nil, 0, types.NewForbiddenError("not your appointment history")
	}
	filters.PatientID = patientID
	filters.Descending = true
	return s.repo.List(ctx, filters, limit, offset)
}

// ListByDoctor returns a clinician's schedule in date order.
func (s *Service) ListByDoctor(ctx context.Context, principal *types.Principal, doctorID string, filters *types.AppointmentFilters, limit, offset int) ([]*types.Appointment, int, error) {
	if principal.Role != types.RoleAdmin {
		doctor, err := s.doctors.GetDoctor(ctx, doctorID)
		if err != nil {
			return nil, 0, err
		}
		if doctor.UserID != principal.UserID {
			return nil, 0, types.NewForbiddenError("not your schedule")
		}
	}
	filters.DoctorID = doctorID
	return s.repo.List(ctx, filters, limit, offset)
}

var transitions = map[types.AppointmentStatus]types.AppointmentStatus{
	types.AppointmentConfirmed: types.AppointmentPending,
	types.AppointmentCompleted: types.AppointmentConfirmed,
}

func (s *Service) transition(ctx context.Context, principal *types.Principal, id string, to types.AppointmentStatus) (*types.Appointment, error) {
	apt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeTransition(ctx, principal, apt, to); err != nil {
		return nil, err
	}

	from := apt.Status
	if to == types.AppointmentCancelled {
		if !from.Occupying() {
			return nil, types.NewConflictError(fmt.Sprintf("cannot cancel a %s appointment", from))
		}
	} else if transitions[to] != from {
		return nil, types.NewConflictError(fmt.Sprintf("cannot move a %s appointment to %s", from, to))
	}

	if err := s.repo.UpdateStatus(ctx, id, from, to); err != nil {
		return nil, err
	}

	if to == types.AppointmentCancelled {
		s.invalidateSlots(ctx, apt.DoctorID, apt.AppointmentDate)
	}

	apt.Status = to
	apt.UpdatedAt = time.Now()
	s.notifyTransition(ctx, apt, to)
	return apt, nil
}

func (s *Service) authorizeTransition(ctx context.Context, principal *types.Principal, apt *types.Appointment, to types.AppointmentStatus) error {
	if principal.Role == types.RoleAdmin {
		return nil
	}
	if to == types.AppointmentCancelled {
		if apt.PatientID != principal.UserID {
			return types.NewForbiddenError("only the owning patient may cancel")
		}
		return nil
	}
	doctor, err := s.doctors.GetDoctor(ctx, apt.DoctorID)
	if err != nil {
		return err
	}
	if doctor.UserID != principal.UserID {
		return types.NewForbiddenError("only the assigned clinician may do this")
	}
	return nil
}

func (s *Service) authorizeView(ctx context.Context, principal *types.Principal, apt *types.Appointment) error {
	if principal.Role == types.RoleAdmin || apt.PatientID == principal.UserID {
		return nil
	}
	if principal.Role == types.RoleDoctor {
		doctor, err := s.doctors.GetDoctor(ctx, apt.DoctorID)
		if err == nil && doctor.UserID == principal.UserID {
			return nil
		}
	}
	return types.NewForbiddenError("not your appointment")
}

func (s *Service) notifyTransition(ctx context.Context, apt *types.Appointment, to types.AppointmentStatus) {
	if s.notifier == nil {
		return
	}
	date := apt.AppointmentDate.Format("2006-01-02")
	switch to {
	case types.AppointmentConfirmed:
		s.notifier.Notify(ctx, &types.CreateNotificationRequest{
			UserID:    apt.PatientID,
			Type:      types.NotifyAppointmentConfirmed,
			Title:     "Appointment confirmed",
			Content:   fmt.Sprintf("Your appointment on %s at %s has been confirmed.", date, apt.TimeSlot),
			RelatedID: apt.ID,
		})
	case types.AppointmentCancelled:
		s.notifier.Notify(ctx, &types.CreateNotificationRequest{
			UserID:    apt.PatientID,
			Type:      types.NotifyAppointmentCancelled,
			Title:     "Appointment cancelled",
			Content:   fmt.Sprintf("Your appointment on %s at %s has been cancelled.", date, apt.TimeSlot),
			RelatedID: apt.ID,
		})
	}
}

func (s *Service) validateBooking(req *types.CreateAppointmentRequest) error {
	if req.DoctorID == "" {
		return types.NewValidationError("doctor_id is required")
	}
	if req.AppointmentDate.IsZero() {
		return types.NewValidationError("appointment_date is required")
	}
	if !ValidSlot(req.TimeSlot) {
		return types.NewValidationError("unknown time slot")
	}
	if !req.VisitType.Valid() {
		return types.NewValidationError("unknown visit type")
	}
	if utf8.RuneCountInString(req.Symptoms) > maxSymptomsLength {
		return types.NewValidationError("symptoms must be at most 100 characters")
	}
	return nil
}

func (s *Service) invalidateSlots(ctx context.Context, doctorID string, date time.Time) {
	key := cache.Keys.AppointmentSlots(doctorID, date.Format("2006-01-02"))
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate slot availability")
	}
}
