package prescription

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

const codeRetries = 3

// DoctorDirectory resolves clinician profiles for issuer checks.
type DoctorDirectory interface {
	GetDoctor(ctx context.Context, id string) (*types.Doctor, error)
	GetByUserID(ctx context.Context, userID string) (*types.Doctor, error)
}

// Notifier delivers durable notifications with a best-effort live push.
type Notifier interface {
	Notify(ctx context.Context, req *types.CreateNotificationRequest)
}

// Service implements prescription issuance and reads.
type Service struct {
	logger   *logger.Logger
	repo     *Repository
	doctors  DoctorDirectory
	notifier Notifier
}

// NewService creates a new prescription service instance
func NewService(log *logger.Logger, repo *Repository, doctors DoctorDirectory, notifier Notifier) *Service {
	return &Service{
		logger:   log,
		repo:     repo,
		doctors:  doctors,
		notifier: notifier,
	}
}

// Issue creates a prescription from the clinician identified by the
// principal. The random code suffix retries on the rare collision.
func (s *Service) Issue(ctx context.Context, principal *types.Principal, req *types.CreatePrescriptionRequest) (*types.Prescription, error) {
	if req.PatientID == "" {
		return nil, types.NewValidationError("patient_id is required")
	}
	if req.Diagnosis == "" {
		return nil, types.NewValidationError("diagnosis is required")
	}
	if len(req.Medicines) == 0 {
		return nil, types.NewValidationError("at least one medicine is required")
	}

	doctor, err := s.doctors.GetByUserID(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	p := &types.Prescription{
		ID:               uuid.New().String(),
		DoctorID:         doctor.ID,
		PatientID:        req.PatientID,
		PatientName:      req.PatientName,
		Diagnosis:        req.Diagnosis,
		Medicines:        req.Medicines,
		Instructions:     req.Instructions,
		PrescriptionDate: now,
		CreatedAt:        now,
	}

	for attempt := 0; attempt < codeRetries; attempt++ {
		code, err := GenerateCode(now)
		if err != nil {
			return nil, err
		}
		p.Code = code

		err = s.repo.Create(ctx, p)
		if err == nil {
			s.notifyIssued(ctx, p)
			return p, nil
		}
		if types.AsAppError(err).Kind != types.ErrorKindConflict {
			return nil, err
		}
	}
	return nil, types.NewInternalError("failed to allocate prescription code", nil)
}

// Get returns a prescription visible to the principal: recipient, issuing
// clinician, or admin.
func (s *Service) Get(ctx context.Context, principal *types.Principal, id string) (*types.Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, principal, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByCode returns a prescription by pickup code, with the same
// visibility rules as Get.
func (s *Service) GetByCode(ctx context.Context, principal *types.Principal, code string) (*types.Prescription, error) {
	p, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, principal, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns prescriptions visible to the principal. Patients see their
// own; clinicians see what they issued; admins see everything.
func (s *Service) List(ctx context.Context, principal *types.Principal, filters *types.PrescriptionFilters, limit, offset int) ([]*types.Prescription, int, error) {
	switch principal.Role {
	case types.RoleAdmin:
	case types.RolePatient:
		filters.PatientID = principal.UserID
	case types.RoleDoctor:
		doctor, err := s.doctors.GetByUserID(ctx, principal.UserID)
		if err != nil {
			return nil, 0, err
		}
		filters.DoctorID = doctor.ID
	default:
		return nil, 0, types.NewForbiddenError("insufficient permissions")
	}
	return s.repo.List(ctx, filters, limit, offset)
}

func (s *Service) authorizeView(ctx context.Context, principal *types.Principal, p *types.Prescription) error {
	if principal.Role == types.RoleAdmin || p.PatientID == principal.UserID {
		return nil
	}
	if principal.Role == types.RoleDoctor {
		doctor, err := s.doctors.GetByUserID(ctx, principal.UserID)
		if err == nil && doctor.ID == p.DoctorID {
			return nil
		}
	}
	return types.NewForbiddenError("not your prescription")
}

func (s *Service) notifyIssued(ctx context.Context, p *types.Prescription) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, &types.CreateNotificationRequest{
		UserID:    p.PatientID,
		Type:      types.NotifyPrescriptionReady,
		Title:     "Prescription ready",
		Content:   "Your prescription " + p.Code + " is ready for pickup.",
		RelatedID: p.ID,
	})
}
