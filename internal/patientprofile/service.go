package patientprofile

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

var phonePattern = regexp.MustCompile(`^\d{11}$`)

// Service implements contact card management. Cards are strictly owned:
// only the owning user ever sees them.
type Service struct {
	logger *logger.Logger
	repo   *Repository
}

// NewService creates a new patient profile service instance
func NewService(log *logger.Logger, repo *Repository) *Service {
	return &Service{
		logger: log,
		repo:   repo,
	}
}

// Create adds a contact card for the caller. Setting it default clears
// any previous default.
func (s *Service) Create(ctx context.Context, userID string, req *types.CreatePatientProfileRequest) (*types.PatientProfile, error) {
	if req.Name == "" {
		return nil, types.NewValidationError("name is required")
	}
	if !ValidIDNumber(req.IDNumber) {
		return nil, types.NewValidationError("invalid id number")
	}
	if req.Phone != "" && !phonePattern.MatchString(req.Phone) {
		return nil, types.NewValidationError("phone must be 11 digits")
	}

	if req.IsDefault {
		if err := s.repo.ClearDefault(ctx, userID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	p := &types.PatientProfile{
		ID:           uuid.New().String(),
		UserID:       userID,
		Name:         req.Name,
		IDNumber:     req.IDNumber,
		Phone:        req.Phone,
		Gender:       req.Gender,
		Birthday:     req.Birthday,
		Relationship: req.Relationship,
		IsDefault:    req.IsDefault,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns the caller's contact cards.
func (s *Service) List(ctx context.Context, userID string) ([]*types.PatientProfile, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns one of the caller's contact cards.
func (s *Service) Get(ctx context.Context, userID, id string) (*types.PatientProfile, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, types.NewForbiddenError("not your profile")
	}
	return p, nil
}

// Update applies changes to one of the caller's cards.
func (s *Service) Update(ctx context.Context, userID, id string, updates *types.PatientProfileUpdates) (*types.PatientProfile, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if updates.Phone != nil && *updates.Phone != "" && !phonePattern.MatchString(*updates.Phone) {
		return nil, types.NewValidationError("phone must be 11 digits")
	}

	if updates.IsDefault != nil && *updates.IsDefault {
		if err := s.repo.ClearDefault(ctx, userID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes one of the caller's cards.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
