package doctor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tcmclinic/telemed/pkg/cache"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Service implements clinician profile management. Profiles are read on
// every booking, so single reads go through the cache.
type Service struct {
	logger *logger.Logger
	repo   *Repository
	cache  *cache.Cache
}

// NewService creates a new doctor service instance
func NewService(log *logger.Logger, repo *Repository, c *cache.Cache) *Service {
	return &Service{
		logger: log,
		repo:   repo,
		cache:  c,
	}
}

// Create registers a clinician profile for a doctor-role user.
func (s *Service) Create(ctx context.Context, req *types.CreateDoctorRequest) (*types.Doctor, error) {
	if req.UserID == "" {
		return nil, types.NewValidationError("user_id is required")
	}
	if req.Department == "" {
		return nil, types.NewValidationError("department is required")
	}

	now := time.Now()
	doc := &types.Doctor{
		ID:           uuid.New().String(),
		UserID:       req.UserID,
		Hospital:     req.Hospital,
		Department:   req.Department,
		Title:        req.Title,
		Specialties:  req.Specialties,
		Introduction: req.Introduction,
		Experience:   req.Experience,
		Photos:       []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if doc.Specialties == nil {
		doc.Specialties = []string{}
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDoctor returns a profile by ID, cache first.
func (s *Service) GetDoctor(ctx context.Context, id string) (*types.Doctor, error) {
	var cached types.Doctor
	if s.cache.Get(ctx, cache.Keys.Doctor(id), &cached) {
		return &cached, nil
	}

	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cache.Keys.Doctor(id), doc, cache.Medium); err != nil {
		s.logger.WithError(err).Warn("Failed to cache doctor profile")
	}
	return doc, nil
}

// GetByUserID returns the profile owned by the given user.
func (s *Service) GetByUserID(ctx context.Context, userID string) (*types.Doctor, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// Update applies profile changes. Admin, or the owning clinician.
func (s *Service) Update(ctx context.Context, principal *types.Principal, id string, updates *types.DoctorUpdates) (*types.Doctor, error) {
	if err := s.authorizeWrite(ctx, principal, id); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return s.repo.GetByID(ctx, id)
}

// UpdatePhotos replaces the profile photo list. Admin, or the owning
// clinician.
func (s *Service) UpdatePhotos(ctx context.Context, principal *types.Principal, id string, photos []string) (*types.Doctor, error) {
	if err := s.authorizeWrite(ctx, principal, id); err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []string{}
	}

	if err := s.repo.UpdatePhotos(ctx, id, photos); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return s.repo.GetByID(ctx, id)
}

// Delete removes a profile. Admin only at the handler layer.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// List returns profiles, optionally filtered by department.
func (s *Service) List(ctx context.Context, filters *types.DoctorFilters, limit, offset int) ([]*types.Doctor, int, error) {
	return s.repo.List(ctx, filters, limit, offset)
}

func (s *Service) authorizeWrite(ctx context.Context, principal *types.Principal, id string) error {
	if principal.Role == types.RoleAdmin {
		return nil
	}
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if doc.UserID != principal.UserID {
		return types.NewForbiddenError("not your profile")
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, cache.Keys.Doctor(id)); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate doctor cache")
	}
}
