package department

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// API is the department surface the rest of the system consumes. The
// caching layer wraps it without the callers noticing.
type API interface {
	Create(ctx context.Context, req *types.CreateDepartmentRequest) (*types.Department, error)
	Get(ctx context.Context, id string) (*types.Department, error)
	GetByCode(ctx context.Context, code string) (*types.Department, error)
	Update(ctx context.Context, id string, updates *types.DepartmentUpdates) (*types.Department, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page, perPage int) ([]*types.Department, int, error)
}

// Service implements department management against storage.
type Service struct {
	logger *logger.Logger
	repo   *Repository
}

// NewService creates a new department service instance
func NewService(log *logger.Logger, repo *Repository) *Service {
	return &Service{
		logger: log,
		repo:   repo,
	}
}

// Create registers a new department.
func (s *Service) Create(ctx context.Context, req *types.CreateDepartmentRequest) (*types.Department, error) {
	if req.Code == "" {
		return nil, types.NewValidationError("code is required")
	}
	if req.Name == "" {
		return nil, types.NewValidationError("name is required")
	}

	now := time.Now()
	dep := &types.Department{
		ID:          uuid.New().String(),
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, dep); err != nil {
		return nil, err
	}

	s.logger.WithField("department_code", dep.Code).Info("Department created")
	return dep, nil
}

// Get returns a department by ID.
func (s *Service) Get(ctx context.Context, id string) (*types.Department, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByCode returns a department by its unique code.
func (s *Service) GetByCode(ctx context.Context, code string) (*types.Department, error) {
	return s.repo.GetByCode(ctx, code)
}

// Update applies changes to a department.
func (s *Service) Update(ctx context.Context, id string, updates *types.DepartmentUpdates) (*types.Department, error) {
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes a department.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// List returns a page of departments.
func (s *Service) List(ctx context.Context, page, perPage int) ([]*types.Department, int, error) {
	return s.repo.List(ctx, perPage, (page-1)*perPage)
}
