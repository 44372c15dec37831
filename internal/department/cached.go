package department

import (
	"context"

	"github.com/tcmclinic/telemed/pkg/cache"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// cachedList is the memoized shape of one listing page.
type cachedList struct {
	Departments []*types.Department `json:"departments"`
	Total       int                 `json:"total"`
}

// CachedService decorates the department API with read-through caching.
// Departments change rarely and are read on every booking screen, so list
// pages and single reads get long TTLs and every write flushes the lot.
type CachedService struct {
	inner  API
	cache  *cache.Cache
	logger *logger.Logger
}

// NewCachedService wraps an API with caching.
func NewCachedService(inner API, c *cache.Cache, log *logger.Logger) *CachedService {
	return &CachedService{
		inner:  inner,
		cache:  c,
		logger: log,
	}
}

// Create passes through and flushes cached pages.
func (s *CachedService) Create(ctx context.Context, req *types.CreateDepartmentRequest) (*types.Department, error) {
	dep, err := s.inner.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.flush(ctx)
	return dep, nil
}

// Get reads through the per-department cache entry.
func (s *CachedService) Get(ctx context.Context, id string) (*types.Department, error) {
	var cached types.Department
	if s.cache.Get(ctx, cache.Keys.Department(id), &cached) {
		return &cached, nil
	}

	dep, err := s.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, cache.Keys.Department(id), dep, cache.Long); err != nil {
		s.logger.WithError(err).Warn("Failed to cache department")
	}
	return dep, nil
}

// GetByCode passes through uncached; code lookups are rare.
func (s *CachedService) GetByCode(ctx context.Context, code string) (*types.Department, error) {
	return s.inner.GetByCode(ctx, code)
}

// Update passes through and flushes cached pages and the entry.
func (s *CachedService) Update(ctx context.Context, id string, updates *types.DepartmentUpdates) (*types.Department, error) {
	dep, err := s.inner.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	s.flushEntry(ctx, id)
	s.flush(ctx)
	return dep, nil
}

// Delete passes through and flushes cached pages and the entry.
func (s *CachedService) Delete(ctx context.Context, id string) error {
	if err := s.inner.Delete(ctx, id); err != nil {
		return err
	}
	s.flushEntry(ctx, id)
	s.flush(ctx)
	return nil
}

// List reads through the per-page cache entry.
func (s *CachedService) List(ctx context.Context, page, perPage int) ([]*types.Department, int, error) {
	key := cache.Keys.DepartmentList(page, perPage)

	var cached cachedList
	if s.cache.Get(ctx, key, &cached) {
		return cached.Departments, cached.Total, nil
	}

	departments, total, err := s.inner.List(ctx, page, perPage)
	if err != nil {
		return nil, 0, err
	}

	if err := s.cache.Set(ctx, key, &cachedList{Departments: departments, Total: total}, cache.Long); err != nil {
		s.logger.WithError(err).Warn("Failed to cache department list")
	}
	return departments, total, nil
}

func (s *CachedService) flush(ctx context.Context) {
	if _, err := s.cache.DeleteByPattern(ctx, cache.Keys.DepartmentListPattern()); err != nil {
		s.logger.WithError(err).Warn("Failed to flush department list cache")
	}
}

func (s *CachedService) flushEntry(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, cache.Keys.Department(id)); err != nil {
		s.logger.WithError(err).Warn("Failed to flush department cache entry")
	}
}
