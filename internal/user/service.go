package user

import (
	"context"

	"github.com/tcmclinic/telemed/internal/identity"
	"github.com/tcmclinic/telemed/pkg/cache"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Service implements user administration and self-service profile reads.
type Service struct {
	logger *logger.Logger
	users  *identity.UserRepository
	cache  *cache.Cache
}

// NewService creates a new user service instance
func NewService(log *logger.Logger, users *identity.UserRepository, c *cache.Cache) *Service {
	return &Service{
		logger: log,
		users:  users,
		cache:  c,
	}
}

// Get returns a user visible to the principal. Patients see only
// themselves; admins see everyone.
func (s *Service) Get(ctx context.Context, principal *types.Principal, id string) (*types.User, error) {
	if principal.Role != types.RoleAdmin && principal.UserID != id {
		return nil, types.NewForbiddenError("not your account")
	}

	var cached types.User
	if s.cache.Get(ctx, cache.Keys.User(id), &cached) {
		return &cached, nil
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cache.Keys.User(id), user, cache.Medium); err != nil {
		s.logger.WithError(err).Warn("Failed to cache user")
	}
	return user, nil
}

// Update applies profile changes. Status changes are admin only.
func (s *Service) Update(ctx context.Context, principal *types.Principal, id string, updates *types.UserUpdates) (*types.User, error) {
	if principal.Role != types.RoleAdmin {
		if principal.UserID != id {
			return nil, types.NewForbiddenError("not your account")
		}
		if updates.Status != nil {
			return nil, types.NewForbiddenError("only an administrator may change account status")
		}
	}

	if err := s.users.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return s.users.GetByID(ctx, id)
}

// Deactivate marks an account inactive. Admin only at the handler layer.
// The account row survives; only login is blocked.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	status := types.UserStatusInactive
	if err := s.users.Update(ctx, id, &types.UserUpdates{Status: &status}); err != nil {
		return err
	}

	s.invalidate(ctx, id)
	s.logger.WithUserID(id).Info("User deactivated")
	return nil
}

// List returns users matching the filters. Admin only at the handler layer.
func (s *Service) List(ctx context.Context, filters *types.UserFilters, limit, offset int) ([]*types.User, int, error) {
	return s.users.List(ctx, filters, limit, offset)
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, cache.Keys.User(id)); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate user cache")
	}
}
