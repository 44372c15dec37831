package livestream

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tcmclinic/telemed/internal/realtime"
	"github.com/tcmclinic/telemed/pkg/cache"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Broadcaster pushes stream lifecycle events to every live connection.
type Broadcaster interface {
	BroadcastToAll(msg *realtime.Message) int
}

// HostDirectory resolves the display name of a stream host.
type HostDirectory interface {
	GetByID(ctx context.Context, id string) (*types.User, error)
}

// Service implements broadcast stream management. Viewer counts live in
// the cache only; with caching disabled joins and leaves are not counted.
type Service struct {
	logger      *logger.Logger
	repo        *Repository
	cache       *cache.Cache
	broadcaster Broadcaster
	hosts       HostDirectory
}

// NewService creates a new live stream service instance
func NewService(log *logger.Logger, repo *Repository, c *cache.Cache, broadcaster Broadcaster, hosts HostDirectory) *Service {
	return &Service{
		logger:      log,
		repo:        repo,
		cache:       c,
		broadcaster: broadcaster,
		hosts:       hosts,
	}
}

// Schedule creates a stream in the scheduled state.
func (s *Service) Schedule(ctx context.Context, hostID string, req *types.CreateLiveStreamRequest) (*types.LiveStream, error) {
	if req.Title == "" {
		return nil, types.NewValidationError("title is required")
	}
	if req.ScheduledAt.IsZero() {
		return nil, types.NewValidationError("scheduled_at is required")
	}

	host, err := s.hosts.GetByID(ctx, hostID)
	if err != nil {
		return nil, err
	}

	stream := &types.LiveStream{
		ID:          uuid.New().String(),
		HostID:      host.ID,
		HostName:    host.Name,
		Title:       req.Title,
		Description: req.Description,
		Status:      types.StreamScheduled,
		ScheduledAt: req.ScheduledAt,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, stream); err != nil {
		return nil, err
	}
	return stream, nil
}

// Start moves a scheduled stream live and announces it. Host or admin.
func (s *Service) Start(ctx context.Context, principal *types.Principal, id string) (*types.LiveStream, error) {
	stream, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeHost(principal, stream); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.repo.SetStatus(ctx, id, types.StreamScheduled, types.StreamLive, now); err != nil {
		return nil, err
	}
	stream.Status = types.StreamLive
	stream.StartedAt = &now

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToAll(&realtime.Message{
			Type:        realtime.TypeLiveStreamStarted,
			StreamID:    stream.ID,
			StreamTitle: stream.Title,
		})
	}
	return stream, nil
}

// End moves a live stream to ended and announces it. Host or admin.
func (s *Service) End(ctx context.Context, principal *types.Principal, id string) (*types.LiveStream, error) {
	stream, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeHost(principal, stream); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.repo.SetStatus(ctx, id, types.StreamLive, types.StreamEnded, now); err != nil {
		return nil, err
	}
	stream.Status = types.StreamEnded
	stream.EndedAt = &now

	if err := s.cache.Delete(ctx, cache.Keys.StreamViewers(id)); err != nil {
		s.logger.WithError(err).Warn("Failed to reset viewer count")
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToAll(&realtime.Message{
			Type:        realtime.TypeLiveStreamEnded,
			StreamID:    stream.ID,
			StreamTitle: stream.Title,
		})
	}
	return stream, nil
}

// Get returns a stream. Public.
func (s *Service) Get(ctx context.Context, id string) (*types.LiveStream, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns streams, optionally filtered by status. Public.
func (s *Service) List(ctx context.Context, status types.LiveStreamStatus, limit, offset int) ([]*types.LiveStream, int, error) {
	return s.repo.List(ctx, status, limit, offset)
}

// Join bumps the viewer counter and broadcasts the new count.
func (s *Service) Join(ctx context.Context, id string) (int64, error) {
	return s.adjustViewers(ctx, id, 1)
}

// Leave drops the viewer counter and broadcasts the new count.
func (s *Service) Leave(ctx context.Context, id string) (int64, error) {
	return s.adjustViewers(ctx, id, -1)
}

func (s *Service) adjustViewers(ctx context.Context, id string, delta int64) (int64, error) {
	stream, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if stream.Status != types.StreamLive {
		return 0, types.NewValidationError("live stream is not live")
	}
	if !s.cache.Enabled() {
		return 0, nil
	}

	count, err := s.cache.Increment(ctx, cache.Keys.StreamViewers(id), delta)
	if err != nil {
		return 0, err
	}
	if count < 0 {
		count = 0
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToAll(&realtime.Message{
			Type:        realtime.TypeLiveStreamViewerCount,
			StreamID:    id,
			ViewerCount: count,
		})
	}
	return count, nil
}

func authorizeHost(principal *types.Principal, stream *types.LiveStream) error {
	if principal.Role == types.RoleAdmin || stream.HostID == principal.UserID {
		return nil
	}
	return types.NewForbiddenError("not your stream")
}
