package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tcmclinic/telemed/internal/realtime"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Pusher is the live fan-out side of delivery.
type Pusher interface {
	SendToUser(userID string, msg *realtime.Message) bool
	BroadcastToAll(msg *realtime.Message) int
}

// Service implements the durable inbox plus best-effort live push. The
// inbox row always lands first; the push is lossy and carries no
// acknowledgment.
type Service struct {
	logger *logger.Logger
	repo   *Repository
	pusher Pusher
}

// NewService creates a new notification service instance
func NewService(log *logger.Logger, repo *Repository, pusher Pusher) *Service {
	return &Service{
		logger: log,
		repo:   repo,
		pusher: pusher,
	}
}

// Notify stores a notification and pushes it to the recipient if online.
// Durable-write failures are logged, never propagated to the caller's
// domain operation.
func (s *Service) Notify(ctx context.Context, req *types.CreateNotificationRequest) {
	n := &types.Notification{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Type:      req.Type,
		Title:     req.Title,
		Content:   req.Content,
		RelatedID: req.RelatedID,
		Status:    types.NotificationUnread,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.WithUserID(req.UserID).WithError(err).Error("Failed to store notification")
		return
	}

	if s.pusher != nil {
		s.pusher.SendToUser(n.UserID, &realtime.Message{
			Type:    realtime.TypeNotification,
			ID:      n.ID,
			Title:   n.Title,
			Content: n.Content,
			Kind:    string(n.Type),
		})
	}
}

// Announce stores nothing and broadcasts a system announcement to every
// live connection.
func (s *Service) Announce(title, content string) int {
	if s.pusher == nil {
		return 0
	}
	return s.pusher.BroadcastToAll(&realtime.Message{
		Type:    realtime.TypeSystemAnnouncement,
		Title:   title,
		Content: content,
	})
}

// List returns the caller's inbox.
func (s *Service) List(ctx context.Context, userID string, filters *types.NotificationFilters, limit, offset int) ([]*types.Notification, int, error) {
	return s.repo.List(ctx, userID, filters, limit, offset)
}

// MarkRead marks one of the caller's notifications read.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead marks the caller's whole inbox read.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// Delete soft-deletes one of the caller's notifications.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, id, userID)
}

// UnreadCount returns the caller's unread notification count.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}
