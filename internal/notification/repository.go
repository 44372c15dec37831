package notification

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tcmclinic/telemed/pkg/database"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Repository implements the durable notification inbox
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new notification repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

const notificationColumns = `id, user_id, type, title, content, related_id, status, created_at, read_at`

func scanNotification(row interface{ Scan(...interface{}) error }) (*types.Notification, error) {
	var n types.Notification
	var relatedID sql.NullString
	var readAt sql.NullTime

	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Type,
		&n.Title,
		&n.Content,
		&relatedID,
		&n.Status,
		&n.CreatedAt,
		&readAt,
	)
	if err != nil {
		return nil, err
	}
	if relatedID.Valid {
		n.RelatedID = relatedID.String
	}
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}
	return &n, nil
}

// Create inserts an inbox row.
func (r *Repository) Create(ctx context.Context, n *types.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, type, title, content, related_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	var relatedID interface{}
	if n.RelatedID != "" {
		relatedID = n.RelatedID
	}

	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Type, n.Title, n.Content, relatedID, n.Status, n.CreatedAt)
	if err != nil {
		return types.NewInternalError("failed to create notification", err)
	}
	return nil
}

// GetByID retrieves a notification by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*types.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("notification not found")
		}
		return nil, types.NewInternalError("failed to get notification", err)
	}
	return n, nil
}

// MarkRead flips one unread notification to read.
func (r *Repository) MarkRead(ctx context.Context, id, userID string) error {
	query := `
		UPDATE notifications SET status = 'read', read_at = $1
		WHERE id = $2 AND user_id = $3 AND status = 'unread'`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, time.Now(), id, userID)
	if err != nil {
		return types.NewInternalError("failed to mark notification read", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return types.NewInternalError("failed to mark notification read", err)
	}
	if rows == 0 {
		return types.NewNotFoundError("unread notification not found")
	}
	return nil
}

// MarkAllRead flips every unread notification for the user.
func (r *Repository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	query := `
		UPDATE notifications SET status = 'read', read_at = $1
		WHERE user_id = $2 AND status = 'unread'`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, time.Now(), userID)
	if err != nil {
		return 0, types.NewInternalError("failed to mark notifications read", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, types.NewInternalError("failed to mark notifications read", err)
	}
	return rows, nil
}

// Delete soft-deletes an inbox entry.
func (r *Repository) Delete(ctx context.Context, id, userID string) error {
	query := `
		UPDATE notifications SET status = 'deleted'
		WHERE id = $1 AND user_id = $2 AND status != 'deleted'`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return types.NewInternalError("failed to delete notification", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return types.NewInternalError("failed to delete notification", err)
	}
	if rows == 0 {
		return types.NewNotFoundError("notification not found")
	}
	return nil
}

// UnreadCount returns the number of unread notifications for the user.
func (r *Repository) UnreadCount(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND status = 'unread'`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, types.NewInternalError("failed to count unread notifications", err)
	}
	return count, nil
}

// List returns the user's inbox, newest first. Deleted entries are hidden
// unless explicitly requested.
func (r *Repository) List(ctx context.Context, userID string, filters *types.NotificationFilters, limit, offset int) ([]*types.Notification, int, error) {
	where := " WHERE user_id = $1"
	args := []interface{}{userID}
	argIndex := 2

	if filters.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filters.Status)
		argIndex++
	} else {
		where += " AND status != 'deleted'"
	}

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notifications"+where, args...).Scan(&total); err != nil {
		return nil, 0, types.NewInternalError("failed to count notifications", err)
	}

	query := fmt.Sprintf("SELECT %s FROM notifications%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		notificationColumns, where, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, types.NewInternalError("failed to list notifications", err)
	}
	defer rows.Close()

	notifications := []*types.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, types.NewInternalError("failed to scan notification", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, types.NewInternalError("failed to list notifications", err)
	}
	return notifications, total, nil
}
