package livestream

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tcmclinic/telemed/pkg/database"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Repository implements live stream persistence
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new live stream repository
func NewRepository(db *database.DB, log *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

const streamColumns = `id, host_id, host_name, title, description, status, scheduled_at, started_at, ended_at, created_at`

func scanStream(row interface{ Scan(...interface{}) error }) (*types.LiveStream, error) {
	var s types.LiveStream
	var startedAt, endedAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.HostID,
		&s.HostName,
		&s.Title,
		&s.Description,
		&s.Status,
		&s.ScheduledAt,
		&startedAt,
		&endedAt,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if startedAt.Valid {
		t := startedAt.Time
		s.StartedAt = &t
	}
	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	return &s, nil
}

// Create inserts a scheduled stream.
func (r *Repository) Create(ctx context.Context, s *types.LiveStream) error {
	query := `
		INSERT INTO live_streams (id, host_id, host_name, title, description,
			status, scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.HostID, s.HostName, s.Title, s.Description,
		s.Status, s.ScheduledAt, s.CreatedAt)
	if err != nil {
		return types.NewInternalError("failed to create live stream", err)
	}
	return nil
}

// GetByID retrieves a stream by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*types.LiveStream, error) {
	query := `SELECT ` + streamColumns + ` FROM live_streams WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	s, err := scanStream(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError("live stream not found")
		}
		return nil, types.NewInternalError("failed to get live stream", err)
	}
	return s, nil
}

// SetStatus transitions a stream guarded by its current status.
func (r *Repository) SetStatus(ctx context.Context, id string, from, to types.LiveStreamStatus, at time.Time) error {
	column := "started_at"
	if to == types.StreamEnded {
		column = "ended_at"
	}
	query := fmt.Sprintf(
		"UPDATE live_streams SET status = $1, %s = $2 WHERE id = $3 AND status = $4", column)

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, to, at, id, from)
	if err != nil {
		return types.NewInternalError("failed to update live stream status", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return types.NewInternalError("failed to update live stream status", err)
	}
	if rows == 0 {
		return types.NewValidationError(fmt.Sprintf("live stream is not %s", from))
	}
	return nil
}

// List returns streams, optionally filtered by status, soonest first for
// scheduled streams and newest first otherwise.
func (r *Repository) List(ctx context.Context, status types.LiveStreamStatus, limit, offset int) ([]*types.LiveStream, int, error) {
	where := ""
	args := []interface{}{}
	argIndex := 1

	if status != "" {
		where = fmt.Sprintf(" WHERE status = $%d", argIndex)
		args = append(args, status)
		argIndex++
	}

	ctx, cancel := context.WithTimeout(ctx, r.db.QueryTimeout())
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM live_streams"+where, args...).Scan(&total); err != nil {
		return nil, 0, types.NewInternalError("failed to count live streams", err)
	}

	query := fmt.Sprintf("SELECT %s FROM live_streams%s ORDER BY scheduled_at DESC LIMIT $%d OFFSET $%d",
		streamColumns, where, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, types.NewInternalError("failed to list live streams", err)
	}
	defer rows.Close()

	streams := []*types.LiveStream{}
	for rows.Next() {
		s, err := scanStream(rows)
		if err != nil {
			return nil, 0, types.NewInternalError("failed to scan live stream", err)
		}
		streams = append(streams, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, types.NewInternalError("failed to list live streams", err)
	}
	return streams, total, nil
}
