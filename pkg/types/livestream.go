package types

import "time"

// LiveStreamStatus represents live stream lifecycle states
type LiveStreamStatus string

const (
	StreamScheduled LiveStreamStatus = "scheduled"
	StreamLive      LiveStreamStatus = "live"
	StreamEnded     LiveStreamStatus = "ended"
)

// LiveStream represents a scheduled or running broadcast hosted by a
// clinician. Reads are public.
type LiveStream struct {
	ID          string           `json:"id" db:"id"`
	HostID      string           `json:"host_id" db:"host_id"`
	HostName    string           `json:"host_name" db:"host_name"`
	Title       string           `json:"title" db:"title"`
	Description string           `json:"description" db:"description"`
	Status      LiveStreamStatus `json:"status" db:"status"`
	ScheduledAt time.Time        `json:"scheduled_at" db:"scheduled_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty" db:"started_at"`
	EndedAt     *time.Time       `json:"ended_at,omitempty" db:"ended_at"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}

// CreateLiveStreamRequest represents stream scheduling data
type CreateLiveStreamRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ScheduledAt time.Time `json:"scheduled_at"`
}
