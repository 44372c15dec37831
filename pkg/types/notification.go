package types

import "time"

// NotificationType represents the kind of an outbound event
type NotificationType string

const (
	NotifyAppointmentReminder  NotificationType = "appointment_reminder"
	NotifyAppointmentConfirmed NotificationType = "appointment_confirmed"
	NotifyAppointmentCancelled NotificationType = "appointment_cancelled"
	NotifyPrescriptionReady    NotificationType = "prescription_ready"
	NotifyDoctorReply          NotificationType = "doctor_reply"
	NotifySystemAnnouncement   NotificationType = "system_announcement"
	NotifyReviewReply          NotificationType = "review_reply"
	NotifyLiveStreamReminder   NotificationType = "live_stream_reminder"
	NotifyGroupMessage         NotificationType = "group_message"
)

// NotificationStatus represents inbox state values
type NotificationStatus string

const (
	NotificationUnread  NotificationStatus = "unread"
	NotificationRead    NotificationStatus = "read"
	NotificationDeleted NotificationStatus = "deleted"
)

// Notification is the durable inbox record; the live fan-out path is
// best-effort and this row is the recovery path for offline recipients.
type Notification struct {
	ID        string             `json:"id" db:"id"`
	UserID    string             `json:"user_id" db:"user_id"`
	Type      NotificationType   `json:"type" db:"type"`
	Title     string             `json:"title" db:"title"`
	Content   string             `json:"content" db:"content"`
	RelatedID string             `json:"related_id,omitempty" db:"related_id"`
	Status    NotificationStatus `json:"status" db:"status"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	ReadAt    *time.Time         `json:"read_at,omitempty" db:"read_at"`
}

// CreateNotificationRequest represents notification creation data
type CreateNotificationRequest struct {
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	RelatedID string           `json:"related_id,omitempty"`
}

// NotificationFilters represents filters for inbox listings
type NotificationFilters struct {
	Status  NotificationStatus `json:"status,omitempty"`
	Page    int                `json:"page,omitempty"`
	PerPage int                `json:"per_page,omitempty"`
}
