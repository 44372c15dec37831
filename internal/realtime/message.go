package realtime

import "time"

// MessageType tags the envelope variant.
type MessageType string

const (
	TypeAuth        MessageType = "auth"
	TypeAuthSuccess MessageType = "auth_success"
	TypeAuthError   MessageType = "auth_error"

	TypeNotification MessageType = "notification"
	TypeChatMessage  MessageType = "chat_message"

	TypeVideoCallRequest  MessageType = "video_call_request"
	TypeVideoCallAccepted MessageType = "video_call_accepted"
	TypeVideoCallRejected MessageType = "video_call_rejected"
	TypeVideoCallEnded    MessageType = "video_call_ended"

	TypeLiveStreamStarted     MessageType = "live_stream_started"
	TypeLiveStreamEnded       MessageType = "live_stream_ended"
	TypeLiveStreamViewerCount MessageType = "live_stream_viewer_count"

	TypeHeartbeat    MessageType = "heartbeat"
	TypeHeartbeatAck MessageType = "heartbeat_ack"

	TypeError              MessageType = "error"
	TypeSystemAnnouncement MessageType = "system_announcement"
)

// Message is the wire envelope. A single flat struct covers every variant;
// unused fields are omitted from the encoding.
type Message struct {
	Type MessageType `json:"type"`

	// auth / auth_success / auth_error / error
	Token   string `json:"token,omitempty"`
	UserID  string `json:"user_id,omitempty"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`

	// notification / chat_message / system_announcement
	ID        string     `json:"id,omitempty"`
	Title     string     `json:"title,omitempty"`
	Kind      string     `json:"kind,omitempty"`
	Sender    string     `json:"sender,omitempty"`
	Recipient string     `json:"recipient,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`

	// video calls
	ConsultationID string `json:"consultation_id,omitempty"`
	From           string `json:"from,omitempty"`
	To             string `json:"to,omitempty"`
	Reason         string `json:"reason,omitempty"`

	// live streams
	StreamID    string `json:"stream_id,omitempty"`
	StreamTitle string `json:"stream_title,omitempty"`
	ViewerCount int64  `json:"viewer_count,omitempty"`
}

// NewError builds an outbound error envelope.
func NewError(content string) *Message {
	return &Message{Type: TypeError, Content: content}
}

// NewAuthError builds the pre-registration rejection envelope.
func NewAuthError(content string) *Message {
	return &Message{Type: TypeAuthError, Content: content}
}
