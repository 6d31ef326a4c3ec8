package domain

import "time"

// NotificationKind enumerates the events the core emits to the notification sink.
type NotificationKind string

const (
	NotifySessionRequest   NotificationKind = "SESSION_REQUEST"
	NotifySessionAccepted  NotificationKind = "SESSION_ACCEPTED"
	NotifySessionRejected  NotificationKind = "SESSION_REJECTED"
	NotifySessionCompleted NotificationKind = "SESSION_COMPLETED"
	NotifySessionCancelled NotificationKind = "SESSION_CANCELLED"
	NotifyCreditReceived   NotificationKind = "CREDIT_RECEIVED"
	NotifyNewReview        NotificationKind = "NEW_REVIEW"
)

// Notification is a fire-and-forget event record addressed to one user.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}
