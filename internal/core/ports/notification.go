package ports

import (
	"context"

	"github.com/tempoedu/skillswap/internal/core/domain"
)

// NotificationSink consumes fire-and-forget event records. Implementations
// must not block the caller on delivery and never report failures back.
type NotificationSink interface {
	Notify(ctx context.Context, n domain.Notification)
}

// NotificationRepository persists notifications for the read model.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, page, limit int) ([]*domain.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

// NotificationPage is a page of notifications.
type NotificationPage struct {
	Items      []*domain.Notification
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// NotificationService is the read side exposed to recipients.
type NotificationService interface {
	List(ctx context.Context, recipientID string, page, limit int) (*NotificationPage, error)
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}
