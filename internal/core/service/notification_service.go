package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
)

type notificationTemplate struct {
	title   string
	message string
}

var sessionTemplates = map[domain.NotificationKind]notificationTemplate{
	domain.NotifySessionRequest:   {"New Session Request", "You have a new session request"},
	domain.NotifySessionAccepted:  {"Session Accepted", "Your session has been accepted"},
	domain.NotifySessionRejected:  {"Session Rejected", "Your session request was rejected"},
	domain.NotifySessionCancelled: {"Session Cancelled", "A session has been cancelled"},
	domain.NotifySessionCompleted: {"Session Completed", "Session has been completed. Credits have been transferred."},
}

// notify hands a session event to the sink. Delivery is best effort.
func (s *sessionService) notify(ctx context.Context, recipientID string, kind domain.NotificationKind, sessionID string) {
	tpl := sessionTemplates[kind]
	s.notifier.Notify(ctx, domain.Notification{
		RecipientID: recipientID,
		Kind:        kind,
		Title:       tpl.title,
		Message:     tpl.message,
		Metadata:    map[string]any{"sessionId": sessionID},
		CreatedAt:   s.now(),
	})
}

func (s *sessionService) notifyCredit(ctx context.Context, recipientID string, amount int, sessionID string) {
	s.notifier.Notify(ctx, domain.Notification{
		RecipientID: recipientID,
		Kind:        domain.NotifyCreditReceived,
		Title:       "Credits Received",
		Message:     fmt.Sprintf("You received %d credits", amount),
		Metadata:    map[string]any{"sessionId": sessionID, "amount": amount},
		CreatedAt:   s.now(),
	})
}

type notificationService struct {
	repo ports.NotificationRepository
}

// NewNotificationService returns the recipient-facing notification read model.
func NewNotificationService(repo ports.NotificationRepository) ports.NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) List(ctx context.Context, recipientID string, page, limit int) (*ports.NotificationPage, error) {
	page, limit = normalizePage(page, limit)
	items, total, err := s.repo.ListByRecipient(ctx, recipientID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return &ports.NotificationPage{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.CountUnread(ctx, recipientID)
}

func (s *notificationService) MarkRead(ctx context.Context, recipientID, id string) error {
	if id == "" {
		return domain.ValidationError("notification id is required")
	}
	return s.repo.MarkRead(ctx, recipientID, id)
}

func (s *notificationService) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, recipientID)
}

// StoreSink persists notifications synchronously. It is the consumer behind
// the async dispatcher and is also usable directly in tests.
type StoreSink struct {
	repo ports.NotificationRepository
	now  func() time.Time
}

func NewStoreSink(repo ports.NotificationRepository) *StoreSink {
	return &StoreSink{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Store writes n, stamping CreatedAt when unset.
func (s *StoreSink) Store(ctx context.Context, n domain.Notification) error {
	if n.RecipientID == "" {
		return domain.ValidationError("notification recipient is required")
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	return s.repo.Create(ctx, &n)
}
