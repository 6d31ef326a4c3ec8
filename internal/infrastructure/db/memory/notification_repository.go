package memory

import (
	"context"

	"github.com/tempoedu/skillswap/internal/core/domain"
)

type NotificationRepository struct {
	s *Store
}

func (r *NotificationRepository) Create(_ context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if n.ID == "" {
		n.ID = r.s.newID()
	}
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

// ListByRecipient returns notifications newest first.
func (r *NotificationRepository) ListByRecipient(_ context.Context, recipientID string, page, limit int) ([]*domain.Notification, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var mine []domain.Notification
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		if r.s.notifications[i].RecipientID == recipientID {
			mine = append(mine, r.s.notifications[i])
		}
	}
	start, end := paginate(len(mine), page, limit)
	out := make([]*domain.Notification, 0, end-start)
	for i := start; i < end; i++ {
		n := mine[i]
		out = append(out, &n)
	}
	return out, int64(len(mine)), nil
}

func (r *NotificationRepository) CountUnread(_ context.Context, recipientID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var count int64
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, recipientID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range r.s.notifications {
		n := &r.s.notifications[i]
		if n.ID == id && n.RecipientID == recipientID {
			n.Read = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

func (r *NotificationRepository) MarkAllRead(_ context.Context, recipientID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var changed int64
	for i := range r.s.notifications {
		n := &r.s.notifications[i]
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}
