package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
)

type reviewService struct {
	reviews  ports.ReviewRepository
	sessions ports.SessionRepository
	notifier ports.NotificationSink
	log      zerolog.Logger

	now func() time.Time
}

// NewReviewService returns a ReviewService. Only participants of a completed
// session may review it, once each.
func NewReviewService(
	reviews ports.ReviewRepository,
	sessions ports.SessionRepository,
	notifier ports.NotificationSink,
	log zerolog.Logger,
) ports.ReviewService {
	return &reviewService{
		reviews:  reviews,
		sessions: sessions,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *reviewService) Create(ctx context.Context, in ports.CreateReviewInput) (*domain.Review, error) {
	comment := strings.TrimSpace(in.Comment)
	switch {
	case in.SessionID == "":
		return nil, domain.ValidationError("session id is required")
	case in.Rating < domain.MinRating || in.Rating > domain.MaxRating:
		return nil, domain.ValidationError("rating must be between %d and %d", domain.MinRating, domain.MaxRating)
	case utf8.RuneCountInString(comment) > domain.MaxReviewComment:
		return nil, domain.ValidationError("comment must be at most %d characters", domain.MaxReviewComment)
	}

	sess, err := s.sessions.FindByID(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.ParticipantOf(in.ReviewerID) == domain.NotParticipant {
		return nil, domain.ErrNotParticipant
	}
	if sess.Status != domain.SessionCompleted {
		return nil, domain.ErrNotCompleted
	}

	review := &domain.Review{
		SessionID:  sess.ID,
		ReviewerID: in.ReviewerID,
		RevieweeID: sess.Counterpart(in.ReviewerID),
		Rating:     in.Rating,
		Comment:    comment,
		CreatedAt:  s.now(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	s.log.Info().
		Str("session_id", sess.ID).
		Str("reviewer_id", review.ReviewerID).
		Int("rating", review.Rating).
		Msg("review created")

	s.notifier.Notify(ctx, domain.Notification{
		RecipientID: review.RevieweeID,
		Kind:        domain.NotifyNewReview,
		Title:       "New Review",
		Message:     fmt.Sprintf("You received a %d-star review", review.Rating),
		Metadata:    map[string]any{"reviewId": review.ID, "sessionId": sess.ID},
		CreatedAt:   review.CreatedAt,
	})
	return review, nil
}

func (s *reviewService) ListForUser(ctx context.Context, userID string, page, limit int) (*ports.ReviewPage, error) {
	page, limit = normalizePage(page, limit)
	items, total, err := s.reviews.ListByReviewee(ctx, userID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	rep, err := s.reviews.Reputation(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reputation: %w", err)
	}
	rep.UserID = userID
	rep.Average = math.Round(rep.Average*10) / 10

	return &ports.ReviewPage{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
		Reputation: rep,
	}, nil
}

func (s *reviewService) ListForSession(ctx context.Context, sessionID string) ([]*domain.Review, error) {
	if _, err := s.sessions.FindByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.reviews.ListBySession(ctx, sessionID)
}
