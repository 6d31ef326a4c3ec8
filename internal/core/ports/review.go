package ports

import (
	"context"

	"github.com/tempoedu/skillswap/internal/core/domain"
)

// ReviewRepository persists session reviews.
type ReviewRepository interface {
	// Create stores r and assigns its ID. Returns domain.ErrReviewExists when
	// the reviewer already reviewed the session.
	Create(ctx context.Context, r *domain.Review) error
	// ListByReviewee returns reviews received by userID, newest first.
	ListByReviewee(ctx context.Context, userID string, page, limit int) ([]*domain.Review, int64, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Review, error)
	Reputation(ctx context.Context, userID string) (domain.Reputation, error)
}

// CreateReviewInput is a participant's rating of a completed session. The
// reviewee is always the other participant.
type CreateReviewInput struct {
	SessionID  string
	ReviewerID string
	Rating     int
	Comment    string
}

// ReviewPage is a page of reviews received by one user plus their reputation.
type ReviewPage struct {
	Items      []*domain.Review
	Total      int64
	Page       int
	Limit      int
	TotalPages int
	Reputation domain.Reputation
}

type ReviewService interface {
	Create(ctx context.Context, in CreateReviewInput) (*domain.Review, error)
	ListForUser(ctx context.Context, userID string, page, limit int) (*ReviewPage, error)
	ListForSession(ctx context.Context, sessionID string) ([]*domain.Review, error)
}
