package memory

import (
	"context"

	"github.com/tempoedu/skillswap/internal/core/domain"
)

type ReviewRepository struct {
	s *Store
}

func reviewKey(sessionID, reviewerID string) string {
	return sessionID + "/" + reviewerID
}

func (r *ReviewRepository) Create(_ context.Context, review *domain.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := reviewKey(review.SessionID, review.ReviewerID)
	if _, exists := r.s.reviewKeys[key]; exists {
		return domain.ErrReviewExists
	}
	if review.ID == "" {
		review.ID = r.s.newID()
	}
	r.s.reviewKeys[key] = struct{}{}
	r.s.reviews = append(r.s.reviews, *review)
	return nil
}

// ListByReviewee returns reviews newest first.
func (r *ReviewRepository) ListByReviewee(_ context.Context, userID string, page, limit int) ([]*domain.Review, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var received []domain.Review
	for i := len(r.s.reviews) - 1; i >= 0; i-- {
		if r.s.reviews[i].RevieweeID == userID {
			received = append(received, r.s.reviews[i])
		}
	}
	start, end := paginate(len(received), page, limit)
	out := make([]*domain.Review, 0, end-start)
	for i := start; i < end; i++ {
		rv := received[i]
		out = append(out, &rv)
	}
	return out, int64(len(received)), nil
}

func (r *ReviewRepository) ListBySession(_ context.Context, sessionID string) ([]*domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*domain.Review
	for _, rv := range r.s.reviews {
		if rv.SessionID == sessionID {
			out = append(out, &rv)
		}
	}
	return out, nil
}

func (r *ReviewRepository) Reputation(_ context.Context, userID string) (domain.Reputation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rep := domain.Reputation{UserID: userID}
	sum := 0
	for _, rv := range r.s.reviews {
		if rv.RevieweeID == userID {
			sum += rv.Rating
			rep.Count++
		}
	}
	if rep.Count > 0 {
		rep.Average = float64(sum) / float64(rep.Count)
	}
	return rep, nil
}
