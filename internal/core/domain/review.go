package domain

import "time"

const (
	MinRating        = 1
	MaxRating        = 5
	MaxReviewComment = 500
)

// Review is one participant's rating of the other after a completed session.
// A reviewer may review a given session once.
type Review struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	ReviewerID string    `json:"reviewer_id"`
	RevieweeID string    `json:"reviewee_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// Reputation aggregates the reviews a user has received.
type Reputation struct {
	UserID  string  `json:"user_id"`
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}
