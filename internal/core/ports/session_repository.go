package ports

import (
	"context"
	"time"

	"github.com/tempoedu/skillswap/internal/core/domain"
)

// SessionPatch carries the fields written together with a status change.
type SessionPatch struct {
	RoomID      string     // set when non-empty
	CompletedAt *time.Time // set when non-nil
	UpdatedAt   time.Time
}

// SessionRepository defines persistence for sessions. Mutations are
// conditional on the stored status so concurrent writers cannot overwrite
// each other's transitions.
type SessionRepository interface {
	// Create inserts s and assigns its ID.
	Create(ctx context.Context, s *domain.Session) error
	FindByID(ctx context.Context, id string) (*domain.Session, error)
	FindByRoomID(ctx context.Context, roomID string) (*domain.Session, error)
	// ListByUser returns sessions where userID is requester or provider,
	// latest scheduled first. An empty status means any status.
	ListByUser(ctx context.Context, userID string, status domain.SessionStatus) ([]*domain.Session, error)

	// Transition moves the session from one status to another. It fails with
	// domain.ErrStaleSession if the stored status is no longer from. A move to
	// completed additionally requires both confirmation flags to be set.
	Transition(ctx context.Context, id string, from, to domain.SessionStatus, patch SessionPatch) (*domain.Session, error)

	// Confirm sets the confirmation flag of p while the session is accepted.
	Confirm(ctx context.Context, id string, p domain.Participant, at time.Time) (*domain.Session, error)

	// SetMeetingLink updates the link while the session is accepted.
	SetMeetingLink(ctx context.Context, id, link string, at time.Time) (*domain.Session, error)
}
