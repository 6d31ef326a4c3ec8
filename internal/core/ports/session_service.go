package ports

import (
	"context"
	"time"

	"github.com/tempoedu/skillswap/internal/core/domain"
)

// CreateSessionInput carries a booking request from the requester.
type CreateSessionInput struct {
	RequesterID string
	ProviderID  string
	SkillID     string
	ScheduledAt time.Time
	Duration    int
	Message     string
}

// UpdateSessionInput mirrors a generic status/link update from a participant.
// Status may be empty when only the meeting link changes.
type UpdateSessionInput struct {
	SessionID   string
	ActorID     string
	Status      domain.SessionStatus
	MeetingLink string
}

// SessionService enforces the session lifecycle and its side effects.
type SessionService interface {
	Create(ctx context.Context, in CreateSessionInput) (*domain.Session, error)
	Get(ctx context.Context, sessionID, actorID string) (*domain.Session, error)
	ListForUser(ctx context.Context, userID string, status domain.SessionStatus) ([]*domain.Session, error)

	Accept(ctx context.Context, sessionID, actorID string) (*domain.Session, error)
	Reject(ctx context.Context, sessionID, actorID string) (*domain.Session, error)
	Cancel(ctx context.Context, sessionID, actorID string) (*domain.Session, error)
	Confirm(ctx context.Context, sessionID, actorID string) (*domain.Session, error)
	Settle(ctx context.Context, sessionID, actorID string) (*domain.Session, error)
	SetMeetingLink(ctx context.Context, sessionID, actorID, link string) (*domain.Session, error)
	Update(ctx context.Context, in UpdateSessionInput) (*domain.Session, error)

	// CanJoinRoom reports whether userID may join the signaling room roomID.
	CanJoinRoom(ctx context.Context, roomID, userID string) (bool, error)
}
