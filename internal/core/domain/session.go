package domain

import (
	"fmt"
	"time"
)

// SessionStatus represents the lifecycle state of a booked session.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionAccepted  SessionStatus = "accepted"
	SessionRejected  SessionStatus = "rejected"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// Duration bounds in hours. One hour costs one credit.
const (
	MinSessionHours = 1
	MaxSessionHours = 4
)

// validSessionTransitions defines the allowed state machine transitions.
// Statuses without an entry are terminal.
var validSessionTransitions = map[SessionStatus][]SessionStatus{
	SessionPending:  {SessionAccepted, SessionRejected, SessionCancelled},
	SessionAccepted: {SessionCompleted, SessionCancelled},
}

// Valid reports whether s is one of the known statuses.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionPending, SessionAccepted, SessionRejected, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	for _, allowed := range validSessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s.
func (s SessionStatus) IsTerminal() bool {
	return len(validSessionTransitions[s]) == 0
}

// Participant identifies which side of a session an actor is on.
type Participant int

const (
	NotParticipant Participant = iota
	Requester
	Provider
)

func (p Participant) String() string {
	switch p {
	case Requester:
		return "requester"
	case Provider:
		return "provider"
	default:
		return "none"
	}
}

// Session is a booked, time-boxed skill exchange between a requester and a
// provider. Duration doubles as the credit cost.
type Session struct {
	ID                 string        `json:"id"`
	RequesterID        string        `json:"requester_id"`
	ProviderID         string        `json:"provider_id"`
	SkillID            string        `json:"skill_id"`
	ScheduledAt        time.Time     `json:"scheduled_at"`
	Duration           int           `json:"duration"`
	Status             SessionStatus `json:"status"`
	Message            string        `json:"message,omitempty"`
	MeetingLink        string        `json:"meeting_link,omitempty"`
	RoomID             string        `json:"room_id,omitempty"`
	RequesterConfirmed bool          `json:"requester_confirmed"`
	ProviderConfirmed  bool          `json:"provider_confirmed"`
	CompletedAt        *time.Time    `json:"completed_at,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// ParticipantOf reports the role userID plays in the session.
func (s *Session) ParticipantOf(userID string) Participant {
	switch userID {
	case "":
		return NotParticipant
	case s.RequesterID:
		return Requester
	case s.ProviderID:
		return Provider
	}
	return NotParticipant
}

// Counterpart returns the other participant's ID.
func (s *Session) Counterpart(userID string) string {
	if userID == s.RequesterID {
		return s.ProviderID
	}
	return s.RequesterID
}

// Confirmed reports whether p has confirmed completion.
func (s *Session) Confirmed(p Participant) bool {
	switch p {
	case Requester:
		return s.RequesterConfirmed
	case Provider:
		return s.ProviderConfirmed
	}
	return false
}

// BothConfirmed reports whether both participants confirmed completion.
func (s *Session) BothConfirmed() bool {
	return s.RequesterConfirmed && s.ProviderConfirmed
}

// CheckTransition validates that actorID may move the session to next.
// Completion is reached through confirmations, so next == SessionCompleted
// only checks the source state and participation.
func (s *Session) CheckTransition(actorID string, next SessionStatus) error {
	p := s.ParticipantOf(actorID)
	if p == NotParticipant {
		return ErrNotParticipant
	}
	if !s.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w (from %s to %s)", ErrInvalidTransition, s.Status, next)
	}
	if (next == SessionAccepted || next == SessionRejected) && p != Provider {
		return fmt.Errorf("%w: only the provider may move a session to %s", ErrInvalidTransition, next)
	}
	return nil
}
