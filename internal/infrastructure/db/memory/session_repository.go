package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
)

type SessionRepository struct {
	s *Store
}

func (r *SessionRepository) Create(_ context.Context, sess *domain.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if sess.ID == "" {
		sess.ID = r.s.newID()
	}
	r.s.sessions[sess.ID] = *sess
	return nil
}

func (r *SessionRepository) FindByID(_ context.Context, id string) (*domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &sess, nil
}

func (r *SessionRepository) FindByRoomID(_ context.Context, roomID string) (*domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, sess := range r.s.sessions {
		if roomID != "" && sess.RoomID == roomID {
			return &sess, nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (r *SessionRepository) ListByUser(_ context.Context, userID string, status domain.SessionStatus) ([]*domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*domain.Session, 0)
	for _, sess := range r.s.sessions {
		if sess.RequesterID != userID && sess.ProviderID != userID {
			continue
		}
		if status != "" && sess.Status != status {
			continue
		}
		out = append(out, &sess)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledAt.After(out[j].ScheduledAt)
	})
	return out, nil
}

func (r *SessionRepository) Transition(_ context.Context, id string, from, to domain.SessionStatus, patch ports.SessionPatch) (*domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if sess.Status != from {
		return nil, domain.ErrStaleSession
	}
	if to == domain.SessionCompleted && !sess.BothConfirmed() {
		return nil, fmt.Errorf("%w: both confirmations required", domain.ErrInvalidTransition)
	}

	sess.Status = to
	if patch.RoomID != "" {
		sess.RoomID = patch.RoomID
	}
	if patch.CompletedAt != nil {
		at := *patch.CompletedAt
		sess.CompletedAt = &at
	}
	sess.UpdatedAt = patch.UpdatedAt
	r.s.sessions[id] = sess
	return &sess, nil
}

func (r *SessionRepository) Confirm(_ context.Context, id string, p domain.Participant, at time.Time) (*domain.Session, error) {
	return r.updateAccepted(id, at, func(sess *domain.Session) {
		switch p {
		case domain.Requester:
			sess.RequesterConfirmed = true
		case domain.Provider:
			sess.ProviderConfirmed = true
		}
	})
}

func (r *SessionRepository) SetMeetingLink(_ context.Context, id, link string, at time.Time) (*domain.Session, error) {
	return r.updateAccepted(id, at, func(sess *domain.Session) {
		sess.MeetingLink = link
	})
}

func (r *SessionRepository) updateAccepted(id string, at time.Time, fn func(*domain.Session)) (*domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if sess.Status != domain.SessionAccepted {
		return nil, domain.ErrStaleSession
	}
	fn(&sess)
	sess.UpdatedAt = at
	r.s.sessions[id] = sess
	return &sess, nil
}
