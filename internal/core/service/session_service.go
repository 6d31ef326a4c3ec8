package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
	"github.com/tempoedu/skillswap/internal/pkg/metrics"
)

const sessionLockPrefix = "session:"

type sessionService struct {
	sessions ports.SessionRepository
	users    ports.UserRepository
	ledger   ports.LedgerService
	locker   ports.Locker
	notifier ports.NotificationSink
	log      zerolog.Logger

	now       func() time.Time
	newRoomID func() string
}

// NewSessionService returns a SessionService. Every mutation of an existing
// session runs under the per-session lock provided by locker.
func NewSessionService(
	sessions ports.SessionRepository,
	users ports.UserRepository,
	ledger ports.LedgerService,
	locker ports.Locker,
	notifier ports.NotificationSink,
	log zerolog.Logger,
) ports.SessionService {
	return &sessionService{
		sessions:  sessions,
		users:     users,
		ledger:    ledger,
		locker:    locker,
		notifier:  notifier,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		newRoomID: uuid.NewString,
	}
}

// Create books a pending session. The balance check is advisory: credits are
// only moved when both participants confirm completion.
func (s *sessionService) Create(ctx context.Context, in ports.CreateSessionInput) (*domain.Session, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByID(ctx, in.ProviderID); err != nil {
		return nil, fmt.Errorf("create session: provider: %w", err)
	}

	ok, err := s.ledger.HasSufficientBalance(ctx, in.RequesterID, in.Duration)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("create session: %w", domain.ErrInsufficientFunds)
	}

	now := s.now()
	sess := &domain.Session{
		RequesterID: in.RequesterID,
		ProviderID:  in.ProviderID,
		SkillID:     in.SkillID,
		ScheduledAt: in.ScheduledAt.UTC(),
		Duration:    in.Duration,
		Status:      domain.SessionPending,
		Message:     strings.TrimSpace(in.Message),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		s.log.Error().Err(err).Str("requester_id", in.RequesterID).Msg("failed to create session")
		return nil, fmt.Errorf("create session: %w", err)
	}

	metrics.SessionTransitionsTotal.WithLabelValues(string(domain.SessionPending)).Inc()
	s.log.Info().
		Str("session_id", sess.ID).
		Str("requester_id", sess.RequesterID).
		Str("provider_id", sess.ProviderID).
		Int("duration", sess.Duration).
		Msg("session requested")

	s.notify(ctx, sess.ProviderID, domain.NotifySessionRequest, sess.ID)
	return sess, nil
}

func validateCreate(in ports.CreateSessionInput) error {
	switch {
	case in.RequesterID == "":
		return domain.ValidationError("requester is required")
	case in.ProviderID == "":
		return domain.ValidationError("provider is required")
	case in.SkillID == "":
		return domain.ValidationError("skill is required")
	case in.ScheduledAt.IsZero():
		return domain.ValidationError("scheduled time is required")
	case in.Duration < domain.MinSessionHours || in.Duration > domain.MaxSessionHours:
		return domain.ValidationError("duration must be between %d and %d hours", domain.MinSessionHours, domain.MaxSessionHours)
	case in.RequesterID == in.ProviderID:
		return domain.ErrSelfBooking
	}
	return nil
}

// Get returns a session visible to actorID.
func (s *sessionService) Get(ctx context.Context, sessionID, actorID string) (*domain.Session, error) {
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.ParticipantOf(actorID) == domain.NotParticipant {
		return nil, domain.ErrNotParticipant
	}
	return sess, nil
}

func (s *sessionService) ListForUser(ctx context.Context, userID string, status domain.SessionStatus) ([]*domain.Session, error) {
	if status != "" && !status.Valid() {
		return nil, domain.ValidationError("unknown status %q", status)
	}
	return s.sessions.ListByUser(ctx, userID, status)
}

// Accept moves a pending session to accepted and assigns its signaling room.
func (s *sessionService) Accept(ctx context.Context, sessionID, actorID string) (*domain.Session, error) {
	sess, err := s.transition(ctx, sessionID, actorID, domain.SessionAccepted, func(p *ports.SessionPatch) {
		p.RoomID = s.newRoomID()
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, sess.RequesterID, domain.NotifySessionAccepted, sess.ID)
	return sess, nil
}

func (s *sessionService) Reject(ctx context.Context, sessionID, actorID string) (*domain.Session, error) {
	sess, err := s.transition(ctx, sessionID, actorID, domain.SessionRejected, nil)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, sess.RequesterID, domain.NotifySessionRejected, sess.ID)
	return sess, nil
}

func (s *sessionService) Cancel(ctx context.Context, sessionID, actorID string) (*domain.Session, error) {
	sess, err := s.transition(ctx, sessionID, actorID, domain.SessionCancelled, nil)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, sess.Counterpart(actorID), domain.NotifySessionCancelled, sess.ID)
	return sess, nil
}

// transition applies a participant-initiated status change under the session lock.
func (s *sessionService) transition(
	ctx context.Context,
	sessionID, actorID string,
	next domain.SessionStatus,
	mutate func(*ports.SessionPatch),
) (*domain.Session, error) {
	release, err := s.locker.Acquire(ctx, sessionLockPrefix+sessionID)
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	defer release()

	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.CheckTransition(actorID, next); err != nil {
		return nil, err
	}

	patch := ports.SessionPatch{UpdatedAt: s.now()}
	if mutate != nil {
		mutate(&patch)
	}
	updated, err := s.sessions.Transition(ctx, sessionID, sess.Status, next, patch)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	metrics.SessionTransitionsTotal.WithLabelValues(string(next)).Inc()
	s.log.Info().
		Str("session_id", sessionID).
		Str("actor_id", actorID).
		Str("from", string(sess.Status)).
		Str("to", string(next)).
		Msg("session transition applied")
	return updated, nil
}

// Confirm records actorID's completion confirmation. Repeated confirmations
// are no-ops. Once both sides have confirmed, the credit transfer runs and the
// session completes. If the transfer fails, the confirmations stay recorded,
// the session stays accepted and the error is returned; calling Confirm or
// Settle again retries the settlement.
func (s *sessionService) Confirm(ctx context.Context, sessionID, actorID string) (*domain.Session, error) {
	release, err := s.locker.Acquire(ctx, sessionLockPrefix+sessionID)
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	defer release()

	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	p := sess.ParticipantOf(actorID)
	if p == domain.NotParticipant {
		return nil, domain.ErrNotParticipant
	}
	if sess.Status == domain.SessionCompleted {
		return sess, nil
	}
	if sess.Status != domain.SessionAccepted {
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, sess.Status, domain.SessionCompleted)
	}

	if !sess.Confirmed(p) {
		sess, err = s.sessions.Confirm(ctx, sessionID, p, s.now())
		if err != nil {
			return nil, fmt.Errorf("confirm session: %w", err)
		}
		s.log.Info().Str("session_id", sessionID).Str("participant", p.String()).Msg("completion confirmed")
	}

	if !sess.BothConfirmed() {
		return sess, nil
	}
	return s.settleLocked(ctx, sess)
}

// Settle retries the credit transfer of a session both participants have
// already confirmed.
func (s *sessionService) Settle(ctx context.Context, sessionID, actorID string) (*domain.Session, error) {
	release, err := s.locker.Acquire(ctx, sessionLockPrefix+sessionID)
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	defer release()

	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.ParticipantOf(actorID) == domain.NotParticipant {
		return nil, domain.ErrNotParticipant
	}
	if sess.Status == domain.SessionCompleted {
		return sess, nil
	}
	if sess.Status != domain.SessionAccepted {
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, sess.Status, domain.SessionCompleted)
	}
	if !sess.BothConfirmed() {
		return nil, fmt.Errorf("%w: both participants must confirm before settlement", domain.ErrInvalidTransition)
	}
	return s.settleLocked(ctx, sess)
}

// settleLocked transfers the session cost and marks it completed. Caller must
// hold the session lock. A transfer already recorded for the session counts
// as paid so a retry after a failed status write completes without paying twice.
func (s *sessionService) settleLocked(ctx context.Context, sess *domain.Session) (*domain.Session, error) {
	start := time.Now()
	defer func() { metrics.SessionSettleDuration.Observe(time.Since(start).Seconds()) }()

	paidNow := true
	err := s.ledger.Transfer(ctx, sess.RequesterID, sess.ProviderID, sess.Duration, sess.ID)
	switch {
	case errors.Is(err, domain.ErrAlreadySettled):
		paidNow = false
		s.log.Warn().Str("session_id", sess.ID).Msg("session already paid, completing")
	case err != nil:
		s.log.Error().Err(err).Str("session_id", sess.ID).Msg("settlement transfer failed, session left accepted")
		return nil, fmt.Errorf("settle session: %w", err)
	}

	completedAt := s.now()
	updated, err := s.sessions.Transition(ctx, sess.ID, domain.SessionAccepted, domain.SessionCompleted, ports.SessionPatch{
		CompletedAt: &completedAt,
		UpdatedAt:   completedAt,
	})
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sess.ID).Msg("credits transferred but completion not recorded")
		return nil, fmt.Errorf("complete session: %w", err)
	}

	metrics.SessionTransitionsTotal.WithLabelValues(string(domain.SessionCompleted)).Inc()
	s.log.Info().Str("session_id", sess.ID).Int("credits", sess.Duration).Msg("session completed")

	s.notify(ctx, updated.RequesterID, domain.NotifySessionCompleted, updated.ID)
	s.notify(ctx, updated.ProviderID, domain.NotifySessionCompleted, updated.ID)
	if paidNow {
		s.notifyCredit(ctx, updated.ProviderID, updated.Duration, updated.ID)
	}
	return updated, nil
}

// SetMeetingLink stores an external meeting link on an accepted session.
func (s *sessionService) SetMeetingLink(ctx context.Context, sessionID, actorID, link string) (*domain.Session, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, domain.ValidationError("meeting link is required")
	}

	release, err := s.locker.Acquire(ctx, sessionLockPrefix+sessionID)
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	defer release()

	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.ParticipantOf(actorID) == domain.NotParticipant {
		return nil, domain.ErrNotParticipant
	}
	if sess.Status != domain.SessionAccepted {
		return nil, fmt.Errorf("%w: meeting link requires an accepted session (status %s)", domain.ErrInvalidTransition, sess.Status)
	}

	updated, err := s.sessions.SetMeetingLink(ctx, sessionID, link, s.now())
	if err != nil {
		return nil, fmt.Errorf("set meeting link: %w", err)
	}
	return updated, nil
}

// Update dispatches a generic status change to the matching lifecycle
// operation, then applies an optional meeting link.
func (s *sessionService) Update(ctx context.Context, in ports.UpdateSessionInput) (*domain.Session, error) {
	if in.Status == "" && in.MeetingLink == "" {
		return nil, domain.ValidationError("status or meeting link is required")
	}

	var (
		sess *domain.Session
		err  error
	)
	switch in.Status {
	case "":
	case domain.SessionAccepted:
		sess, err = s.Accept(ctx, in.SessionID, in.ActorID)
	case domain.SessionRejected:
		sess, err = s.Reject(ctx, in.SessionID, in.ActorID)
	case domain.SessionCancelled:
		sess, err = s.Cancel(ctx, in.SessionID, in.ActorID)
	case domain.SessionCompleted:
		sess, err = s.Confirm(ctx, in.SessionID, in.ActorID)
	case domain.SessionPending:
		return nil, fmt.Errorf("%w: sessions cannot return to pending", domain.ErrInvalidTransition)
	default:
		return nil, domain.ValidationError("unknown status %q", in.Status)
	}
	if err != nil {
		return nil, err
	}

	if in.MeetingLink != "" {
		return s.SetMeetingLink(ctx, in.SessionID, in.ActorID, in.MeetingLink)
	}
	return sess, nil
}

// CanJoinRoom allows only participants of an accepted session to join its room.
func (s *sessionService) CanJoinRoom(ctx context.Context, roomID, userID string) (bool, error) {
	if roomID == "" || userID == "" {
		return false, nil
	}
	sess, err := s.sessions.FindByRoomID(ctx, roomID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sess.Status == domain.SessionAccepted && sess.ParticipantOf(userID) != domain.NotParticipant, nil
}
