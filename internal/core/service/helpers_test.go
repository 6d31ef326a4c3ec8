package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
	"github.com/tempoedu/skillswap/internal/infrastructure/db/memory"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------------------

// recordingSink captures notifications synchronously.
type recordingSink struct {
	mu  sync.Mutex
	got []domain.Notification
}

func (s *recordingSink) Notify(_ context.Context, n domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
}

func (s *recordingSink) kinds(recipientID string) []domain.NotificationKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.NotificationKind
	for _, n := range s.got {
		if n.RecipientID == recipientID {
			out = append(out, n.Kind)
		}
	}
	return out
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

// countingLedger wraps a real ledger, counting transfer calls and optionally
// failing the next one.
type countingLedger struct {
	ports.LedgerService

	mu        sync.Mutex
	transfers int
	failNext  error
}

func (l *countingLedger) Transfer(ctx context.Context, from, to string, amount int, sessionID string) error {
	l.mu.Lock()
	l.transfers++
	if err := l.failNext; err != nil {
		l.failNext = nil
		l.mu.Unlock()
		return err
	}
	l.mu.Unlock()
	return l.LedgerService.Transfer(ctx, from, to, amount, sessionID)
}

func (l *countingLedger) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transfers
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type fixture struct {
	store  *memory.Store
	ledger *countingLedger
	sink   *recordingSink
	svc    *sessionService

	requester string
	provider  string
	outsider  string
}

func newFixture(t *testing.T, requesterCredits, providerCredits int) *fixture {
	t.Helper()

	store := memory.NewStore()
	ledger := &countingLedger{LedgerService: NewLedgerService(store.Ledger(), discardLogger)}
	sink := &recordingSink{}
	svc := NewSessionService(store.Sessions(), store.Users(), ledger, memory.NewLocker(), sink, discardLogger).(*sessionService)

	f := &fixture{store: store, ledger: ledger, sink: sink, svc: svc}
	f.requester = f.addUser(t, "requester@example.com", requesterCredits)
	f.provider = f.addUser(t, "provider@example.com", providerCredits)
	f.outsider = f.addUser(t, "outsider@example.com", 5)
	return f
}

func (f *fixture) addUser(t *testing.T, email string, credits int) string {
	t.Helper()
	u, err := f.store.Users().Create(context.Background(), &domain.User{Email: email, Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := f.ledger.GrantInitial(context.Background(), u.ID, credits); err != nil {
		t.Fatalf("grant: %v", err)
	}
	return u.ID
}

func (f *fixture) balance(t *testing.T, userID string) int {
	t.Helper()
	bal, err := f.ledger.Balance(context.Background(), userID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return bal
}

func (f *fixture) book(t *testing.T, duration int) *domain.Session {
	t.Helper()
	sess, err := f.svc.Create(context.Background(), ports.CreateSessionInput{
		RequesterID: f.requester,
		ProviderID:  f.provider,
		SkillID:     "go-basics",
		ScheduledAt: testTime,
		Duration:    duration,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return sess
}

func (f *fixture) accepted(t *testing.T, duration int) *domain.Session {
	t.Helper()
	sess := f.book(t, duration)
	sess, err := f.svc.Accept(context.Background(), sess.ID, f.provider)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	return sess
}

func (f *fixture) stored(t *testing.T, id string) *domain.Session {
	t.Helper()
	sess, err := f.store.Sessions().FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	return sess
}
