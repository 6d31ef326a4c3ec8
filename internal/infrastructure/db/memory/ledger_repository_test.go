package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
)

func seedUser(t *testing.T, s *Store, email string, credits int) string {
	t.Helper()
	u, err := s.Users().Create(context.Background(), &domain.User{Email: email, Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := s.Ledger().GrantInitial(context.Background(), u.ID, credits, time.Now()); err != nil {
		t.Fatalf("grant: %v", err)
	}
	return u.ID
}

func totalCredits(s *Store) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := 0
	for _, u := range s.users {
		sum += u.Credits
	}
	return sum
}

func TestLedger_GrantInitial_OnlyOnce(t *testing.T) {
	s := NewStore()
	id := seedUser(t, s, "a@example.com", 5)

	_, err := s.Ledger().GrantInitial(context.Background(), id, 5, time.Now())
	if !errors.Is(err, domain.ErrAlreadyGranted) {
		t.Fatalf("expected ErrAlreadyGranted, got %v", err)
	}
	if bal, _ := s.Ledger().Balance(context.Background(), id); bal != 5 {
		t.Fatalf("expected balance 5, got %d", bal)
	}
}

func TestLedger_GrantInitial_UnknownUser(t *testing.T) {
	s := NewStore()
	_, err := s.Ledger().GrantInitial(context.Background(), "ghost", 5, time.Now())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLedger_Transfer_RecordsBalanceAfter(t *testing.T) {
	s := NewStore()
	r := seedUser(t, s, "r@example.com", 5)
	p := seedUser(t, s, "p@example.com", 1)

	debit, credit, err := s.Ledger().Transfer(context.Background(), ports.TransferRecord{
		FromUserID: r, ToUserID: p, Amount: 2, SessionID: "sess-1", At: time.Now(),
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if debit.Amount != -2 || debit.BalanceAfter != 3 || debit.Kind != domain.KindDebit {
		t.Fatalf("unexpected debit %+v", debit)
	}
	if credit.Amount != 2 || credit.BalanceAfter != 3 || credit.Kind != domain.KindCredit {
		t.Fatalf("unexpected credit %+v", credit)
	}
	if debit.SessionID != "sess-1" || credit.SessionID != "sess-1" {
		t.Fatalf("session id not recorded")
	}
}

func TestLedger_Transfer_InsufficientFundsLeavesStateUnchanged(t *testing.T) {
	s := NewStore()
	a := seedUser(t, s, "a@example.com", 1)
	b := seedUser(t, s, "b@example.com", 0)

	_, _, err := s.Ledger().Transfer(context.Background(), ports.TransferRecord{FromUserID: a, ToUserID: b, Amount: 2, SessionID: "x"})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	for id, want := range map[string]int{a: 1, b: 0} {
		bal, _ := s.Ledger().Balance(context.Background(), id)
		if bal != want {
			t.Fatalf("balance of %s: want %d, got %d", id, want, bal)
		}
		_, total, _ := s.Ledger().History(context.Background(), id, 1, 20)
		if total != 1 {
			t.Fatalf("expected only the initial entry for %s, got %d", id, total)
		}
	}

	// The session must still be payable after a failed attempt.
	if _, ok := s.settled["x"]; ok {
		t.Fatalf("failed transfer must not mark the session settled")
	}
}

func TestLedger_Transfer_UnknownUser(t *testing.T) {
	s := NewStore()
	a := seedUser(t, s, "a@example.com", 5)

	_, _, err := s.Ledger().Transfer(context.Background(), ports.TransferRecord{FromUserID: a, ToUserID: "ghost", Amount: 1})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if bal, _ := s.Ledger().Balance(context.Background(), a); bal != 5 {
		t.Fatalf("balance changed to %d", bal)
	}
}

func TestLedger_Transfer_SessionSettledOnce(t *testing.T) {
	s := NewStore()
	a := seedUser(t, s, "a@example.com", 5)
	b := seedUser(t, s, "b@example.com", 0)

	rec := ports.TransferRecord{FromUserID: a, ToUserID: b, Amount: 2, SessionID: "sess-1"}
	if _, _, err := s.Ledger().Transfer(context.Background(), rec); err != nil {
		t.Fatalf("first transfer: %v", err)
	}
	if _, _, err := s.Ledger().Transfer(context.Background(), rec); !errors.Is(err, domain.ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}
	if bal, _ := s.Ledger().Balance(context.Background(), a); bal != 3 {
		t.Fatalf("expected 3, got %d", bal)
	}
}

func TestLedger_ConcurrentTransfersConserveCredits(t *testing.T) {
	s := NewStore()
	ids := []string{
		seedUser(t, s, "a@example.com", 10),
		seedUser(t, s, "b@example.com", 10),
		seedUser(t, s, "c@example.com", 10),
	}
	before := totalCredits(s)

	var wg sync.WaitGroup
	for i := 0; i < 300; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from := ids[i%3]
			to := ids[(i+1)%3]
			_, _, _ = s.Ledger().Transfer(context.Background(), ports.TransferRecord{
				FromUserID: from, ToUserID: to, Amount: 1 + i%3, At: time.Now(),
			})
		}(i)
	}
	wg.Wait()

	if after := totalCredits(s); after != before {
		t.Fatalf("credits not conserved: before %d, after %d", before, after)
	}

	// Replaying each history must reproduce the balance and every running total.
	for _, id := range ids {
		items, _, _ := s.Ledger().History(context.Background(), id, 1, 10_000)
		sum := 0
		for i := len(items) - 1; i >= 0; i-- {
			sum += items[i].Amount
			if items[i].BalanceAfter != sum {
				t.Fatalf("running balance mismatch for %s: want %d, got %d", id, sum, items[i].BalanceAfter)
			}
			if sum < 0 {
				t.Fatalf("balance of %s went negative", id)
			}
		}
		bal, _ := s.Ledger().Balance(context.Background(), id)
		if bal != sum {
			t.Fatalf("replayed balance %d != stored %d", sum, bal)
		}
	}
}

func TestLedger_History_NewestFirstAndPaginated(t *testing.T) {
	s := NewStore()
	a := seedUser(t, s, "a@example.com", 10)
	b := seedUser(t, s, "b@example.com", 0)

	for i := 1; i <= 3; i++ {
		if _, _, err := s.Ledger().Transfer(context.Background(), ports.TransferRecord{FromUserID: a, ToUserID: b, Amount: i}); err != nil {
			t.Fatalf("transfer %d: %v", i, err)
		}
	}

	items, total, err := s.Ledger().History(context.Background(), a, 1, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected total 4, got %d", total)
	}
	if len(items) != 2 || items[0].Amount != -3 || items[1].Amount != -2 {
		t.Fatalf("unexpected first page: %+v", items)
	}

	items, _, _ = s.Ledger().History(context.Background(), a, 2, 2)
	if len(items) != 2 || items[1].Kind != domain.KindInitial {
		t.Fatalf("expected initial grant last, got %+v", items)
	}

	items, _, _ = s.Ledger().History(context.Background(), a, 5, 2)
	if len(items) != 0 {
		t.Fatalf("expected empty page, got %d items", len(items))
	}
}
