package memory

import (
	"context"
	"time"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
)

type LedgerRepository struct {
	s *Store
}

func (r *LedgerRepository) GrantInitial(_ context.Context, userID string, amount int, at time.Time) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if len(r.s.txByUser[userID]) > 0 {
		return nil, domain.ErrAlreadyGranted
	}

	u.Credits = amount
	u.UpdatedAt = at
	r.s.users[userID] = u

	tx := domain.Transaction{
		ID:           r.s.newID(),
		UserID:       userID,
		Amount:       amount,
		Kind:         domain.KindInitial,
		Description:  domain.DescInitialGrant,
		BalanceAfter: amount,
		CreatedAt:    at,
	}
	r.s.txByUser[userID] = append(r.s.txByUser[userID], tx)
	return &tx, nil
}

func (r *LedgerRepository) Balance(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	return u.Credits, nil
}

// Transfer validates everything before touching state, so a failed call
// leaves balances and history unchanged.
func (r *LedgerRepository) Transfer(_ context.Context, rec ports.TransferRecord) (*domain.Transaction, *domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	from, ok := r.s.users[rec.FromUserID]
	if !ok {
		return nil, nil, domain.ErrUserNotFound
	}
	to, ok := r.s.users[rec.ToUserID]
	if !ok {
		return nil, nil, domain.ErrUserNotFound
	}
	if rec.SessionID != "" {
		if _, done := r.s.settled[rec.SessionID]; done {
			return nil, nil, domain.ErrAlreadySettled
		}
	}
	if from.Credits < rec.Amount {
		return nil, nil, domain.ErrInsufficientFunds
	}

	from.Credits -= rec.Amount
	from.UpdatedAt = rec.At
	to.Credits += rec.Amount
	to.UpdatedAt = rec.At
	r.s.users[from.ID] = from
	r.s.users[to.ID] = to

	debit := domain.Transaction{
		ID:           r.s.newID(),
		UserID:       from.ID,
		Amount:       -rec.Amount,
		Kind:         domain.KindDebit,
		SessionID:    rec.SessionID,
		Description:  domain.DescSessionDebit,
		BalanceAfter: from.Credits,
		CreatedAt:    rec.At,
	}
	credit := domain.Transaction{
		ID:           r.s.newID(),
		UserID:       to.ID,
		Amount:       rec.Amount,
		Kind:         domain.KindCredit,
		SessionID:    rec.SessionID,
		Description:  domain.DescSessionCred,
		BalanceAfter: to.Credits,
		CreatedAt:    rec.At,
	}
	r.s.txByUser[from.ID] = append(r.s.txByUser[from.ID], debit)
	r.s.txByUser[to.ID] = append(r.s.txByUser[to.ID], credit)
	if rec.SessionID != "" {
		r.s.settled[rec.SessionID] = struct{}{}
	}
	return &debit, &credit, nil
}

// History returns entries newest first. Entries are kept in insertion order,
// which breaks ties between identical timestamps.
func (r *LedgerRepository) History(_ context.Context, userID string, page, limit int) ([]*domain.Transaction, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all := r.s.txByUser[userID]
	start, end := paginate(len(all), page, limit)
	out := make([]*domain.Transaction, 0, end-start)
	for i := start; i < end; i++ {
		tx := all[len(all)-1-i]
		out = append(out, &tx)
	}
	return out, int64(len(all)), nil
}
