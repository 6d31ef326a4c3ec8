package ports

import (
	"context"
	"time"

	"github.com/tempoedu/skillswap/internal/core/domain"
)

// TransferRecord describes a credit movement between two accounts.
type TransferRecord struct {
	FromUserID string
	ToUserID   string
	Amount     int
	SessionID  string
	At         time.Time
}

// LedgerRepository owns balances and the append-only transaction log. Every
// mutating method is a single atomic unit: balances and log entries are
// written together or not at all.
type LedgerRepository interface {
	// GrantInitial sets the balance of an account with no history and records
	// one initial transaction. Returns domain.ErrAlreadyGranted when the
	// account already has ledger entries.
	GrantInitial(ctx context.Context, userID string, amount int, at time.Time) (*domain.Transaction, error)

	// Balance returns the current credits of userID.
	Balance(ctx context.Context, userID string) (int, error)

	// Transfer debits FromUserID and credits ToUserID, inserting one debit and
	// one credit entry. Returns domain.ErrInsufficientFunds, domain.ErrUserNotFound,
	// or domain.ErrAlreadySettled when SessionID was already transferred.
	Transfer(ctx context.Context, rec TransferRecord) (debit, credit *domain.Transaction, err error)

	// History returns a page of entries for userID, newest first, and the total count.
	History(ctx context.Context, userID string, page, limit int) ([]*domain.Transaction, int64, error)
}
