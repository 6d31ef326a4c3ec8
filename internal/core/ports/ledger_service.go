package ports

import (
	"context"

	"github.com/tempoedu/skillswap/internal/core/domain"
)

// HistoryResult is a page of ledger entries.
type HistoryResult struct {
	Items      []*domain.Transaction
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// LedgerService is the only sanctioned path for credit balance mutation.
type LedgerService interface {
	GrantInitial(ctx context.Context, userID string, amount int) error
	HasSufficientBalance(ctx context.Context, userID string, amount int) (bool, error)
	Transfer(ctx context.Context, fromUserID, toUserID string, amount int, sessionID string) error
	Balance(ctx context.Context, userID string) (int, error)
	History(ctx context.Context, userID string, page, limit int) (*HistoryResult, error)
}
