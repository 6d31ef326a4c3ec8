package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
	"github.com/tempoedu/skillswap/internal/pkg/metrics"
)

const (
	defaultHistoryPage  = 1
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type ledgerService struct {
	repo ports.LedgerRepository
	log  zerolog.Logger
	now  func() time.Time
}

// NewLedgerService returns a LedgerService backed by repo.
func NewLedgerService(repo ports.LedgerRepository, log zerolog.Logger) ports.LedgerService {
	return &ledgerService{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// GrantInitial seeds a fresh account. A second grant for the same user is
// rejected with domain.ErrAlreadyGranted.
func (s *ledgerService) GrantInitial(ctx context.Context, userID string, amount int) error {
	if userID == "" {
		return domain.ValidationError("user id is required")
	}
	if amount < 0 {
		return domain.ValidationError("initial amount must not be negative")
	}

	tx, err := s.repo.GrantInitial(ctx, userID, amount, s.now())
	if err != nil {
		return fmt.Errorf("grant initial credits: %w", err)
	}

	s.log.Info().Str("user_id", userID).Int("amount", amount).Str("tx_id", tx.ID).Msg("initial credits granted")
	return nil
}

// HasSufficientBalance reports whether userID can afford amount. An unknown
// user simply cannot afford anything.
func (s *ledgerService) HasSufficientBalance(ctx context.Context, userID string, amount int) (bool, error) {
	if amount <= 0 {
		return false, domain.ValidationError("amount must be positive")
	}
	balance, err := s.repo.Balance(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check balance: %w", err)
	}
	return balance >= amount, nil
}

// Transfer moves amount credits from one account to another as a single
// atomic unit, recording one debit and one credit entry tagged with sessionID.
func (s *ledgerService) Transfer(ctx context.Context, fromUserID, toUserID string, amount int, sessionID string) error {
	if amount <= 0 {
		return domain.ValidationError("amount must be positive")
	}
	if fromUserID == "" || toUserID == "" {
		return domain.ValidationError("both accounts are required")
	}
	if fromUserID == toUserID {
		return domain.ValidationError("cannot transfer to the same account")
	}

	debit, credit, err := s.repo.Transfer(ctx, ports.TransferRecord{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Amount:     amount,
		SessionID:  sessionID,
		At:         s.now(),
	})
	if err != nil {
		metrics.LedgerTransfersTotal.WithLabelValues(transferResult(err)).Inc()
		return fmt.Errorf("transfer credits: %w", err)
	}

	metrics.LedgerTransfersTotal.WithLabelValues("ok").Inc()
	metrics.LedgerCreditsMovedTotal.Add(float64(amount))

	s.log.Info().
		Str("from", fromUserID).
		Str("to", toUserID).
		Int("amount", amount).
		Str("session_id", sessionID).
		Int("from_balance", debit.BalanceAfter).
		Int("to_balance", credit.BalanceAfter).
		Msg("credits transferred")
	return nil
}

func (s *ledgerService) Balance(ctx context.Context, userID string) (int, error) {
	balance, err := s.repo.Balance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// History returns the user's ledger entries, newest first.
func (s *ledgerService) History(ctx context.Context, userID string, page, limit int) (*ports.HistoryResult, error) {
	page, limit = normalizePage(page, limit)

	items, total, err := s.repo.History(ctx, userID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	return &ports.HistoryResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

func transferResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrAlreadySettled):
		return "already_settled"
	default:
		return "error"
	}
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = defaultHistoryPage
	}
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
