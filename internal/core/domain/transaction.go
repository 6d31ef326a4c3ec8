package domain

import "time"

// TransactionKind classifies a ledger entry.
type TransactionKind string

const (
	KindInitial TransactionKind = "initial"
	KindCredit  TransactionKind = "credit"
	KindDebit   TransactionKind = "debit"
)

// Transaction is an immutable ledger entry. Amount is signed: positive for
// credits, negative for debits. BalanceAfter is the running balance of UserID
// once this entry has been applied.
type Transaction struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Amount       int             `json:"amount"`
	Kind         TransactionKind `json:"kind"`
	SessionID    string          `json:"session_id,omitempty"`
	Description  string          `json:"description"`
	BalanceAfter int             `json:"balance_after"`
	CreatedAt    time.Time       `json:"created_at"`
}

const (
	DescInitialGrant = "Initial credits granted on registration"
	DescSessionDebit = "Credits spent for session"
	DescSessionCred  = "Credits earned from session"
)
