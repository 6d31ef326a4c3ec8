// Package memory implements the repository ports on process-local maps. A
// single mutex guards the whole store, so every repository call is atomic
// with respect to every other.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/tempoedu/skillswap/internal/core/domain"
)

type Store struct {
	mu            sync.Mutex
	users         map[string]domain.User
	emails        map[string]string
	txByUser      map[string][]domain.Transaction
	settled       map[string]struct{}
	sessions      map[string]domain.Session
	notifications []domain.Notification
	reviews       []domain.Review
	reviewKeys    map[string]struct{}
	newID         func() string
}

func NewStore() *Store {
	return &Store{
		users:      map[string]domain.User{},
		emails:     map[string]string{},
		txByUser:   map[string][]domain.Transaction{},
		settled:    map[string]struct{}{},
		sessions:   map[string]domain.Session{},
		reviewKeys: map[string]struct{}{},
		newID:      uuid.NewString,
	}
}

func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

func (s *Store) Ledger() *LedgerRepository { return &LedgerRepository{s: s} }

func (s *Store) Sessions() *SessionRepository { return &SessionRepository{s: s} }

func (s *Store) Notifications() *NotificationRepository { return &NotificationRepository{s: s} }

func (s *Store) Reviews() *ReviewRepository { return &ReviewRepository{s: s} }

// paginate returns the bounds of page within n items.
func paginate(n, page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = n
	}
	start := (page - 1) * limit
	if start > n {
		start = n
	}
	end := start + limit
	if end > n {
		end = n
	}
	return start, end
}
