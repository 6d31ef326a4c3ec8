package ports

import (
	"context"
	"time"

	"github.com/tempoedu/skillswap/internal/core/domain"
)

// UserRepository defines account persistence. Credits are never written here;
// balance mutation belongs to LedgerRepository.
type UserRepository interface {
	// Create stores a new user with zero credits. Returns domain.ErrUserExists
	// when the email is already registered.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
}
