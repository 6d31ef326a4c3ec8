package ports

import (
	"context"

	"github.com/tempoedu/skillswap/internal/core/domain"
)

// RegisterInput carries the data needed to open an account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
}

// TokenVerifier validates a bearer token and extracts the caller identity.
// It is shared by the REST middleware and the signaling gateway.
type TokenVerifier interface {
	Verify(token string) (*domain.Claims, error)
}
