package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/core/ports"
)

const minPasswordLength = 6

// AuthService implements registration, login and profile lookup.
type AuthService struct {
	users          ports.UserRepository
	ledger         ports.LedgerService
	tokens         *JWTManager
	initialCredits int
	log            zerolog.Logger
	now            func() time.Time
}

func NewAuthService(
	users ports.UserRepository,
	ledger ports.LedgerService,
	tokens *JWTManager,
	initialCredits int,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:          users,
		ledger:         ledger,
		tokens:         tokens,
		initialCredits: initialCredits,
		log:            log,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an account and seeds it with the initial credit grant.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (string, *domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", nil, domain.ValidationError("invalid email")
	}
	if len(in.Password) < minPasswordLength {
		return "", nil, domain.ValidationError("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	now := s.now()
	user := &domain.User{
		Email:        email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return "", nil, err
	}

	if err := s.ledger.GrantInitial(ctx, created.ID, s.initialCredits); err != nil {
		s.log.Error().Err(err).Str("user_id", created.ID).Msg("initial credit grant failed")
		return "", nil, fmt.Errorf("register: %w", err)
	}
	created.Credits = s.initialCredits

	token, err := s.tokens.Issue(created)
	if err != nil {
		return "", nil, err
	}

	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	return token, created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if user.Suspended {
		return "", nil, domain.ErrAccountSuspended
	}

	now := s.now()
	if err := s.users.TouchLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	} else {
		user.LastLoginAt = &now
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}
