package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy roots. Every error returned by the core wraps one of these so
// transports can map them without knowing the concrete variant.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("access forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInsufficientFunds = errors.New("insufficient credits")
	ErrConflict          = errors.New("conflict")
	ErrUnauthenticated   = errors.New("unauthenticated")
)

var (
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrSessionNotFound      = fmt.Errorf("session %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)

	ErrNotParticipant = fmt.Errorf("%w: not a participant of this session", ErrForbidden)
	ErrSelfBooking    = fmt.Errorf("%w: cannot book a session with yourself", ErrValidation)
	ErrNotCompleted   = fmt.Errorf("%w: session is not completed yet", ErrValidation)

	ErrUserExists     = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrAlreadySettled = fmt.Errorf("%w: session credits already transferred", ErrConflict)
	ErrAlreadyGranted = fmt.Errorf("%w: initial credits already granted", ErrConflict)
	ErrReviewExists   = fmt.Errorf("%w: session already reviewed", ErrConflict)
	ErrStaleSession   = fmt.Errorf("%w: session changed concurrently", ErrInvalidTransition)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	ErrAccountSuspended   = fmt.Errorf("%w: account is suspended", ErrUnauthenticated)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", ErrUnauthenticated)

	ErrRoomFull = fmt.Errorf("%w: room is full", ErrConflict)
)

// ValidationError builds an ErrValidation carrying a human readable reason.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
