package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User models an account holder. Credits is owned by the ledger: it is only
// ever written through LedgerRepository operations.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Credits      int        `json:"credits"`
	Suspended    bool       `json:"suspended"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Claims is the identity extracted from a verified access token.
type Claims struct {
	UserID string
	Email  string
	Role   string
}
