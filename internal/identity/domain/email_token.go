package domain

import "time"

// Email token purposes.
const (
	EmailTokenConfirm       = "confirm"
	EmailTokenPasswordReset = "password_reset"
)

// EmailToken is a single-use token delivered by email, stored as a
// fingerprint. Used for both address confirmation and password resets.
type EmailToken struct {
	ID        string // ULID
	UserID    string
	Purpose   string // EmailTokenConfirm or EmailTokenPasswordReset
	TokenHash string // base64url SHA-256 fingerprint
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
