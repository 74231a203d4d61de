package domain

import "time"

type User struct {
	ID             string // UUID
	Email          string // lowercased, unique
	PasswordHash   string // argon2 encoded
	EmailConfirmed *time.Time // Timestamp when the email was confirmed (nullable)
	MFAEnabled     *time.Time // Timestamp when MFA was enabled (nullable)
	MFASecret      *string    // TOTP secret (nullable, base32 encoded)
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsEmailConfirmed reports whether the account may sign in.
func (u *User) IsEmailConfirmed() bool {
	return u.EmailConfirmed != nil
}

// IsMFAEnabled reports whether sign in requires a second factor.
func (u *User) IsMFAEnabled() bool {
	return u.MFAEnabled != nil
}
