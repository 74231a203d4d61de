package domain

import "time"

// MFAChallenge is a pending second-factor step created after a correct
// password for an MFA-enabled account. It is single use: consumed on
// success, deleted after too many failures or on expiry.
type MFAChallenge struct {
	ID        string // ULID (the challenge_id handed to the client)
	UserID    string
	SessionID string   // SID for the refresh token minted on success
	Scopes    []string // scopes the eventual tokens will carry
	AMR       []string // methods already satisfied (e.g. ["pwd"])
	Attempts  int      // failed verification attempts so far
	CreatedAt time.Time
	ExpiresAt time.Time
}

// MFAEnrollment is a provisioned-but-unverified TOTP secret. The account's
// MFA state only flips once the user proves possession with a valid code.
type MFAEnrollment struct {
	ID        string // ULID (the enrollment_id)
	UserID    string
	Secret    string // base32 encoded TOTP secret
	CreatedAt time.Time
	ExpiresAt time.Time
}

// BackupCode is a stored recovery code fingerprint. Plaintext codes are
// shown to the user exactly once at enrollment.
type BackupCode struct {
	ID        string // ULID
	UserID    string
	CodeHash  string // base64url SHA-256 fingerprint
	UsedAt    *time.Time
	CreatedAt time.Time
}

// MFAEnrollmentOffer is the provisioning material handed to the user when
// enrollment begins. Secret and URL are never persisted in this form.
type MFAEnrollmentOffer struct {
	EnrollmentID string
	Secret       string // base32 encoded
	OTPAuthURL   string // otpauth:// provisioning URI
}

// MFA method names as surfaced to clients.
const (
	MFAMethodTOTP        = "totp"
	MFAMethodBackupCodes = "backup_codes"
)
