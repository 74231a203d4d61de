package store

import (
	"context"
	"errors"
	"time"

	"github.com/nexusai/careerid/internal/identity/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// UserFilter narrows the admin user listing.
type UserFilter struct {
	// AfterID is an exclusive pagination cursor over users.id.
	AfterID string

	// Limit caps the page size. Zero means the driver default.
	Limit int
}

// AuditFilter narrows the audit trail listing.
type AuditFilter struct {
	// TargetUserID restricts entries to one affected user.
	TargetUserID string

	// AfterID is an exclusive pagination cursor over entries ordered newest first.
	AfterID string

	// Limit caps the page size. Zero means the driver default.
	Limit int
}

// UserRow joins a user with its role and profile for the admin listing.
type UserRow struct {
	User    domain.User
	Role    string
	Profile domain.Profile
}

// Store is the root data access interface. Concrete drivers implement this.
// It exposes sub-repositories to keep concerns tidy and testable, and to
// actively stop callers from accidentally nesting transactions.
type Store interface {
	Users() Users
	Profiles() Profiles
	Roles() Roles
	RefreshTokens() RefreshTokens
	MFAChallenges() MFAChallenges
	MFAEnrollments() MFAEnrollments
	BackupCodes() BackupCodes
	EmailTokens() EmailTokens
	AuditLog() AuditLog

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction. If fn returns an
	// error, the transaction is rolled back; otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during sign in. Email comparison is on the
	// stored lowercase form.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via UUID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// ConfirmEmail sets email_confirmed_at if not already set.
	ConfirmEmail(ctx context.Context, userID string, at time.Time) error

	// UpdateMFASecret sets the TOTP secret for a user.
	UpdateMFASecret(ctx context.Context, userID string, secret string) error

	// EnableMFA marks MFA as enabled (sets mfa_enabled_at).
	EnableMFA(ctx context.Context, userID string) error

	// DisableMFA clears mfa_enabled_at and mfa_secret.
	DisableMFA(ctx context.Context, userID string) error

	// DeleteUser removes the account. Cascades to profile, role, tokens,
	// MFA state and backup codes per schema; audit entries are kept.
	DeleteUser(ctx context.Context, userID string) error

	// ListUsers returns a page of users with role and profile joined,
	// ordered by id for stable pagination.
	ListUsers(ctx context.Context, f UserFilter) ([]UserRow, error)

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Profiles interface {
	// GetProfile returns the profile for a user.
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)

	// CreateProfile inserts the profile row alongside account creation.
	CreateProfile(ctx context.Context, p domain.Profile) error

	// UpdateProfile replaces the user-editable columns and bumps
	// updated_at. Keyed by p.UserID; email and created_at never change.
	UpdateProfile(ctx context.Context, p domain.Profile) error
}

type Roles interface {
	// GetRole returns the role assigned to a user.
	GetRole(ctx context.Context, userID string) (string, error)

	// SetRole inserts or replaces a user's single role row.
	SetRole(ctx context.Context, userID string, role string) error

	// HasAdmin returns true if any user holds the admin role.
	HasAdmin(ctx context.Context) (bool, error)

	// CountAdmins returns the number of users holding the admin role.
	CountAdmins(ctx context.Context) (int, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked=1, sets updated_at.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// RevokeAllUserRefreshTokens bulk revocation for a user (password reset,
	// role change, deletion).
	RevokeAllUserRefreshTokens(ctx context.Context, userID string) error

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context) error
}

type MFAChallenges interface {
	// CreateMFAChallenge creates a pending sign-in challenge.
	CreateMFAChallenge(ctx context.Context, c domain.MFAChallenge) error

	// GetMFAChallenge retrieves a challenge by id (only if not expired).
	GetMFAChallenge(ctx context.Context, id string) (domain.MFAChallenge, error)

	// IncrementMFAChallengeAttempts bumps the failed attempt counter and
	// returns the updated challenge.
	IncrementMFAChallengeAttempts(ctx context.Context, id string) (domain.MFAChallenge, error)

	// DeleteMFAChallenge removes a challenge (consumed or abandoned).
	DeleteMFAChallenge(ctx context.Context, id string) error

	// DeleteExpiredMFAChallenges is housekeeping.
	DeleteExpiredMFAChallenges(ctx context.Context) error
}

type MFAEnrollments interface {
	// CreateMFAEnrollment stores a provisioned-but-unverified TOTP secret.
	CreateMFAEnrollment(ctx context.Context, e domain.MFAEnrollment) error

	// GetMFAEnrollment retrieves a pending enrollment by id (only if not expired).
	GetMFAEnrollment(ctx context.Context, id string) (domain.MFAEnrollment, error)

	// DeleteMFAEnrollment removes a pending enrollment.
	DeleteMFAEnrollment(ctx context.Context, id string) error

	// DeleteUserMFAEnrollments removes all pending enrollments for a user.
	DeleteUserMFAEnrollments(ctx context.Context, userID string) error

	// DeleteExpiredMFAEnrollments is housekeeping.
	DeleteExpiredMFAEnrollments(ctx context.Context) error
}

type BackupCodes interface {
	// CreateBackupCode stores a backup code fingerprint for a user.
	CreateBackupCode(ctx context.Context, c domain.BackupCode) error

	// ConsumeBackupCode marks an unused code as used. Returns ErrNotFound
	// when no unused code with that fingerprint exists.
	ConsumeBackupCode(ctx context.Context, userID string, codeHash string) error

	// DeleteAllBackupCodes removes all backup codes for a user.
	DeleteAllBackupCodes(ctx context.Context, userID string) error

	// CountUnusedBackupCodes returns the number of remaining codes.
	CountUnusedBackupCodes(ctx context.Context, userID string) (int, error)
}

type EmailTokens interface {
	// CreateEmailToken stores a confirmation or reset token fingerprint.
	CreateEmailToken(ctx context.Context, t domain.EmailToken) error

	// GetActiveEmailToken returns a not-used, not-expired token by purpose
	// and fingerprint.
	GetActiveEmailToken(ctx context.Context, purpose, tokenHash string) (domain.EmailToken, error)

	// MarkEmailTokenUsed sets used_at (transaction-friendly).
	MarkEmailTokenUsed(ctx context.Context, id string, at time.Time) error

	// DeleteUserEmailTokens invalidates outstanding tokens for a user and
	// purpose, e.g. before issuing a replacement.
	DeleteUserEmailTokens(ctx context.Context, userID, purpose string) error

	// DeleteExpiredEmailTokens is housekeeping.
	DeleteExpiredEmailTokens(ctx context.Context) error
}

type AuditLog interface {
	// CreateAuditEntry appends one administrative action record.
	CreateAuditEntry(ctx context.Context, e domain.AuditEntry) error

	// ListAuditEntries returns a page of entries, newest first.
	ListAuditEntries(ctx context.Context, f AuditFilter) ([]domain.AuditEntry, error)

	// CountAuditEntries returns the total number of entries matching the filter.
	CountAuditEntries(ctx context.Context, f AuditFilter) (int, error)
}
