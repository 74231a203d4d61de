package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nexusai/careerid/internal/identity/domain"
	"github.com/nexusai/careerid/internal/identity/store"
	"github.com/nexusai/careerid/pkg/cryptox"
	"github.com/nexusai/careerid/pkg/idx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	backupCodeCount = 10                   // Number of backup codes to generate
	backupCodeBytes = cryptox.TokenSize128 // 128-bit entropy for backup codes

	// DefaultEnrollmentTTL bounds how long a provisioned secret waits for
	// verification before it is discarded.
	DefaultEnrollmentTTL = 15 * time.Minute
)

var (
	ErrInvalidTOTPCode   = errors.New("invalid TOTP code")
	ErrMFANotEnabled     = errors.New("MFA not enabled for this user")
	ErrMFAAlreadyEnabled = errors.New("MFA already enabled for this user")
	ErrUnknownEnrollment = errors.New("unknown or expired enrollment")
)

// MFAService handles TOTP enrollment lifecycle. Sign-in verification lives
// in AuthService; this service only flips accounts in and out of MFA.
type MFAService struct {
	Store  store.Store
	Issuer string // Issuer name for TOTP provisioning (e.g., "CareerID")

	// EnrollmentTTL bounds pending enrollments; zero means DefaultEnrollmentTTL.
	EnrollmentTTL time.Duration
}

func (s *MFAService) enrollmentTTL() time.Duration {
	if s.EnrollmentTTL > 0 {
		return s.EnrollmentTTL
	}
	return DefaultEnrollmentTTL
}

// BeginEnrollment provisions a TOTP secret for the user. The account's MFA
// state does not change until the user proves possession via VerifyEnrollment.
func (s *MFAService) BeginEnrollment(ctx context.Context, userID string) (domain.MFAEnrollmentOffer, error) {
	now := time.Now().UTC()

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.MFAEnrollmentOffer{}, err
	}
	if u.IsMFAEnabled() {
		return domain.MFAEnrollmentOffer{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: u.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.MFAEnrollmentOffer{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	enrollment := domain.MFAEnrollment{
		ID:        idx.New().String(),
		UserID:    userID,
		Secret:    key.Secret(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.enrollmentTTL()),
	}
	if err := s.Store.MFAEnrollments().CreateMFAEnrollment(ctx, enrollment); err != nil {
		return domain.MFAEnrollmentOffer{}, err
	}

	return domain.MFAEnrollmentOffer{
		EnrollmentID: enrollment.ID,
		Secret:       key.Secret(),
		OTPAuthURL:   key.URL(),
	}, nil
}

// VerifyEnrollment activates MFA once the user submits a valid code for the
// pending enrollment. Returns the plaintext backup codes; only their
// fingerprints are stored, so this is the one chance to save them.
func (s *MFAService) VerifyEnrollment(ctx context.Context, userID, enrollmentID, code string) ([]string, error) {
	now := time.Now().UTC()

	enrollment, err := s.Store.MFAEnrollments().GetMFAEnrollment(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownEnrollment
		}
		return nil, err
	}
	if enrollment.UserID != userID {
		return nil, ErrUnknownEnrollment
	}

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.IsMFAEnabled() {
		return nil, ErrMFAAlreadyEnabled
	}

	if !totp.Validate(code, enrollment.Secret) {
		return nil, ErrInvalidTOTPCode
	}

	backupCodes := make([]string, backupCodeCount)
	for i := range backupCodeCount {
		c, err := cryptox.GenerateToken(backupCodeBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		backupCodes[i] = c
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateMFASecret(ctx, userID, enrollment.Secret); err != nil {
			return err
		}
		if err := tx.Users().EnableMFA(ctx, userID); err != nil {
			return err
		}
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, userID); err != nil {
			return err
		}
		for _, c := range backupCodes {
			bc := domain.BackupCode{
				ID:        idx.New().String(),
				UserID:    userID,
				CodeHash:  cryptox.FingerprintToken(c),
				CreatedAt: now,
			}
			if err := tx.BackupCodes().CreateBackupCode(ctx, bc); err != nil {
				return err
			}
		}
		// Pending enrollments are spent regardless of which one verified.
		return tx.MFAEnrollments().DeleteUserMFAEnrollments(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	return backupCodes, nil
}

// Unenroll disables MFA after reconfirming the user's password. Backup codes
// and pending enrollments are destroyed with the secret.
func (s *MFAService) Unenroll(ctx context.Context, userID, password string) error {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.IsMFAEnabled() {
		return ErrMFANotEnabled
	}
	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, userID); err != nil {
			return err
		}
		if err := tx.MFAEnrollments().DeleteUserMFAEnrollments(ctx, userID); err != nil {
			return err
		}
		if err := tx.Users().DisableMFA(ctx, userID); err != nil {
			return err
		}
		return tx.AuditLog().CreateAuditEntry(ctx, domain.AuditEntry{
			ID:           idx.New().String(),
			ActorID:      userID,
			Action:       domain.AuditActionMFAUnenroll,
			TargetUserID: userID,
			CreatedAt:    time.Now().UTC(),
		})
	})
}
