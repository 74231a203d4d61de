package service

import (
	"context"
	"testing"
	"time"

	"github.com/nexusai/careerid/internal/identity/domain"
	"github.com/nexusai/careerid/internal/identity/store"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestEnrollmentLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth := newAuthService(t, st, newCaptureMailer())
	svc := &MFAService{Store: st, Issuer: "test-issuer"}

	u := mustSignUp(t, auth, "alice@example.com", "password123", "Alice")

	offer, err := svc.BeginEnrollment(ctx, u.ID)
	require.NoError(t, err)
	require.NotEmpty(t, offer.EnrollmentID)
	require.NotEmpty(t, offer.Secret)
	require.Contains(t, offer.OTPAuthURL, "otpauth://totp/")
	require.Contains(t, offer.OTPAuthURL, "test-issuer")

	// A wrong code does not activate anything.
	staleCode, err := totp.GenerateCode(offer.Secret, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = svc.VerifyEnrollment(ctx, u.ID, offer.EnrollmentID, staleCode)
	require.ErrorIs(t, err, ErrInvalidTOTPCode)

	fetched, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, fetched.IsMFAEnabled())

	// A live code completes enrollment and hands out backup codes.
	code, err := totp.GenerateCode(offer.Secret, time.Now())
	require.NoError(t, err)
	backupCodes, err := svc.VerifyEnrollment(ctx, u.ID, offer.EnrollmentID, code)
	require.NoError(t, err)
	require.Len(t, backupCodes, 10)

	fetched, err = st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, fetched.IsMFAEnabled())
	require.NotNil(t, fetched.MFASecret)
	require.Equal(t, offer.Secret, *fetched.MFASecret)

	n, err := st.BackupCodes().CountUnusedBackupCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 10, n)

	// The enrollment is spent.
	_, err = svc.VerifyEnrollment(ctx, u.ID, offer.EnrollmentID, code)
	require.ErrorIs(t, err, ErrUnknownEnrollment)
}

func TestBeginEnrollmentRejectsEnabledAccount(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth := newAuthService(t, st, newCaptureMailer())
	svc := &MFAService{Store: st, Issuer: "test-issuer"}

	u := mustSignUp(t, auth, "alice@example.com", "password123", "Alice")
	enableMFA(t, st, u.ID)

	_, err := svc.BeginEnrollment(ctx, u.ID)
	require.ErrorIs(t, err, ErrMFAAlreadyEnabled)
}

func TestVerifyEnrollmentRejectsForeignEnrollment(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth := newAuthService(t, st, newCaptureMailer())
	svc := &MFAService{Store: st, Issuer: "test-issuer"}

	alice := mustSignUp(t, auth, "alice@example.com", "password123", "Alice")
	bob := mustSignUp(t, auth, "bob@example.com", "password123", "Bob")

	offer, err := svc.BeginEnrollment(ctx, alice.ID)
	require.NoError(t, err)

	code, err := totp.GenerateCode(offer.Secret, time.Now())
	require.NoError(t, err)

	_, err = svc.VerifyEnrollment(ctx, bob.ID, offer.EnrollmentID, code)
	require.ErrorIs(t, err, ErrUnknownEnrollment)
}

func TestBackupCodeSignInConsumesCode(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth := newAuthService(t, st, newCaptureMailer())
	svc := &MFAService{Store: st, Issuer: "test-issuer"}

	u := mustSignUp(t, auth, "alice@example.com", "password123", "Alice")

	offer, err := svc.BeginEnrollment(ctx, u.ID)
	require.NoError(t, err)
	code, err := totp.GenerateCode(offer.Secret, time.Now())
	require.NoError(t, err)
	backupCodes, err := svc.VerifyEnrollment(ctx, u.ID, offer.EnrollmentID, code)
	require.NoError(t, err)

	_, err = auth.SignIn(ctx, "alice@example.com", "password123")
	var mfaErr *MFARequiredError
	require.ErrorAs(t, err, &mfaErr)
	require.Contains(t, mfaErr.Methods, domain.MFAMethodBackupCodes)

	pair, err := auth.CompleteMFAChallenge(ctx, mfaErr.ChallengeID, backupCodes[0])
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	n, err := st.BackupCodes().CountUnusedBackupCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 9, n)

	// A consumed code cannot complete a second challenge.
	_, err = auth.SignIn(ctx, "alice@example.com", "password123")
	require.ErrorAs(t, err, &mfaErr)
	_, err = auth.CompleteMFAChallenge(ctx, mfaErr.ChallengeID, backupCodes[0])
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUnenrollRequiresPassword(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth := newAuthService(t, st, newCaptureMailer())
	svc := &MFAService{Store: st, Issuer: "test-issuer"}

	u := mustSignUp(t, auth, "alice@example.com", "password123", "Alice")
	enableMFA(t, st, u.ID)

	require.ErrorIs(t, svc.Unenroll(ctx, u.ID, "wrong-password"), ErrInvalidCredentials)

	require.NoError(t, svc.Unenroll(ctx, u.ID, "password123"))

	fetched, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, fetched.IsMFAEnabled())
	require.Nil(t, fetched.MFASecret)

	// Disabling twice is refused.
	require.ErrorIs(t, svc.Unenroll(ctx, u.ID, "password123"), ErrMFANotEnabled)

	// The unenroll lands in the audit trail.
	entries, err := st.AuditLog().ListAuditEntries(ctx, store.AuditFilter{TargetUserID: u.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, domain.AuditActionMFAUnenroll, entries[0].Action)
}
