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

func TestSignUpCreatesAccountProfileAndRole(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st, newCaptureMailer())

	u := mustSignUp(t, svc, "Alice@Example.com", "password123", "Alice Smith")

	// Email is normalized to lowercase.
	require.Equal(t, "alice@example.com", u.Email)
	require.True(t, u.IsEmailConfirmed(), "auto-confirmed when confirmation is not required")

	profile, err := st.Profiles().GetProfile(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Alice Smith", profile.FullName)

	role, err := st.Roles().GetRole(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleClient, role)
}

func TestSignUpRejectsBadInput(t *testing.T) {
	st := newTestStore(t)
	svc := newAuthService(t, st, newCaptureMailer())

	_, err := svc.SignUp(context.Background(), "not-an-email", "password123", "")
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.SignUp(context.Background(), "short@example.com", "short", "")
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	st := newTestStore(t)
	svc := newAuthService(t, st, newCaptureMailer())

	mustSignUp(t, svc, "alice@example.com", "password123", "Alice")

	_, err := svc.SignUp(context.Background(), "ALICE@example.com", "password456", "Other Alice")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignInReturnsTokenPair(t *testing.T) {
	st := newTestStore(t)
	svc := newAuthService(t, st, newCaptureMailer())

	mustSignUp(t, svc, "alice@example.com", "password123", "Alice")

	pair, err := svc.SignIn(context.Background(), "alice@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)
	require.Equal(t, "profile:read profile:write", pair.Scope)

	// Only the fingerprint is stored; a plaintext lookup finds nothing.
	_, err = st.RefreshTokens().GetRefreshTokenByHash(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	st := newTestStore(t)
	svc := newAuthService(t, st, newCaptureMailer())

	mustSignUp(t, svc, "alice@example.com", "password123", "Alice")

	_, err := svc.SignIn(context.Background(), "alice@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(context.Background(), "nobody@example.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignInRequiresConfirmedEmail(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := newCaptureMailer()
	svc := newAuthService(t, st, mailer)
	svc.RequireEmailConfirmation = true

	u, err := svc.SignUp(ctx, "alice@example.com", "password123", "Alice")
	require.NoError(t, err)
	require.False(t, u.IsEmailConfirmed())

	_, err = svc.SignIn(ctx, "alice@example.com", "password123")
	require.ErrorIs(t, err, ErrEmailNotConfirmed)

	token := mailer.confirmTokens["alice@example.com"]
	require.NotEmpty(t, token, "confirmation token should have been issued")
	require.NoError(t, svc.ConfirmEmail(ctx, token))

	_, err = svc.SignIn(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	// The token burns on first use.
	require.ErrorIs(t, svc.ConfirmEmail(ctx, token), ErrInvalidEmailToken)
}

func TestResendConfirmationIsSilentForUnknownEmail(t *testing.T) {
	st := newTestStore(t)
	svc := newAuthService(t, st, newCaptureMailer())
	svc.RequireEmailConfirmation = true

	require.NoError(t, svc.ResendConfirmation(context.Background(), "nobody@example.com"))
}

func TestSignInOpensMFAChallenge(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st, newCaptureMailer())

	u := mustSignUp(t, svc, "alice@example.com", "password123", "Alice")
	secret := enableMFA(t, st, u.ID)

	_, err := svc.SignIn(ctx, "alice@example.com", "password123")
	var mfaErr *MFARequiredError
	require.ErrorAs(t, err, &mfaErr)
	require.NotEmpty(t, mfaErr.ChallengeID)
	require.Contains(t, mfaErr.Methods, domain.MFAMethodTOTP)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	pair, err := svc.CompleteMFAChallenge(ctx, mfaErr.ChallengeID, code)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	// Challenges are single use.
	_, err = svc.CompleteMFAChallenge(ctx, mfaErr.ChallengeID, code)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCompleteMFAChallengeCapsAttempts(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st, newCaptureMailer())
	svc.MaxMFAAttempts = 3

	u := mustSignUp(t, svc, "alice@example.com", "password123", "Alice")
	secret := enableMFA(t, st, u.ID)

	_, err := svc.SignIn(ctx, "alice@example.com", "password123")
	var mfaErr *MFARequiredError
	require.ErrorAs(t, err, &mfaErr)

	// A code minted an hour ago is outside the validation skew.
	staleCode, err := totp.GenerateCode(secret, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	for range 3 {
		_, err = svc.CompleteMFAChallenge(ctx, mfaErr.ChallengeID, staleCode)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err = svc.CompleteMFAChallenge(ctx, mfaErr.ChallengeID, staleCode)
	require.ErrorIs(t, err, ErrTooManyAttempts)

	// The challenge is destroyed; even a valid code no longer works.
	goodCode, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	_, err = svc.CompleteMFAChallenge(ctx, mfaErr.ChallengeID, goodCode)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st, newCaptureMailer())

	mustSignUp(t, svc, "alice@example.com", "password123", "Alice")

	pair, err := svc.SignIn(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The old token is revoked by rotation.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// The new one still works.
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	st := newTestStore(t)
	svc := newAuthService(t, st, newCaptureMailer())

	_, err := svc.Refresh(context.Background(), "made-up-token")
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestSignOutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st, newCaptureMailer())

	mustSignUp(t, svc, "alice@example.com", "password123", "Alice")

	pair, err := svc.SignIn(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, pair.RefreshToken))
	require.NoError(t, svc.SignOut(ctx, pair.RefreshToken))
	require.NoError(t, svc.SignOut(ctx, "never-issued"))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	mailer := newCaptureMailer()
	svc := newAuthService(t, st, mailer)

	mustSignUp(t, svc, "alice@example.com", "password123", "Alice")

	pair, err := svc.SignIn(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))
	token := mailer.resetTokens["alice@example.com"]
	require.NotEmpty(t, token)

	require.NoError(t, svc.ResetPassword(ctx, token, "new-password-456"))

	// Old password stops working, new one signs in.
	_, err = svc.SignIn(ctx, "alice@example.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.SignIn(ctx, "alice@example.com", "new-password-456")
	require.NoError(t, err)

	// Existing sessions are revoked.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	// The reset token burns on first use.
	require.ErrorIs(t, svc.ResetPassword(ctx, token, "another-password"), ErrInvalidEmailToken)
}

func TestRequestPasswordResetIsSilentForUnknownEmail(t *testing.T) {
	st := newTestStore(t)
	mailer := newCaptureMailer()
	svc := newAuthService(t, st, mailer)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "nobody@example.com"))
	require.Empty(t, mailer.resetTokens)
}

func TestSessionEventsNotifyListeners(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newAuthService(t, st, newCaptureMailer())

	var events []SessionEvent
	svc.Subscribe(func(ev SessionEvent) { events = append(events, ev) })

	u := mustSignUp(t, svc, "alice@example.com", "password123", "Alice")
	require.Empty(t, events, "sign-up alone is not a session change")

	pair, err := svc.SignIn(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, SessionEvent{Type: EventSignIn, UserID: u.ID}, events[0])

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, SessionEvent{Type: EventRefresh, UserID: u.ID}, events[1])

	require.NoError(t, svc.SignOut(ctx, rotated.RefreshToken))
	require.Len(t, events, 3)
	require.Equal(t, SessionEvent{Type: EventSignOut, UserID: u.ID}, events[2])

	// Revoking the same token again stays silent.
	require.NoError(t, svc.SignOut(ctx, rotated.RefreshToken))
	require.Len(t, events, 3)

	// Later subscribers see later events only.
	var late []SessionEvent
	svc.Subscribe(func(ev SessionEvent) { late = append(late, ev) })
	_, err = svc.SignIn(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	require.Len(t, events, 4)
	require.Len(t, late, 1)
	require.Equal(t, EventSignIn, late[0].Type)
}
