package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexusai/careerid/internal/identity/domain"
	"github.com/nexusai/careerid/internal/identity/store"
	"github.com/nexusai/careerid/pkg/cryptox"
	"github.com/nexusai/careerid/pkg/identsdk"
	"github.com/nexusai/careerid/pkg/idx"
	"github.com/nexusai/careerid/pkg/jwtx"
	"github.com/nexusai/careerid/pkg/slogx"
	"github.com/pquerna/otp/totp"
)

const (
	// DefaultMaxMFAAttempts is the number of failed verifications allowed
	// per challenge before it is destroyed.
	DefaultMaxMFAAttempts = 5

	// DefaultChallengeTTL bounds how long a pending second-factor step stays valid.
	DefaultChallengeTTL = 5 * time.Minute

	// DefaultConfirmTokenTTL is the lifetime of email confirmation tokens.
	DefaultConfirmTokenTTL = 24 * time.Hour

	// DefaultResetTokenTTL is the lifetime of password reset tokens.
	DefaultResetTokenTTL = time.Hour

	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8
)

// Session event types delivered to Subscribe listeners.
const (
	EventSignIn  = "sign_in"
	EventRefresh = "refresh"
	EventSignOut = "sign_out"
)

// SessionEvent notifies listeners that a user's session state changed.
// Listeners receive only the user id; profile and role are re-read from the
// store so a stale event can never carry stale authorization data.
type SessionEvent struct {
	Type   string
	UserID string
}

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrEmailNotConfirmed  = errors.New("email_not_confirmed")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrWeakPassword       = errors.New("weak_password")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrInvalidEmailToken  = errors.New("invalid_email_token")
	ErrTooManyAttempts    = errors.New("too_many_attempts")
)

// MFARequiredError is an alias to the SDK's MFARequiredError so services and
// handlers share one type.
type MFARequiredError = identsdk.MFARequiredError

// AuthService implements account registration and the full sign-in flow:
// password check, optional second factor, token minting and rotation.
type AuthService struct {
	Signer jwtx.Signer
	Store  store.Store
	Mailer Mailer
	Issuer string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// ChallengeTTL bounds MFA challenges; zero means DefaultChallengeTTL.
	ChallengeTTL time.Duration

	// MaxMFAAttempts caps failed verifications per challenge; zero means
	// DefaultMaxMFAAttempts.
	MaxMFAAttempts int

	// RequireEmailConfirmation gates sign in behind a confirmed address.
	// Disabled in tests and some dev setups.
	RequireEmailConfirmation bool

	listenersMu sync.Mutex
	listeners   []func(SessionEvent)
}

// Subscribe registers a listener called synchronously on sign-in, refresh
// and sign-out. Listeners must not block.
func (s *AuthService) Subscribe(listener func(SessionEvent)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *AuthService) notify(eventType, userID string) {
	s.listenersMu.Lock()
	listeners := slices.Clone(s.listeners)
	s.listenersMu.Unlock()

	ev := SessionEvent{Type: eventType, UserID: userID}
	for _, l := range listeners {
		l(ev)
	}
}

func (s *AuthService) challengeTTL() time.Duration {
	if s.ChallengeTTL > 0 {
		return s.ChallengeTTL
	}
	return DefaultChallengeTTL
}

func (s *AuthService) maxMFAAttempts() int {
	if s.MaxMFAAttempts > 0 {
		return s.MaxMFAAttempts
	}
	return DefaultMaxMFAAttempts
}

// SignUp registers a new account with the client role and a matching
// profile, then issues an email confirmation token.
func (s *AuthService) SignUp(ctx context.Context, email, password, fullName string) (domain.User, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	email, err := normalizeEmail(email)
	if err != nil {
		return domain.User{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return domain.User{}, ErrWeakPassword
	}

	passHash, err := cryptox.HashPassword(password)
	if err != nil {
		l.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	u := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !s.RequireEmailConfirmation {
		u.EmailConfirmed = &now
	}

	// Account, profile, and role land in one transaction so there is never
	// a user without a profile or a role.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		if err := tx.Profiles().CreateProfile(ctx, domain.Profile{
			UserID:    u.ID,
			Email:     email,
			FullName:  fullName,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		return tx.Roles().SetRole(ctx, u.ID, domain.RoleClient)
	})
	if err != nil {
		return domain.User{}, err
	}

	if s.RequireEmailConfirmation {
		if err := s.issueEmailToken(ctx, u.ID, email, domain.EmailTokenConfirm); err != nil {
			// The account exists; the user can request a resend.
			l.Error("failed to issue confirmation token",
				slog.Any("error", err),
				slog.String("user_id", u.ID),
			)
		}
	}

	l.Info("user signed up", slog.String("user_id", u.ID))
	return u, nil
}

// ConfirmEmail consumes a confirmation token and marks the address confirmed.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) error {
	now := time.Now().UTC()
	fp := cryptox.FingerprintToken(strings.TrimSpace(token))

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		et, err := tx.EmailTokens().GetActiveEmailToken(ctx, domain.EmailTokenConfirm, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidEmailToken
			}
			return err
		}
		if err := tx.EmailTokens().MarkEmailTokenUsed(ctx, et.ID, now); err != nil {
			return err
		}
		err = tx.Users().ConfirmEmail(ctx, et.UserID, now)
		if errors.Is(err, store.ErrNotFound) {
			// Already confirmed; the token still burns.
			return nil
		}
		return err
	})
}

// ResendConfirmation issues a fresh confirmation token. It succeeds silently
// for unknown or already-confirmed addresses to avoid leaking which emails
// have accounts.
func (s *AuthService) ResendConfirmation(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return ErrInvalidEmail
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if u.IsEmailConfirmed() {
		return nil
	}

	if err := s.Store.EmailTokens().DeleteUserEmailTokens(ctx, u.ID, domain.EmailTokenConfirm); err != nil {
		return err
	}
	return s.issueEmailToken(ctx, u.ID, email, domain.EmailTokenConfirm)
}

// SignIn validates the password and either mints tokens or, for MFA-enabled
// accounts, opens a challenge and returns *MFARequiredError.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		l.Info("password verification failed", slog.String("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}

	if s.RequireEmailConfirmation && !u.IsEmailConfirmed() {
		// Re-send the confirmation so the user is not stuck with an
		// expired token from signup.
		if err := s.ResendConfirmation(ctx, email); err != nil {
			l.Error("failed to resend confirmation",
				slog.Any("error", err),
				slog.String("user_id", u.ID),
			)
		}
		return nil, ErrEmailNotConfirmed
	}

	role, err := s.Store.Roles().GetRole(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	scopes := domain.RoleScopes[role]
	sessionID := idx.New().String()

	if u.IsMFAEnabled() {
		challenge := domain.MFAChallenge{
			ID:        idx.New().String(),
			UserID:    u.ID,
			SessionID: sessionID,
			Scopes:    scopes,
			AMR:       []string{jwtx.AMRPassword},
			CreatedAt: now,
			ExpiresAt: now.Add(s.challengeTTL()),
		}
		if err := s.Store.MFAChallenges().CreateMFAChallenge(ctx, challenge); err != nil {
			return nil, err
		}

		methods := []string{domain.MFAMethodTOTP}
		if n, err := s.Store.BackupCodes().CountUnusedBackupCodes(ctx, u.ID); err == nil && n > 0 {
			methods = append(methods, domain.MFAMethodBackupCodes)
		}

		l.Info("MFA challenge opened", slog.String("user_id", u.ID))
		return nil, &MFARequiredError{ChallengeID: challenge.ID, Methods: methods}
	}

	pair, err := s.mintTokenPair(ctx, u, sessionID, scopes, []string{jwtx.AMRPassword}, now)
	if err != nil {
		return nil, err
	}
	s.notify(EventSignIn, u.ID)
	return pair, nil
}

// CompleteMFAChallenge verifies a TOTP code or backup code against a pending
// challenge. Challenges are single use and are destroyed after too many
// failed attempts.
func (s *AuthService) CompleteMFAChallenge(ctx context.Context, challengeID, code string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()
	code = strings.TrimSpace(code)

	challenge, err := s.Store.MFAChallenges().GetMFAChallenge(ctx, challengeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if challenge.Attempts >= s.maxMFAAttempts() {
		_ = s.Store.MFAChallenges().DeleteMFAChallenge(ctx, challengeID)
		l.Warn("MFA challenge exceeded max attempts",
			slog.String("challenge_id", challengeID),
			slog.Int("attempts", challenge.Attempts),
		)
		return nil, ErrTooManyAttempts
	}

	u, err := s.Store.Users().GetUserByID(ctx, challenge.UserID)
	if err != nil {
		return nil, err
	}

	verified := false
	if u.MFASecret != nil && totp.Validate(code, *u.MFASecret) {
		verified = true
	} else {
		// Fall back to backup codes; consuming marks the code used.
		err := s.Store.BackupCodes().ConsumeBackupCode(ctx, u.ID, cryptox.FingerprintToken(code))
		if err == nil {
			verified = true
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	if !verified {
		updated, err := s.Store.MFAChallenges().IncrementMFAChallengeAttempts(ctx, challengeID)
		if err != nil {
			l.Error("failed to increment MFA attempts", slog.Any("error", err))
			return nil, ErrInvalidCredentials
		}
		l.Warn("MFA verification failed",
			slog.String("challenge_id", challengeID),
			slog.Int("attempts", updated.Attempts),
		)
		return nil, ErrInvalidCredentials
	}

	amr := dedupe(append(challenge.AMR, jwtx.AMROTP, jwtx.AMRMFA))

	var pair *domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// The challenge burns in the same transaction that stores the
		// refresh token, so one challenge yields at most one session.
		if err := tx.MFAChallenges().DeleteMFAChallenge(ctx, challengeID); err != nil {
			return err
		}
		pair, err = s.mintTokenPairTx(ctx, tx, u, challenge.SessionID, challenge.Scopes, amr, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.Info("MFA challenge completed", slog.String("user_id", u.ID))
	s.notify(EventSignIn, u.ID)
	return pair, nil
}

// Refresh rotates a refresh token: the old token is revoked and a new pair
// is issued with the same session id. Scopes are recomputed from the user's
// current role so role changes take effect at the next refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshOpaque string) (*domain.TokenPair, error) {
	now := time.Now().UTC()

	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	if rt.Revoked || now.After(rt.ExpiresAt) {
		return nil, ErrInvalidRefresh
	}

	u, err := s.Store.Users().GetUserByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	role, err := s.Store.Roles().GetRole(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	scopes := domain.RoleScopes[role]
	amr := dedupe(append(rt.AMR, jwtx.AMRRefresh))

	var pair *domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
			return err
		}
		pair, err = s.mintTokenPairTx(ctx, tx, u, rt.SessionID, scopes, amr, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(EventRefresh, u.ID)
	return pair, nil
}

// SignOut revokes the refresh token. Revoking an unknown or already-revoked
// token is not an error; listeners are only notified when a live token was
// actually revoked.
func (s *AuthService) SignOut(ctx context.Context, refreshOpaque string) error {
	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if !rt.Revoked {
		s.notify(EventSignOut, rt.UserID)
	}
	return nil
}

// RequestPasswordReset issues a reset token. Unknown addresses succeed
// silently to avoid leaking which emails have accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return ErrInvalidEmail
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.Store.EmailTokens().DeleteUserEmailTokens(ctx, u.ID, domain.EmailTokenPasswordReset); err != nil {
		return err
	}
	return s.issueEmailToken(ctx, u.ID, email, domain.EmailTokenPasswordReset)
}

// ResetPassword consumes a reset token, replaces the password, and revokes
// every outstanding session for the user.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	now := time.Now().UTC()

	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}
	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	fp := cryptox.FingerprintToken(strings.TrimSpace(token))
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		et, err := tx.EmailTokens().GetActiveEmailToken(ctx, domain.EmailTokenPasswordReset, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidEmailToken
			}
			return err
		}
		if err := tx.EmailTokens().MarkEmailTokenUsed(ctx, et.ID, now); err != nil {
			return err
		}
		if err := tx.Users().UpdatePasswordHash(ctx, et.UserID, newHash); err != nil {
			return err
		}
		return tx.RefreshTokens().RevokeAllUserRefreshTokens(ctx, et.UserID)
	})
}

// mintTokenPair signs an access token and stores a refresh token outside a
// caller-held transaction.
func (s *AuthService) mintTokenPair(
	ctx context.Context,
	u domain.User,
	sessionID string,
	scopes, amr []string,
	now time.Time,
) (*domain.TokenPair, error) {
	var pair *domain.TokenPair
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		pair, err = s.mintTokenPairTx(ctx, tx, u, sessionID, scopes, amr, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *AuthService) mintTokenPairTx(
	ctx context.Context,
	tx store.Tx,
	u domain.User,
	sessionID string,
	scopes, amr []string,
	now time.Time,
) (*domain.TokenPair, error) {
	profile, err := tx.Profiles().GetProfile(ctx, u.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	claims := jwtx.NewAccessClaims(
		u.ID,             // subject
		sessionID,        // session ID
		scopes,           // scopes
		amr,              // authentication methods
		s.AccessTTL,      // token lifetime
		s.Issuer,         // issuer
		u.Email,          // email
		profile.FullName, // display name
		now,              // current time
	)
	accessToken, err := s.Signer.Sign(claims)
	if err != nil {
		return nil, err
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		SessionID: sessionID,
		Scopes:    scopes,
		AMR:       amr,
		ExpiresAt: now.Add(s.RefreshTTL),
		Revoked:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
		Scope:        strings.Join(scopes, " "),
	}, nil
}

// issueEmailToken mints an opaque token, stores its fingerprint, and hands
// the plaintext to the mailer.
func (s *AuthService) issueEmailToken(ctx context.Context, userID, email, purpose string) error {
	now := time.Now().UTC()

	ttl := DefaultConfirmTokenTTL
	if purpose == domain.EmailTokenPasswordReset {
		ttl = DefaultResetTokenTTL
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	et := domain.EmailToken{
		ID:        idx.New().String(),
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: cryptox.FingerprintToken(token),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.Store.EmailTokens().CreateEmailToken(ctx, et); err != nil {
		return err
	}

	if purpose == domain.EmailTokenPasswordReset {
		return s.Mailer.SendPasswordReset(ctx, email, token)
	}
	return s.Mailer.SendConfirmation(ctx, email, token)
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", err
	}
	return email, nil
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
