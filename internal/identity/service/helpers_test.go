package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nexusai/careerid/internal/identity/domain"
	"github.com/nexusai/careerid/internal/identity/store"
	"github.com/nexusai/careerid/internal/identity/store/drivers/sqlite"
	"github.com/nexusai/careerid/pkg/cryptox"
	"github.com/nexusai/careerid/pkg/jwtx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	pepperPath := filepath.Join(os.TempDir(), "careerid-service-test-pepper")
	cryptox.SetPepperPath(pepperPath)

	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestSigner(t *testing.T) jwtx.Signer {
	t.Helper()

	pemKey, err := jwtx.GenerateEd25519PEM()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA("test-key", pemKey)
	require.NoError(t, err)
	return signer
}

// captureMailer records issued tokens instead of sending anything.
type captureMailer struct {
	confirmTokens map[string]string // email -> token
	resetTokens   map[string]string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{
		confirmTokens: map[string]string{},
		resetTokens:   map[string]string{},
	}
}

func (m *captureMailer) SendConfirmation(_ context.Context, email, token string) error {
	m.confirmTokens[email] = token
	return nil
}

func (m *captureMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.resetTokens[email] = token
	return nil
}

func newBootstrapService(t *testing.T, st store.Store) *BootstrapService {
	t.Helper()

	return &BootstrapService{
		Store: st,
		Auth:  newAuthService(t, st, newCaptureMailer()),
	}
}

func newAuthService(t *testing.T, st store.Store, mailer *captureMailer) *AuthService {
	t.Helper()

	return &AuthService{
		Signer:                   newTestSigner(t),
		Store:                    st,
		Mailer:                   mailer,
		Issuer:                   "test-issuer",
		AccessTTL:                time.Minute,
		RefreshTTL:               time.Hour,
		RequireEmailConfirmation: false,
	}
}

// mustSignUp registers a confirmed user ready to sign in.
func mustSignUp(t *testing.T, svc *AuthService, email, password, fullName string) domain.User {
	t.Helper()

	u, err := svc.SignUp(context.Background(), email, password, fullName)
	require.NoError(t, err)
	return u
}

// enableMFA flips MFA on directly in the store and returns the TOTP secret.
func enableMFA(t *testing.T, st store.Store, userID string) string {
	t.Helper()
	ctx := context.Background()

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "test-issuer",
		AccountName: "test@example.com",
	})
	require.NoError(t, err)

	require.NoError(t, st.Users().UpdateMFASecret(ctx, userID, key.Secret()))
	require.NoError(t, st.Users().EnableMFA(ctx, userID))
	return key.Secret()
}
