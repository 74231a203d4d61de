package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T, kid string) *EdDSASigner {
	t.Helper()

	pemKey, err := GenerateEd25519PEM()
	require.NoError(t, err)

	signer, err := NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	return signer
}

func TestEdDSASignVerifyRoundTrip(t *testing.T) {
	signer := newTestSigner(t, "test-key")
	verifier := NewVerifierEdDSA("test-key", signer.PublicKey(), "test-issuer")

	claims := NewAccessClaims(
		"user-123", "session-456",
		[]string{"profile:read", "profile:write"},
		[]string{AMRPassword},
		time.Minute,
		"test-issuer",
		"user@example.com", "Test User",
		time.Now(),
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", parsed.Subject)
	require.Equal(t, "session-456", parsed.SID)
	require.Equal(t, []string{"profile:read", "profile:write"}, parsed.Scopes)
	require.Equal(t, []string{AMRPassword}, parsed.AMR)
	require.Equal(t, "user@example.com", parsed.Email)
	require.Equal(t, "Test User", parsed.FullName)
	require.NotEmpty(t, parsed.ID, "jti should be set")
}

func TestEdDSAVerifyRejectsWrongKey(t *testing.T) {
	signer := newTestSigner(t, "key-a")
	other := newTestSigner(t, "key-a")

	claims := NewAccessClaims(
		"user-123", "sid",
		nil, nil,
		time.Minute,
		"test-issuer",
		"", "",
		time.Now(),
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	// Same kid, different key material.
	verifier := NewVerifierEdDSA("key-a", other.PublicKey(), "test-issuer")
	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestEdDSAVerifyRejectsUnknownKID(t *testing.T) {
	signer := newTestSigner(t, "key-a")
	verifier := NewVerifierEdDSA("key-b", signer.PublicKey(), "test-issuer")

	token, err := signer.Sign(NewAccessClaims(
		"user-123", "sid", nil, nil, time.Minute, "test-issuer", "", "", time.Now(),
	))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrUnknownKID)
}

func TestEdDSAVerifyRejectsIssuerMismatch(t *testing.T) {
	signer := newTestSigner(t, "test-key")
	verifier := NewVerifierEdDSA("test-key", signer.PublicKey(), "expected-issuer")

	token, err := signer.Sign(NewAccessClaims(
		"user-123", "sid", nil, nil, time.Minute, "other-issuer", "", "", time.Now(),
	))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestEdDSAVerifyRejectsExpiredToken(t *testing.T) {
	signer := newTestSigner(t, "test-key")
	verifier := NewVerifierEdDSA("test-key", signer.PublicKey(), "test-issuer")

	token, err := signer.Sign(NewAccessClaims(
		"user-123", "sid", nil, nil, time.Minute, "test-issuer", "", "",
		time.Now().Add(-time.Hour),
	))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestEdDSAVerifyRejectsGarbage(t *testing.T) {
	signer := newTestSigner(t, "test-key")
	verifier := NewVerifierEdDSA("test-key", signer.PublicKey(), "test-issuer")

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := verifier.Verify(token)
		require.Error(t, err)
	}
}
