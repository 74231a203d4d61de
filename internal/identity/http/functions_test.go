package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nexusai/careerid/internal/identity/domain"
	"github.com/nexusai/careerid/internal/identity/service"
	"github.com/nexusai/careerid/internal/identity/store"
	"github.com/nexusai/careerid/internal/identity/store/drivers/sqlite"
	"github.com/nexusai/careerid/pkg/cryptox"
	"github.com/nexusai/careerid/pkg/identsdk"
	"github.com/nexusai/careerid/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	pepperPath := filepath.Join(os.TempDir(), "careerid-http-test-pepper")
	cryptox.SetPepperPath(pepperPath)

	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

type functionsFixture struct {
	store    store.Store
	handler  *FunctionsHandler
	signer   jwtx.Signer
	adminID  string
	clientID string
}

func newFunctionsFixture(t *testing.T) *functionsFixture {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	pemKey, err := jwtx.GenerateEd25519PEM()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("test-key", pemKey)
	require.NoError(t, err)
	verifier := jwtx.NewVerifierEdDSA("test-key", signer.PublicKey(), "test-issuer")

	auth := &service.AuthService{
		Signer:     signer,
		Store:      st,
		Mailer:     &service.LogMailer{},
		Issuer:     "test-issuer",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}

	bootstrap := &service.BootstrapService{Store: st, Auth: auth}
	adminID, _, err := bootstrap.Bootstrap(ctx, domain.BootstrapData{
		Email:    "admin@example.com",
		Password: "super-secret-1",
		FullName: "Admin",
	})
	require.NoError(t, err)
	client, err := auth.SignUp(ctx, "client@example.com", "password123", "Client")
	require.NoError(t, err)

	return &functionsFixture{
		store: st,
		handler: &FunctionsHandler{
			BootstrapService: bootstrap,
			AdminService:     &service.AdminService{Store: st},
			Verifier:         verifier,
		},
		signer:   signer,
		adminID:  adminID,
		clientID: client.ID,
	}
}

// newCreateAdminHandler wires a handler against a fresh empty store for the
// create-admin cases that need an un-bootstrapped system.
func newCreateAdminHandler(t *testing.T) *FunctionsHandler {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	pemKey, err := jwtx.GenerateEd25519PEM()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("test-key", pemKey)
	require.NoError(t, err)

	auth := &service.AuthService{
		Signer:     signer,
		Store:      st,
		Mailer:     &service.LogMailer{},
		Issuer:     "test-issuer",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
	return &FunctionsHandler{
		BootstrapService: &service.BootstrapService{Store: st, Auth: auth},
	}
}

// accessToken mints a token for the given subject and scopes.
func (f *functionsFixture) accessToken(t *testing.T, subject string, scopes []string) string {
	t.Helper()

	token, err := f.signer.Sign(jwtx.NewAccessClaims(
		subject, "test-session", scopes, []string{jwtx.AMRPassword},
		time.Minute, "test-issuer", "", "", time.Now(),
	))
	require.NoError(t, err)
	return token
}

func (f *functionsFixture) deleteUser(t *testing.T, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/functions/delete-user", bytes.NewReader(payload))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.HandleDeleteUser(rec, req)
	return rec
}

func decodeFunctionResponse(t *testing.T, rec *httptest.ResponseRecorder) identsdk.FunctionResponse {
	t.Helper()

	var resp identsdk.FunctionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestDeleteUserEndpoint(t *testing.T) {
	f := newFunctionsFixture(t)
	adminToken := f.accessToken(t, f.adminID, []string{"profile:read", "profile:write", "admin:read", "admin:write"})

	t.Run("rejects missing token", func(t *testing.T) {
		rec := f.deleteUser(t, "", identsdk.DeleteUserRequest{UserID: f.clientID})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Unauthorized", decodeFunctionResponse(t, rec).Error)
	})

	t.Run("rejects garbage token", func(t *testing.T) {
		rec := f.deleteUser(t, "not-a-jwt", identsdk.DeleteUserRequest{UserID: f.clientID})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects token without admin:write scope", func(t *testing.T) {
		token := f.accessToken(t, f.clientID, []string{"profile:read", "profile:write"})
		rec := f.deleteUser(t, token, identsdk.DeleteUserRequest{UserID: f.clientID})
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "Insufficient permissions to delete users", decodeFunctionResponse(t, rec).Error)
	})

	t.Run("rejects missing user id", func(t *testing.T) {
		rec := f.deleteUser(t, adminToken, map[string]string{})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "User ID is required", decodeFunctionResponse(t, rec).Error)
	})

	t.Run("rejects malformed user id", func(t *testing.T) {
		rec := f.deleteUser(t, adminToken, identsdk.DeleteUserRequest{UserID: "not-a-uuid"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Invalid user ID format", decodeFunctionResponse(t, rec).Error)
	})

	t.Run("rejects admin targets", func(t *testing.T) {
		rec := f.deleteUser(t, adminToken, identsdk.DeleteUserRequest{UserID: f.adminID})
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "Admin accounts cannot be deleted", decodeFunctionResponse(t, rec).Error)
	})

	t.Run("unknown target returns 404", func(t *testing.T) {
		rec := f.deleteUser(t, adminToken, identsdk.DeleteUserRequest{
			UserID: "550e8400-e29b-41d4-a716-446655440000",
		})
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "User not found", decodeFunctionResponse(t, rec).Error)
	})

	t.Run("deletes client account", func(t *testing.T) {
		// The wire key is camelCase; pin the raw body rather than the
		// SDK struct so a tag change cannot slip through.
		rec := f.deleteUser(t, adminToken, map[string]string{"userId": f.clientID})
		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, decodeFunctionResponse(t, rec).Success)

		_, err := f.store.Users().GetUserByID(context.Background(), f.clientID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestCreateAdminEndpoint(t *testing.T) {
	createAdmin := func(t *testing.T, h *FunctionsHandler, body any) *httptest.ResponseRecorder {
		t.Helper()

		payload, err := json.Marshal(body)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/functions/create-admin", bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		h.HandleCreateAdmin(rec, req)
		return rec
	}

	t.Run("creates the first admin", func(t *testing.T) {
		h := newCreateAdminHandler(t)

		rec := createAdmin(t, h, identsdk.BootstrapRequest{
			Email:    "admin@example.com",
			Password: "super-secret-1",
			FullName: "Admin",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp identsdk.BootstrapResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.True(t, resp.Success)
		require.NotEmpty(t, resp.UserID)
		require.Equal(t, "admin@example.com", resp.Email)
		require.Equal(t, "Admin user created successfully", resp.Message)
	})

	t.Run("refuses once an admin exists", func(t *testing.T) {
		f := newFunctionsFixture(t)

		rec := createAdmin(t, f.handler, identsdk.BootstrapRequest{
			Email:    "second@example.com",
			Password: "super-secret-2",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Admin user already exists", decodeFunctionResponse(t, rec).Error)
	})

	t.Run("rejects weak passwords", func(t *testing.T) {
		h := newCreateAdminHandler(t)

		rec := createAdmin(t, h, identsdk.BootstrapRequest{
			Email:    "admin@example.com",
			Password: "short",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Password must be at least 8 characters", decodeFunctionResponse(t, rec).Error)
	})
}
