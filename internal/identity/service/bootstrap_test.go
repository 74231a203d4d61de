package service

import (
	"context"
	"testing"

	"github.com/nexusai/careerid/internal/identity/domain"
	"github.com/nexusai/careerid/internal/identity/store"
	"github.com/stretchr/testify/require"
)

func TestBootstrapCreatesFirstAdmin(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newBootstrapService(t, st)

	bootstrapped, err := svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.False(t, bootstrapped)

	adminID, pair, err := svc.Bootstrap(ctx, domain.BootstrapData{
		Email:    "admin@example.com",
		Password: "super-secret-1",
		FullName: "First Admin",
	})
	require.NoError(t, err)
	require.NotEmpty(t, adminID)

	// The operator is signed in immediately.
	require.NotNil(t, pair)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Contains(t, pair.Scope, "admin:write")

	refreshed, err := svc.Auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)

	bootstrapped, err = svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.True(t, bootstrapped)

	u, err := st.Users().GetUserByID(ctx, adminID)
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", u.Email)
	require.True(t, u.IsEmailConfirmed(), "bootstrap admin must sign in without a confirmation round trip")

	role, err := st.Roles().GetRole(ctx, adminID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, role)

	profile, err := st.Profiles().GetProfile(ctx, adminID)
	require.NoError(t, err)
	require.Equal(t, "First Admin", profile.FullName)

	entries, err := st.AuditLog().ListAuditEntries(ctx, store.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, domain.AuditActionBootstrap, entries[0].Action)
	require.Equal(t, adminID, entries[0].ActorID)
}

func TestBootstrapRefusesSecondAdmin(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newBootstrapService(t, st)

	_, _, err := svc.Bootstrap(ctx, domain.BootstrapData{
		Email:    "admin@example.com",
		Password: "super-secret-1",
	})
	require.NoError(t, err)

	_, _, err = svc.Bootstrap(ctx, domain.BootstrapData{
		Email:    "another@example.com",
		Password: "super-secret-2",
	})
	require.ErrorIs(t, err, ErrBootstrapAlready)
}

func TestBootstrapValidatesInput(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newBootstrapService(t, st)

	_, _, err := svc.Bootstrap(ctx, domain.BootstrapData{Email: "nope", Password: "super-secret-1"})
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, _, err = svc.Bootstrap(ctx, domain.BootstrapData{Email: "admin@example.com", Password: "short"})
	require.ErrorIs(t, err, ErrWeakPassword)

	// Failed attempts must not mark the system bootstrapped.
	bootstrapped, err := svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.False(t, bootstrapped)
}
