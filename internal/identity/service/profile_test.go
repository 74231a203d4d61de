package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestGetProfile(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(t, st, &captureMailer{})
	svc := &ProfileService{Store: st}
	ctx := context.Background()

	u := mustSignUp(t, auth, "pat@example.com", "hunter2hunter2", "Pat Smith")

	t.Run("returns the signup profile", func(t *testing.T) {
		p, err := svc.GetProfile(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.ID, p.UserID)
		require.Equal(t, "pat@example.com", p.Email)
		require.Equal(t, "Pat Smith", p.FullName)
		require.Nil(t, p.Bio)
		require.Nil(t, p.CareerField)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.GetProfile(ctx, "00000000-0000-0000-0000-000000000000")
		require.ErrorIs(t, err, ErrProfileNotFound)
	})
}

func TestUpdateProfile(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(t, st, &captureMailer{})
	svc := &ProfileService{Store: st}
	ctx := context.Background()

	u := mustSignUp(t, auth, "dev@example.com", "hunter2hunter2", "Dev One")

	t.Run("sets optional fields", func(t *testing.T) {
		p, err := svc.UpdateProfile(ctx, u.ID, ProfileUpdate{
			Bio:             strPtr("Backend engineer moving into data."),
			CareerField:     strPtr("software"),
			ExperienceLevel: strPtr("mid"),
			AvatarURL:       strPtr("https://cdn.example.com/a/dev.png"),
		})
		require.NoError(t, err)
		require.Equal(t, "Dev One", p.FullName)
		require.NotNil(t, p.Bio)
		require.Equal(t, "Backend engineer moving into data.", *p.Bio)
		require.Equal(t, "software", *p.CareerField)
		require.Equal(t, "mid", *p.ExperienceLevel)
		require.Equal(t, "https://cdn.example.com/a/dev.png", *p.AvatarURL)
	})

	t.Run("nil fields are untouched", func(t *testing.T) {
		p, err := svc.UpdateProfile(ctx, u.ID, ProfileUpdate{
			FullName: strPtr("Dev Renamed"),
		})
		require.NoError(t, err)
		require.Equal(t, "Dev Renamed", p.FullName)
		require.NotNil(t, p.Bio)
		require.Equal(t, "software", *p.CareerField)
	})

	t.Run("empty string clears a field", func(t *testing.T) {
		p, err := svc.UpdateProfile(ctx, u.ID, ProfileUpdate{
			Bio: strPtr("   "),
		})
		require.NoError(t, err)
		require.Nil(t, p.Bio)
		require.Equal(t, "software", *p.CareerField)
	})

	t.Run("long values are clamped", func(t *testing.T) {
		p, err := svc.UpdateProfile(ctx, u.ID, ProfileUpdate{
			FullName: strPtr(strings.Repeat("n", maxFullNameLength+50)),
			Bio:      strPtr(strings.Repeat("b", maxBioLength+50)),
		})
		require.NoError(t, err)
		require.Len(t, p.FullName, maxFullNameLength)
		require.Len(t, *p.Bio, maxBioLength)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, "11111111-1111-1111-1111-111111111111", ProfileUpdate{
			FullName: strPtr("Nobody"),
		})
		require.ErrorIs(t, err, ErrProfileNotFound)
	})

	t.Run("persisted across reads", func(t *testing.T) {
		p, err := svc.GetProfile(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, *p.Bio, maxBioLength)
		require.Equal(t, "mid", *p.ExperienceLevel)
	})
}
