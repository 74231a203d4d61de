package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nexusai/careerid/internal/identity/domain"
	"github.com/nexusai/careerid/internal/identity/store"
	"github.com/nexusai/careerid/pkg/cryptox"
	"github.com/nexusai/careerid/pkg/idx"
	"github.com/nexusai/careerid/pkg/jwtx"
	"github.com/nexusai/careerid/pkg/slogx"
)

var (
	ErrBootstrapAlready = errors.New("admin user already exists")
)

// BootstrapService creates the first administrator. It is open (no caller
// authentication) but only until an admin exists; the check and the insert
// share one transaction so concurrent calls cannot both succeed.
type BootstrapService struct {
	Store store.Store

	// Auth mints the new admin's first session.
	Auth *AuthService
}

// IsBootstrapped reports whether an admin account already exists.
func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	return s.Store.Roles().HasAdmin(ctx)
}

// Bootstrap creates the initial admin with a confirmed email and signs it
// in. Returns the new admin's user id and its first token pair.
func (s *BootstrapService) Bootstrap(ctx context.Context, req domain.BootstrapData) (string, *domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return "", nil, ErrInvalidEmail
	}
	if len(req.Password) < MinPasswordLength {
		return "", nil, ErrWeakPassword
	}

	passHash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		l.Error("failed to hash admin password", slog.Any("error", err))
		return "", nil, err
	}

	adminID := uuid.NewString()
	var pair *domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		hasAdmin, err := tx.Roles().HasAdmin(ctx)
		if err != nil {
			return err
		}
		if hasAdmin {
			return ErrBootstrapAlready
		}

		u := domain.User{
			ID:             adminID,
			Email:          email,
			PasswordHash:   passHash,
			EmailConfirmed: &now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		if err := tx.Profiles().CreateProfile(ctx, domain.Profile{
			UserID:    adminID,
			Email:     email,
			FullName:  req.FullName,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		if err := tx.Roles().SetRole(ctx, adminID, domain.RoleAdmin); err != nil {
			return err
		}
		if err := tx.AuditLog().CreateAuditEntry(ctx, domain.AuditEntry{
			ID:           idx.New().String(),
			ActorID:      adminID,
			Action:       domain.AuditActionBootstrap,
			TargetUserID: adminID,
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		// The first session is minted in the same transaction, so a
		// failed sign-in rolls the whole bootstrap back.
		pair, err = s.Auth.mintTokenPairTx(ctx, tx, u,
			idx.New().String(), domain.RoleScopes[domain.RoleAdmin],
			[]string{jwtx.AMRPassword}, now)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrBootstrapAlready) {
			l.Warn("attempted bootstrap on already-bootstrapped system")
		}
		return "", nil, err
	}

	l.Info("initial admin created", slog.String("admin_user_id", adminID))
	s.Auth.notify(EventSignIn, adminID)
	return adminID, pair, nil
}
