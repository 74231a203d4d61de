package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/nexusai/careerid/internal/identity/domain"
	"github.com/nexusai/careerid/internal/identity/store"
	"github.com/nexusai/careerid/pkg/idx"
	"github.com/nexusai/careerid/pkg/slogx"
)

var (
	ErrInvalidUserID     = errors.New("invalid user ID format")
	ErrUserNotFound      = errors.New("user not found")
	ErrNotAdmin          = errors.New("caller is not an admin")
	ErrCannotDeleteAdmin = errors.New("admin accounts cannot be deleted")
	ErrInvalidRole       = errors.New("invalid role")
	ErrLastAdmin         = errors.New("cannot remove the last admin")
)

// Target ids are validated strictly before they reach the database: hex
// UUID only, any case. Ids are stored lowercase, so matches are normalized
// before lookup.
var userIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// AdminService implements privileged user management. Every mutation lands
// an audit entry in the same transaction as the change itself.
type AdminService struct {
	Store store.Store
}

// requireAdmin confirms the actor still holds the admin role. Scope checks
// happen at the HTTP layer; this guards against stale tokens outliving a
// demotion.
func (s *AdminService) requireAdmin(ctx context.Context, actorID string) error {
	role, err := s.Store.Roles().GetRole(ctx, actorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotAdmin
		}
		return err
	}
	if role != domain.RoleAdmin {
		return ErrNotAdmin
	}
	return nil
}

// DeleteUser permanently removes the target account and everything hanging
// off it. Admin accounts cannot be deleted, which also rules out
// self-deletion. The audit entry survives because the trail has no foreign
// keys into users.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, targetUserID string) error {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	if !userIDPattern.MatchString(targetUserID) {
		return ErrInvalidUserID
	}
	targetUserID = strings.ToLower(targetUserID)
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Users().GetUserByID(ctx, targetUserID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		targetRole, err := tx.Roles().GetRole(ctx, targetUserID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if targetRole == domain.RoleAdmin {
			return ErrCannotDeleteAdmin
		}

		// Cascades remove the profile, role, tokens, MFA state and backup codes.
		if err := tx.Users().DeleteUser(ctx, targetUserID); err != nil {
			return err
		}

		return tx.AuditLog().CreateAuditEntry(ctx, domain.AuditEntry{
			ID:           idx.New().String(),
			ActorID:      actorID,
			Action:       domain.AuditActionDeleteUser,
			TargetUserID: targetUserID,
			CreatedAt:    now,
		})
	})
	if err != nil {
		return err
	}

	l.Info("user deleted",
		slog.String("actor_id", actorID),
		slog.String("target_user_id", targetUserID),
	)
	return nil
}

// SetRole changes the target's role. Demoting the last admin is refused, and
// the target's sessions are revoked so the old scopes die with them.
func (s *AdminService) SetRole(ctx context.Context, actorID, targetUserID, role string) error {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	if !userIDPattern.MatchString(targetUserID) {
		return ErrInvalidUserID
	}
	targetUserID = strings.ToLower(targetUserID)
	if !domain.ValidRole(role) {
		return ErrInvalidRole
	}
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		currentRole, err := tx.Roles().GetRole(ctx, targetUserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if currentRole == role {
			return nil
		}

		if currentRole == domain.RoleAdmin && role != domain.RoleAdmin {
			admins, err := tx.Roles().CountAdmins(ctx)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		if err := tx.Roles().SetRole(ctx, targetUserID, role); err != nil {
			return err
		}
		if err := tx.RefreshTokens().RevokeAllUserRefreshTokens(ctx, targetUserID); err != nil {
			return err
		}

		return tx.AuditLog().CreateAuditEntry(ctx, domain.AuditEntry{
			ID:           idx.New().String(),
			ActorID:      actorID,
			Action:       domain.AuditActionUpdateRole,
			TargetUserID: targetUserID,
			Detail:       role,
			CreatedAt:    now,
		})
	})
	if err != nil {
		return err
	}

	l.Info("role changed",
		slog.String("actor_id", actorID),
		slog.String("target_user_id", targetUserID),
		slog.String("role", role),
	)
	return nil
}

// ListUsers returns a page of accounts with role and profile joined.
func (s *AdminService) ListUsers(ctx context.Context, actorID string, f store.UserFilter) ([]store.UserRow, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.Store.Users().ListUsers(ctx, f)
}

// ListAuditLog returns a page of the administrative action trail, newest first.
func (s *AdminService) ListAuditLog(ctx context.Context, actorID string, f store.AuditFilter) ([]domain.AuditEntry, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.Store.AuditLog().ListAuditEntries(ctx, f)
}
