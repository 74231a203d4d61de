package sqlite

import (
	"context"
	"time"
)

type rolesRepo struct {
	q dbtx
}

func (r *rolesRepo) GetRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := r.q.QueryRowContext(ctx, `SELECT role FROM user_roles WHERE user_id = ?`, userID).Scan(&role)
	if err != nil {
		return "", mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) SetRole(ctx context.Context, userID string, role string) error {
	now := time.Now().UTC()
	// Upsert keeps the single-role-per-user invariant in the schema.
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET role = excluded.role, updated_at = excluded.updated_at`,
		userID, role, now, now,
	)
	return err
}

func (r *rolesRepo) HasAdmin(ctx context.Context) (bool, error) {
	count, err := r.CountAdmins(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *rolesRepo) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_roles WHERE role = 'admin'`).Scan(&count)
	return count, err
}
