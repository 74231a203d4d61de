package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/nexusai/careerid/internal/identity/domain"
	"github.com/nexusai/careerid/internal/identity/store"
)

type usersRepo struct {
	q dbtx
}

const userColumns = `id, email, password_hash, email_confirmed_at, mfa_enabled_at, mfa_secret, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u           domain.User
		confirmedAt sql.NullTime
		mfaEnabled  sql.NullTime
		mfaSecret   sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &confirmedAt, &mfaEnabled, &mfaSecret, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.EmailConfirmed = mapNullTimePtr(confirmedAt)
	u.MFAEnabled = mapNullTimePtr(mfaEnabled)
	u.MFASecret = mapNullStringPtr(mfaSecret)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, email_confirmed_at, mfa_enabled_at, mfa_secret, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, strings.ToLower(u.Email), u.PasswordHash,
		mapOptionalTime(u.EmailConfirmed), mapOptionalTime(u.MFAEnabled), mapOptionalString(u.MFASecret),
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	return r.execForOne(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID)
}

func (r *usersRepo) ConfirmEmail(ctx context.Context, userID string, at time.Time) error {
	return r.execForOne(ctx, `
		UPDATE users SET email_confirmed_at = ?, updated_at = ?
		WHERE id = ? AND email_confirmed_at IS NULL`,
		at.UTC(), time.Now().UTC(), userID)
}

func (r *usersRepo) UpdateMFASecret(ctx context.Context, userID string, secret string) error {
	return r.execForOne(ctx, `UPDATE users SET mfa_secret = ?, updated_at = ? WHERE id = ?`,
		secret, time.Now().UTC(), userID)
}

func (r *usersRepo) EnableMFA(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	return r.execForOne(ctx, `UPDATE users SET mfa_enabled_at = ?, updated_at = ? WHERE id = ?`,
		now, now, userID)
}

func (r *usersRepo) DisableMFA(ctx context.Context, userID string) error {
	return r.execForOne(ctx, `
		UPDATE users SET mfa_enabled_at = NULL, mfa_secret = NULL, updated_at = ?
		WHERE id = ?`,
		time.Now().UTC(), userID)
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	return r.execForOne(ctx, `DELETE FROM users WHERE id = ?`, userID)
}

func (r *usersRepo) ListUsers(ctx context.Context, f store.UserFilter) ([]store.UserRow, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT u.id, u.email, u.password_hash, u.email_confirmed_at, u.mfa_enabled_at, u.mfa_secret, u.created_at, u.updated_at,
		       ur.role,
		       p.full_name, p.created_at, p.updated_at
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN profiles p ON p.user_id = u.id
		WHERE u.id > ?
		ORDER BY u.id
		LIMIT ?`,
		f.AfterID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.UserRow
	for rows.Next() {
		var (
			row         store.UserRow
			confirmedAt sql.NullTime
			mfaEnabled  sql.NullTime
			mfaSecret   sql.NullString
		)
		err := rows.Scan(
			&row.User.ID, &row.User.Email, &row.User.PasswordHash, &confirmedAt, &mfaEnabled, &mfaSecret,
			&row.User.CreatedAt, &row.User.UpdatedAt,
			&row.Role,
			&row.Profile.FullName, &row.Profile.CreatedAt, &row.Profile.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		row.User.EmailConfirmed = mapNullTimePtr(confirmedAt)
		row.User.MFAEnabled = mapNullTimePtr(mfaEnabled)
		row.User.MFASecret = mapNullStringPtr(mfaSecret)
		row.Profile.UserID = row.User.ID
		row.Profile.Email = row.User.Email
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

// execForOne runs a statement expected to touch exactly one row and maps a
// zero-row result to ErrNotFound.
func (r *usersRepo) execForOne(ctx context.Context, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
