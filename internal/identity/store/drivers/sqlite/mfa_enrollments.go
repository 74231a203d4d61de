package sqlite

import (
	"context"
	"time"

	"github.com/nexusai/careerid/internal/identity/domain"
)

type mfaEnrollmentsRepo struct {
	q dbtx
}

func (r *mfaEnrollmentsRepo) CreateMFAEnrollment(ctx context.Context, e domain.MFAEnrollment) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO mfa_enrollments (id, user_id, secret, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Secret, e.CreatedAt, e.ExpiresAt,
	)
	return err
}

func (r *mfaEnrollmentsRepo) GetMFAEnrollment(ctx context.Context, id string) (domain.MFAEnrollment, error) {
	var e domain.MFAEnrollment
	err := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, secret, created_at, expires_at
		FROM mfa_enrollments WHERE id = ? AND expires_at > ?`,
		id, time.Now().UTC(),
	).Scan(&e.ID, &e.UserID, &e.Secret, &e.CreatedAt, &e.ExpiresAt)
	if err != nil {
		return domain.MFAEnrollment{}, mapNotFound(err)
	}
	return e, nil
}

func (r *mfaEnrollmentsRepo) DeleteMFAEnrollment(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM mfa_enrollments WHERE id = ?`, id)
	return err
}

func (r *mfaEnrollmentsRepo) DeleteUserMFAEnrollments(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM mfa_enrollments WHERE user_id = ?`, userID)
	return err
}

func (r *mfaEnrollmentsRepo) DeleteExpiredMFAEnrollments(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM mfa_enrollments WHERE expires_at < ?`, time.Now().UTC())
	return err
}
