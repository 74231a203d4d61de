package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/nexusai/careerid/internal/identity/domain"
	"github.com/nexusai/careerid/internal/identity/store"
)

type emailTokensRepo struct {
	q dbtx
}

func (r *emailTokensRepo) CreateEmailToken(ctx context.Context, t domain.EmailToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO email_tokens (id, user_id, purpose, token_hash, expires_at, used_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Purpose, t.TokenHash, t.ExpiresAt, mapOptionalTime(t.UsedAt), t.CreatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *emailTokensRepo) GetActiveEmailToken(ctx context.Context, purpose, tokenHash string) (domain.EmailToken, error) {
	var (
		t      domain.EmailToken
		usedAt sql.NullTime
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, purpose, token_hash, expires_at, used_at, created_at
		FROM email_tokens
		WHERE purpose = ? AND token_hash = ? AND used_at IS NULL AND expires_at > ?`,
		purpose, tokenHash, time.Now().UTC(),
	).Scan(&t.ID, &t.UserID, &t.Purpose, &t.TokenHash, &t.ExpiresAt, &usedAt, &t.CreatedAt)
	if err != nil {
		return domain.EmailToken{}, mapNotFound(err)
	}
	t.UsedAt = mapNullTimePtr(usedAt)
	return t, nil
}

func (r *emailTokensRepo) MarkEmailTokenUsed(ctx context.Context, id string, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE email_tokens SET used_at = ? WHERE id = ? AND used_at IS NULL`,
		at.UTC(), id,
	)
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

func (r *emailTokensRepo) DeleteUserEmailTokens(ctx context.Context, userID, purpose string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM email_tokens WHERE user_id = ? AND purpose = ?`, userID, purpose)
	return err
}

func (r *emailTokensRepo) DeleteExpiredEmailTokens(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM email_tokens WHERE expires_at < ?`, time.Now().UTC())
	return err
}
