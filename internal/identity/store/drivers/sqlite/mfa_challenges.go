package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/nexusai/careerid/internal/identity/domain"
	"github.com/nexusai/careerid/internal/identity/store"
)

type mfaChallengesRepo struct {
	q dbtx
}

func (r *mfaChallengesRepo) CreateMFAChallenge(ctx context.Context, c domain.MFAChallenge) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO mfa_challenges (id, user_id, session_id, scopes, amr, attempts, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.SessionID,
		strings.Join(c.Scopes, " "), strings.Join(c.AMR, " "),
		c.Attempts, c.CreatedAt, c.ExpiresAt,
	)
	return err
}

func (r *mfaChallengesRepo) GetMFAChallenge(ctx context.Context, id string) (domain.MFAChallenge, error) {
	var (
		c           domain.MFAChallenge
		scopes, amr string
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, session_id, scopes, amr, attempts, created_at, expires_at
		FROM mfa_challenges WHERE id = ? AND expires_at > ?`,
		id, time.Now().UTC(),
	).Scan(&c.ID, &c.UserID, &c.SessionID, &scopes, &amr, &c.Attempts, &c.CreatedAt, &c.ExpiresAt)
	if err != nil {
		return domain.MFAChallenge{}, mapNotFound(err)
	}
	c.Scopes = strings.Fields(scopes)
	c.AMR = strings.Fields(amr)
	return c, nil
}

func (r *mfaChallengesRepo) IncrementMFAChallengeAttempts(ctx context.Context, id string) (domain.MFAChallenge, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE mfa_challenges SET attempts = attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return domain.MFAChallenge{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.MFAChallenge{}, err
	}
	if n == 0 {
		return domain.MFAChallenge{}, store.ErrNotFound
	}
	return r.GetMFAChallenge(ctx, id)
}

func (r *mfaChallengesRepo) DeleteMFAChallenge(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM mfa_challenges WHERE id = ?`, id)
	return err
}

func (r *mfaChallengesRepo) DeleteExpiredMFAChallenges(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM mfa_challenges WHERE expires_at < ?`, time.Now().UTC())
	return err
}
