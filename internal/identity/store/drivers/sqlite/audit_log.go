package sqlite

import (
	"context"
	"database/sql"

	"github.com/nexusai/careerid/internal/identity/domain"
	"github.com/nexusai/careerid/internal/identity/store"
)

type auditLogRepo struct {
	q dbtx
}

func (r *auditLogRepo) CreateAuditEntry(ctx context.Context, e domain.AuditEntry) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO admin_audit_logs (id, actor_id, action, target_user_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.ActorID, e.Action, nullIfEmpty(e.TargetUserID), e.Detail, e.CreatedAt,
	)
	return err
}

func (r *auditLogRepo) ListAuditEntries(ctx context.Context, f store.AuditFilter) ([]domain.AuditEntry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	// ULIDs sort by creation time, so id ordering doubles as a stable
	// newest-first cursor.
	query := `
		SELECT id, actor_id, action, target_user_id, detail, created_at
		FROM admin_audit_logs WHERE 1=1`
	args := []any{}

	if f.TargetUserID != "" {
		query += ` AND target_user_id = ?`
		args = append(args, f.TargetUserID)
	}
	if f.AfterID != "" {
		query += ` AND id < ?`
		args = append(args, f.AfterID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		var (
			e      domain.AuditEntry
			target sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &target, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		if target.Valid {
			e.TargetUserID = target.String
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *auditLogRepo) CountAuditEntries(ctx context.Context, f store.AuditFilter) (int, error) {
	query := `SELECT COUNT(*) FROM admin_audit_logs WHERE 1=1`
	args := []any{}
	if f.TargetUserID != "" {
		query += ` AND target_user_id = ?`
		args = append(args, f.TargetUserID)
	}

	var count int
	err := r.q.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
