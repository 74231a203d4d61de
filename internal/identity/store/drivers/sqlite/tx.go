package sqlite

import (
	"context"
	"database/sql"

	"github.com/nexusai/careerid/internal/identity/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // nothing to close; caller will commit/rollback and outer DB stays open

// Ping is a no-op for transactions. The connection is already established
// when the transaction is created.
func (t *txStore) Ping(ctx context.Context) error {
	return nil
}

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return sql.ErrTxDone
}

func (t *txStore) Users() store.Users                   { return &usersRepo{q: t.tx} }
func (t *txStore) Profiles() store.Profiles             { return &profilesRepo{q: t.tx} }
func (t *txStore) Roles() store.Roles                   { return &rolesRepo{q: t.tx} }
func (t *txStore) RefreshTokens() store.RefreshTokens   { return &refreshTokensRepo{q: t.tx} }
func (t *txStore) MFAChallenges() store.MFAChallenges   { return &mfaChallengesRepo{q: t.tx} }
func (t *txStore) MFAEnrollments() store.MFAEnrollments { return &mfaEnrollmentsRepo{q: t.tx} }
func (t *txStore) BackupCodes() store.BackupCodes       { return &backupCodesRepo{q: t.tx} }
func (t *txStore) EmailTokens() store.EmailTokens       { return &emailTokensRepo{q: t.tx} }
func (t *txStore) AuditLog() store.AuditLog             { return &auditLogRepo{q: t.tx} }

func (t *txStore) ApplyMigrations() error { return nil } // no-op; migrations are applied before starting a tx
