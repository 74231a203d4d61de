package domain

import "time"

// Audit actions.
const (
	AuditActionDeleteUser  = "delete_user"
	AuditActionUpdateRole  = "update_role"
	AuditActionBootstrap   = "bootstrap_admin"
	AuditActionMFAUnenroll = "mfa_unenroll"
)

// AuditEntry records one administrative action. Actor and target are plain
// ids rather than foreign keys so entries survive account deletion.
type AuditEntry struct {
	ID           string // ULID
	ActorID      string // UUID of the admin who acted
	Action       string
	TargetUserID string // UUID of the affected user, if any
	Detail       string // optional free-form context
	CreatedAt    time.Time
}
