package models

import "time"

// AuditAction constants cover every state-changing governance operation.
const (
	AuditActionApplySubmit      = "APPLY_SUBMIT"
	AuditActionApplyApprove     = "APPLY_APPROVE"
	AuditActionApplyReject      = "APPLY_REJECT"
	AuditActionPermissionGrant  = "PERMISSION_GRANT"
	AuditActionPermissionRevoke = "PERMISSION_REVOKE"
	AuditActionPermissionExpire = "PERMISSION_EXPIRE"
	AuditActionProposalSubmit   = "PROPOSAL_SUBMIT"
	AuditActionProposalReview   = "PROPOSAL_REVIEW"
	AuditActionVersionCreate    = "VERSION_CREATE"
	AuditActionVersionPublish   = "VERSION_PUBLISH"
	AuditActionVersionRollback  = "VERSION_ROLLBACK"
)

// AuditLog is an append-only record of a state-changing operation. Rows are
// written in the same transaction as the mutation they describe and are never
// updated or deleted.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	ActorID    string    `db:"actor_id" json:"actorId"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID string    `db:"resource_id" json:"resourceId"`
	OldValues  []byte    `db:"old_values" json:"oldValues,omitempty"`
	NewValues  []byte    `db:"new_values" json:"newValues,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// AuditFilter constrains audit trail queries.
type AuditFilter struct {
	ActorID    string
	Action     string
	Resource   string
	ResourceID string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
