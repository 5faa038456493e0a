package models

import "time"

// PermissionStatus enumerates the lifecycle of an area permission. REVOKED and
// EXPIRED are terminal.
type PermissionStatus string

const (
	PermissionStatusActive  PermissionStatus = "ACTIVE"
	PermissionStatusFrozen  PermissionStatus = "FROZEN"
	PermissionStatusExpired PermissionStatus = "EXPIRED"
	PermissionStatusRevoked PermissionStatus = "REVOKED"
)

// GrantType distinguishes how a permission came to exist.
type GrantType string

const (
	GrantTypeAdminApproval GrantType = "ADMIN_APPROVAL"
	GrantTypeAutoRule      GrantType = "AUTO_RULE"
)

// AreaPermission is a live, time-bounded grant of editing rights over exactly
// one area to exactly one merchant. At most one ACTIVE permission may exist
// per area at any instant (partial unique index in the schema).
type AreaPermission struct {
	ID           string           `db:"id" json:"id"`
	AreaID       string           `db:"area_id" json:"areaId"`
	MerchantID   string           `db:"merchant_id" json:"merchantId"`
	GrantType    GrantType        `db:"grant_type" json:"grantType"`
	Status       PermissionStatus `db:"status" json:"status"`
	GrantedAt    time.Time        `db:"granted_at" json:"grantedAt"`
	ExpiresAt    *time.Time       `db:"expires_at" json:"expiresAt,omitempty"`
	GrantedBy    string           `db:"granted_by" json:"grantedBy"`
	RevokedAt    *time.Time       `db:"revoked_at" json:"revokedAt,omitempty"`
	RevokedBy    *string          `db:"revoked_by" json:"revokedBy,omitempty"`
	RevokeReason *string          `db:"revoke_reason" json:"revokeReason,omitempty"`
	Version      int64            `db:"version" json:"version"`
}

// EffectivelyActive reports whether the permission grants rights at the given
// instant. A stored ACTIVE row whose expiry has elapsed counts as expired even
// before the sweep persists the transition.
func (p *AreaPermission) EffectivelyActive(now time.Time) bool {
	if p == nil || p.Status != PermissionStatusActive {
		return false
	}
	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		return false
	}
	return true
}
