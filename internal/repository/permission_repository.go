package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jay1247sjh/smartmall-governance-api/internal/models"
)

// PermissionRepository persists area permissions and owns the revoke and
// expiry-sweep transactions.
type PermissionRepository struct {
	db *sqlx.DB
}

// NewPermissionRepository constructs the repository.
func NewPermissionRepository(db *sqlx.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

const permissionColumns = `id, area_id, merchant_id, grant_type, status, granted_at, expires_at,
	granted_by, revoked_at, revoked_by, revoke_reason, version`

// GetByID fetches a permission by identifier.
func (r *PermissionRepository) GetByID(ctx context.Context, id string) (*models.AreaPermission, error) {
	query := fmt.Sprintf(`SELECT %s FROM area_permissions WHERE id = $1`, permissionColumns)
	var perm models.AreaPermission
	if err := r.db.GetContext(ctx, &perm, query, id); err != nil {
		return nil, err
	}
	return &perm, nil
}

// FindActiveByArea returns the ACTIVE permission for the area, or nil when
// none exists. The partial unique index guarantees at most one row.
func (r *PermissionRepository) FindActiveByArea(ctx context.Context, areaID string) (*models.AreaPermission, error) {
	query := fmt.Sprintf(`SELECT %s FROM area_permissions WHERE area_id = $1 AND status = $2`, permissionColumns)
	var perm models.AreaPermission
	if err := r.db.GetContext(ctx, &perm, query, areaID, models.PermissionStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find active permission: %w", err)
	}
	return &perm, nil
}

// ListByMerchant returns all permissions held by the merchant, newest first.
func (r *PermissionRepository) ListByMerchant(ctx context.Context, merchantID string) ([]models.AreaPermission, error) {
	query := fmt.Sprintf(`SELECT %s FROM area_permissions WHERE merchant_id = $1 ORDER BY granted_at DESC`, permissionColumns)
	var perms []models.AreaPermission
	if err := r.db.SelectContext(ctx, &perms, query, merchantID); err != nil {
		return nil, fmt.Errorf("list merchant permissions: %w", err)
	}
	return perms, nil
}

// RevokeParams bundles the rows touched by a revocation.
type RevokeParams struct {
	PermissionID    string
	ExpectedVersion int64
	AreaID          string
	RevokedBy       string
	Reason          string
	RevokedAt       time.Time
	Audit           *models.AuditLog
}

// Revoke terminates an ACTIVE permission and relocks its area in one
// transaction. The version guard surfaces concurrent writers as
// sql.ErrNoRows; in-flight proposals for the area are left untouched.
func (r *PermissionRepository) Revoke(ctx context.Context, params RevokeParams) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin revoke transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const revoke = `UPDATE area_permissions
	SET status = $1, revoked_at = $2, revoked_by = $3, revoke_reason = $4, version = version + 1
	WHERE id = $5 AND status = $6 AND version = $7`
	res, err := tx.ExecContext(ctx, revoke,
		models.PermissionStatusRevoked, params.RevokedAt, params.RevokedBy, params.Reason,
		params.PermissionID, models.PermissionStatusActive, params.ExpectedVersion)
	if err != nil {
		return fmt.Errorf("revoke permission: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}

	const relockArea = `UPDATE areas SET status = $1, version = version + 1, updated_at = $2
	WHERE id = $3 AND status = $4`
	res, err = tx.ExecContext(ctx, relockArea,
		models.AreaStatusLocked, time.Now().UTC(), params.AreaID, models.AreaStatusAuthorized)
	if err != nil {
		return fmt.Errorf("relock area: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}

	if err = insertAudit(ctx, tx, params.Audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit revoke: %w", err)
	}
	return nil
}

// SweepExpired persists the EXPIRED transition for every ACTIVE permission
// whose expiry has elapsed and relocks the owning areas. Returns the expired
// permissions so callers can emit events. One transaction covers the whole
// batch including its audit rows.
func (r *PermissionRepository) SweepExpired(ctx context.Context, now time.Time, sweeperID string) (expired []models.AreaPermission, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin sweep transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	expire := fmt.Sprintf(`UPDATE area_permissions
	SET status = $1, version = version + 1
	WHERE status = $2 AND expires_at IS NOT NULL AND expires_at <= $3
	RETURNING %s`, permissionColumns)
	if err = tx.SelectContext(ctx, &expired, expire,
		models.PermissionStatusExpired, models.PermissionStatusActive, now); err != nil {
		return nil, fmt.Errorf("expire permissions: %w", err)
	}
	if len(expired) == 0 {
		err = tx.Commit()
		return nil, err
	}

	const relockArea = `UPDATE areas SET status = $1, version = version + 1, updated_at = $2
	WHERE id = $3 AND status = $4`
	for _, perm := range expired {
		if _, err = tx.ExecContext(ctx, relockArea,
			models.AreaStatusLocked, now, perm.AreaID, models.AreaStatusAuthorized); err != nil {
			return nil, fmt.Errorf("relock area %s: %w", perm.AreaID, err)
		}
		entry := &models.AuditLog{
			ActorID:    sweeperID,
			Action:     models.AuditActionPermissionExpire,
			Resource:   "permission",
			ResourceID: perm.ID,
		}
		if err = insertAudit(ctx, tx, entry); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit sweep: %w", err)
	}
	return expired, nil
}
