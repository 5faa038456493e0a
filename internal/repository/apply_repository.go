package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jay1247sjh/smartmall-governance-api/internal/models"
)

// ErrActivePermissionExists reports that the partial unique index on ACTIVE
// permissions rejected a grant because the area already has one.
var ErrActivePermissionExists = errors.New("area already has an active permission")

// ApplyRepository persists area applications and owns the multi-row
// transactions of the apply workflow. Guarded updates return sql.ErrNoRows
// when the expected predecessor state is gone; services translate that into
// the invalid-state/conflict taxonomy.
type ApplyRepository struct {
	db *sqlx.DB
}

// NewApplyRepository constructs the repository.
func NewApplyRepository(db *sqlx.DB) *ApplyRepository {
	return &ApplyRepository{db: db}
}

const applyColumns = `id, area_id, merchant_id, reason, requested_duration_days, status,
	reviewer_id, review_comment, created_at, reviewed_at`

// GetByID fetches an application by identifier.
func (r *ApplyRepository) GetByID(ctx context.Context, id string) (*models.AreaApply, error) {
	query := fmt.Sprintf(`SELECT %s FROM area_applies WHERE id = $1`, applyColumns)
	var apply models.AreaApply
	if err := r.db.GetContext(ctx, &apply, query, id); err != nil {
		return nil, err
	}
	return &apply, nil
}

// HasPending reports whether any merchant already has a PENDING application
// for the area.
func (r *ApplyRepository) HasPending(ctx context.Context, areaID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM area_applies WHERE area_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, areaID, models.ApplyStatusPending); err != nil {
		return false, fmt.Errorf("count pending applies: %w", err)
	}
	return count > 0, nil
}

// List returns applications matching the filter, newest first.
func (r *ApplyRepository) List(ctx context.Context, filter models.ApplyFilter) ([]models.AreaApply, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 5)
	fmt.Fprintf(&builder, `SELECT %s FROM area_applies`, applyColumns)

	conditions := make([]string, 0, 3)
	if filter.AreaID != "" {
		args = append(args, filter.AreaID)
		conditions = append(conditions, fmt.Sprintf("area_id = $%d", len(args)))
	}
	if filter.MerchantID != "" {
		args = append(args, filter.MerchantID)
		conditions = append(conditions, fmt.Sprintf("merchant_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	args = append(args, limit)
	fmt.Fprintf(&builder, " LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&builder, " OFFSET $%d", len(args))
	}

	var applies []models.AreaApply
	if err := r.db.SelectContext(ctx, &applies, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list applies: %w", err)
	}
	return applies, nil
}

// Submit inserts the application and flips the area LOCKED -> PENDING in one
// transaction. The guarded area update is the mutex deciding submit races:
// the loser gets sql.ErrNoRows.
func (r *ApplyRepository) Submit(ctx context.Context, apply *models.AreaApply, audit *models.AuditLog) (err error) {
	if apply.ID == "" {
		apply.ID = uuid.NewString()
	}
	if apply.Status == "" {
		apply.Status = models.ApplyStatusPending
	}
	if apply.CreatedAt.IsZero() {
		apply.CreatedAt = time.Now().UTC()
	}
	// The trail keys every entry for an application on the apply ID, which
	// only exists once generated here.
	if audit != nil && audit.ResourceID == "" {
		audit.ResourceID = apply.ID
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submit transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const lockArea = `UPDATE areas SET status = $1, version = version + 1, updated_at = $2
	WHERE id = $3 AND NOT deleted AND status = $4`
	res, err := tx.ExecContext(ctx, lockArea,
		models.AreaStatusPending, time.Now().UTC(), apply.AreaID, models.AreaStatusLocked)
	if err != nil {
		return fmt.Errorf("transition area to pending: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}

	const insertApply = `INSERT INTO area_applies
	(id, area_id, merchant_id, reason, requested_duration_days, status, created_at)
	VALUES (:id, :area_id, :merchant_id, :reason, :requested_duration_days, :status, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertApply, apply); err != nil {
		return fmt.Errorf("insert apply: %w", err)
	}

	if err = insertAudit(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit submit: %w", err)
	}
	return nil
}

// ApproveParams bundles the rows touched by an approval.
type ApproveParams struct {
	ApplyID    string
	ReviewerID string
	Comment    *string
	ReviewedAt time.Time
	Permission *models.AreaPermission
	Audits     []*models.AuditLog
}

// Approve resolves the application, creates the permission, and authorizes
// the area in one transaction. Either every row lands or none does.
func (r *ApplyRepository) Approve(ctx context.Context, params ApproveParams) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const resolveApply = `UPDATE area_applies
	SET status = $1, reviewer_id = $2, review_comment = $3, reviewed_at = $4
	WHERE id = $5 AND status = $6`
	res, err := tx.ExecContext(ctx, resolveApply,
		models.ApplyStatusApproved, params.ReviewerID, params.Comment, params.ReviewedAt,
		params.ApplyID, models.ApplyStatusPending)
	if err != nil {
		return fmt.Errorf("approve apply: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}

	perm := params.Permission
	if perm.ID == "" {
		perm.ID = uuid.NewString()
	}
	// The partial unique index on (area_id) WHERE status='ACTIVE' is the
	// second line of defense should this insert race a surviving grant.
	const insertPermission = `INSERT INTO area_permissions
	(id, area_id, merchant_id, grant_type, status, granted_at, expires_at, granted_by, version)
	VALUES (:id, :area_id, :merchant_id, :grant_type, :status, :granted_at, :expires_at, :granted_by, :version)`
	if _, err = tx.NamedExecContext(ctx, insertPermission, perm); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			err = ErrActivePermissionExists
			return err
		}
		return fmt.Errorf("insert permission: %w", err)
	}

	const authorizeArea = `UPDATE areas SET status = $1, version = version + 1, updated_at = $2
	WHERE id = $3 AND status = $4`
	res, err = tx.ExecContext(ctx, authorizeArea,
		models.AreaStatusAuthorized, time.Now().UTC(), perm.AreaID, models.AreaStatusPending)
	if err != nil {
		return fmt.Errorf("authorize area: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}

	for _, entry := range params.Audits {
		if err = insertAudit(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit approve: %w", err)
	}
	return nil
}

// RejectParams bundles the rows touched by a rejection.
type RejectParams struct {
	ApplyID    string
	AreaID     string
	ReviewerID string
	Reason     string
	ReviewedAt time.Time
	Audit      *models.AuditLog
}

// Reject resolves the application and returns the area to LOCKED in one
// transaction.
func (r *ApplyRepository) Reject(ctx context.Context, params RejectParams) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reject transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const resolveApply = `UPDATE area_applies
	SET status = $1, reviewer_id = $2, review_comment = $3, reviewed_at = $4
	WHERE id = $5 AND status = $6`
	res, err := tx.ExecContext(ctx, resolveApply,
		models.ApplyStatusRejected, params.ReviewerID, params.Reason, params.ReviewedAt,
		params.ApplyID, models.ApplyStatusPending)
	if err != nil {
		return fmt.Errorf("reject apply: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}

	const unlockArea = `UPDATE areas SET status = $1, version = version + 1, updated_at = $2
	WHERE id = $3 AND status = $4`
	res, err = tx.ExecContext(ctx, unlockArea,
		models.AreaStatusLocked, time.Now().UTC(), params.AreaID, models.AreaStatusPending)
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
		return fmt.Errorf("commit reject: %w", err)
	}
	return nil
}
