package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jay1247sjh/smartmall-governance-api/internal/models"
)

// LayoutRepository persists layout versions and change proposals, and owns
// the draft/publish transactions guarding the single-ACTIVE-version
// invariant.
type LayoutRepository struct {
	db *sqlx.DB
}

// NewLayoutRepository constructs the repository.
func NewLayoutRepository(db *sqlx.DB) *LayoutRepository {
	return &LayoutRepository{db: db}
}

const versionColumns = `id, mall_id, version_number, status, content, description,
	created_by, created_by_role, version, created_at, published_at`

const proposalColumns = `id, area_id, merchant_id, description, changes, status,
	version_id, review_comment, submitted_at, reviewed_at`

// GetVersion fetches a layout version by identifier.
func (r *LayoutRepository) GetVersion(ctx context.Context, id string) (*models.LayoutVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM layout_versions WHERE id = $1`, versionColumns)
	var version models.LayoutVersion
	if err := r.db.GetContext(ctx, &version, query, id); err != nil {
		return nil, err
	}
	return &version, nil
}

// GetActiveVersion returns the mall's ACTIVE version. sql.ErrNoRows means the
// mall has never published.
func (r *LayoutRepository) GetActiveVersion(ctx context.Context, mallID string) (*models.LayoutVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM layout_versions WHERE mall_id = $1 AND status = $2`, versionColumns)
	var version models.LayoutVersion
	if err := r.db.GetContext(ctx, &version, query, mallID, models.VersionStatusActive); err != nil {
		return nil, err
	}
	return &version, nil
}

// ListVersions returns the mall's version history, newest first.
func (r *LayoutRepository) ListVersions(ctx context.Context, mallID string) ([]models.LayoutVersion, error) {
	query := fmt.Sprintf(`SELECT %s FROM layout_versions WHERE mall_id = $1 ORDER BY version_number DESC`, versionColumns)
	var versions []models.LayoutVersion
	if err := r.db.SelectContext(ctx, &versions, query, mallID); err != nil {
		return nil, fmt.Errorf("list layout versions: %w", err)
	}
	return versions, nil
}

// CreateProposal stores a merchant's frozen change snapshot.
func (r *LayoutRepository) CreateProposal(ctx context.Context, proposal *models.LayoutChangeProposal, audit *models.AuditLog) (err error) {
	if proposal.ID == "" {
		proposal.ID = uuid.NewString()
	}
	if proposal.Status == "" {
		proposal.Status = models.ProposalStatusPendingReview
	}
	if proposal.SubmittedAt.IsZero() {
		proposal.SubmittedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin proposal transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertProposal = `INSERT INTO layout_change_proposals
	(id, area_id, merchant_id, description, changes, status, submitted_at)
	VALUES (:id, :area_id, :merchant_id, :description, :changes, :status, :submitted_at)`
	if _, err = tx.NamedExecContext(ctx, insertProposal, proposal); err != nil {
		return fmt.Errorf("insert proposal: %w", err)
	}

	if err = insertAudit(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit proposal: %w", err)
	}
	return nil
}

// GetProposal fetches a proposal by identifier.
func (r *LayoutRepository) GetProposal(ctx context.Context, id string) (*models.LayoutChangeProposal, error) {
	query := fmt.Sprintf(`SELECT %s FROM layout_change_proposals WHERE id = $1`, proposalColumns)
	var proposal models.LayoutChangeProposal
	if err := r.db.GetContext(ctx, &proposal, query, id); err != nil {
		return nil, err
	}
	return &proposal, nil
}

// GetProposalsByIDs fetches the given proposals in one query.
func (r *LayoutRepository) GetProposalsByIDs(ctx context.Context, ids []string) ([]models.LayoutChangeProposal, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		fmt.Sprintf(`SELECT %s FROM layout_change_proposals WHERE id IN (?)`, proposalColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("build proposal query: %w", err)
	}
	query = r.db.Rebind(query)
	var proposals []models.LayoutChangeProposal
	if err := r.db.SelectContext(ctx, &proposals, query, args...); err != nil {
		return nil, fmt.Errorf("get proposals: %w", err)
	}
	return proposals, nil
}

// ListProposals returns proposals matching the filter, newest first.
func (r *LayoutRepository) ListProposals(ctx context.Context, filter models.ProposalFilter) ([]models.LayoutChangeProposal, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 5)
	fmt.Fprintf(&builder, `SELECT %s FROM layout_change_proposals`, proposalColumns)

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
	builder.WriteString(" ORDER BY submitted_at DESC")

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

	var proposals []models.LayoutChangeProposal
	if err := r.db.SelectContext(ctx, &proposals, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return proposals, nil
}

// ReviewProposal resolves a PENDING_REVIEW proposal. The guarded update
// returns sql.ErrNoRows when the proposal was already reviewed.
func (r *LayoutRepository) ReviewProposal(ctx context.Context, id string, decision models.ProposalStatus, comment *string, reviewedAt time.Time, audit *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const review = `UPDATE layout_change_proposals
	SET status = $1, review_comment = $2, reviewed_at = $3
	WHERE id = $4 AND status = $5`
	res, err := tx.ExecContext(ctx, review, decision, comment, reviewedAt, id, models.ProposalStatusPendingReview)
	if err != nil {
		return fmt.Errorf("review proposal: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}

	if err = insertAudit(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit review: %w", err)
	}
	return nil
}

// DraftParams bundles the rows touched by draft creation.
type DraftParams struct {
	Version     *models.LayoutVersion
	ProposalIDs []string
	Audit       *models.AuditLog
}

// CreateDraft inserts a DRAFT version and attaches the approved proposals to
// it. The mall row lock serialises version numbering per mall, keeping
// version_number strictly monotonic.
func (r *LayoutRepository) CreateDraft(ctx context.Context, params DraftParams) (err error) {
	version := params.Version
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now().UTC()
	}
	version.Status = models.VersionStatusDraft

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin draft transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var mallLock string
	if err = tx.GetContext(ctx, &mallLock,
		`SELECT id FROM malls WHERE id = $1 AND NOT deleted FOR UPDATE`, version.MallID); err != nil {
		return err
	}

	if err = tx.GetContext(ctx, &version.VersionNumber,
		`SELECT COALESCE(MAX(version_number), 0) + 1 FROM layout_versions WHERE mall_id = $1`,
		version.MallID); err != nil {
		return fmt.Errorf("next version number: %w", err)
	}

	const insertVersion = `INSERT INTO layout_versions
	(id, mall_id, version_number, status, content, description, created_by, created_by_role, version, created_at)
	VALUES (:id, :mall_id, :version_number, :status, :content, :description, :created_by, :created_by_role, :version, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertVersion, version); err != nil {
		return fmt.Errorf("insert draft version: %w", err)
	}

	const attach = `UPDATE layout_change_proposals SET version_id = $1
	WHERE id = $2 AND status = $3 AND version_id IS NULL`
	for _, proposalID := range params.ProposalIDs {
		var res sql.Result
		res, err = tx.ExecContext(ctx, attach, version.ID, proposalID, models.ProposalStatusApproved)
		if err != nil {
			return fmt.Errorf("attach proposal %s: %w", proposalID, err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			err = sql.ErrNoRows
			return err
		}
	}

	if err = insertAudit(ctx, tx, params.Audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit draft: %w", err)
	}
	return nil
}

// PublishParams bundles the rows touched by a publish.
type PublishParams struct {
	VersionID   string
	PublishedBy string
	PublishedAt time.Time
	Audit       *models.AuditLog
}

// Publish promotes a DRAFT version to ACTIVE, archiving the previously
// active version, merging attached proposals, and refreshing the mall's
// cached pointer in one transaction. A partial failure leaves the
// prior ACTIVE version untouched.
func (r *LayoutRepository) Publish(ctx context.Context, params PublishParams) (published *models.LayoutVersion, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin publish transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var target models.LayoutVersion
	query := fmt.Sprintf(`SELECT %s FROM layout_versions WHERE id = $1 FOR UPDATE`, versionColumns)
	if err = tx.GetContext(ctx, &target, query, params.VersionID); err != nil {
		return nil, err
	}
	if target.Status != models.VersionStatusDraft {
		err = sql.ErrNoRows
		return nil, err
	}

	var mallLock string
	if err = tx.GetContext(ctx, &mallLock,
		`SELECT id FROM malls WHERE id = $1 AND NOT deleted FOR UPDATE`, target.MallID); err != nil {
		return nil, err
	}

	const archivePrevious = `UPDATE layout_versions SET status = $1, version = version + 1
	WHERE mall_id = $2 AND status = $3`
	if _, err = tx.ExecContext(ctx, archivePrevious,
		models.VersionStatusArchived, target.MallID, models.VersionStatusActive); err != nil {
		return nil, fmt.Errorf("archive previous version: %w", err)
	}

	// Guarded on DRAFT; the partial unique index on (mall_id) WHERE
	// status='ACTIVE' backstops any archive race.
	const activate = `UPDATE layout_versions
	SET status = $1, published_at = $2, version = version + 1
	WHERE id = $3 AND status = $4`
	res, err := tx.ExecContext(ctx, activate,
		models.VersionStatusActive, params.PublishedAt, target.ID, models.VersionStatusDraft)
	if err != nil {
		return nil, fmt.Errorf("activate version: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		err = sql.ErrNoRows
		return nil, err
	}

	const mergeProposals = `UPDATE layout_change_proposals SET status = $1
	WHERE version_id = $2 AND status = $3`
	if _, err = tx.ExecContext(ctx, mergeProposals,
		models.ProposalStatusMerged, target.ID, models.ProposalStatusApproved); err != nil {
		return nil, fmt.Errorf("merge proposals: %w", err)
	}

	const pointMall = `UPDATE malls SET current_layout_version = $1, version = version + 1, updated_at = $2
	WHERE id = $3`
	if _, err = tx.ExecContext(ctx, pointMall, target.ID, params.PublishedAt, target.MallID); err != nil {
		return nil, fmt.Errorf("update mall pointer: %w", err)
	}

	if err = insertAudit(ctx, tx, params.Audit); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit publish: %w", err)
	}

	target.Status = models.VersionStatusActive
	target.PublishedAt = &params.PublishedAt
	return &target, nil
}
