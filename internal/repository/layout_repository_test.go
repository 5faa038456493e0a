package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/jay1247sjh/smartmall-governance-api/internal/models"
)

func newLayoutRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func versionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "mall_id", "version_number", "status", "content", "description", "created_by", "created_by_role", "version", "created_at", "published_at"})
}

func TestLayoutRepositoryReviewProposal(t *testing.T) {
	db, mock, cleanup := newLayoutRepoMock(t)
	defer cleanup()

	repo := NewLayoutRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE layout_change_proposals")).
		WithArgs("APPROVED", sqlmock.AnyArg(), sqlmock.AnyArg(), "prop-1", "PENDING_REVIEW").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	comment := "looks good"
	err := repo.ReviewProposal(context.Background(), "prop-1", models.ProposalStatusApproved, &comment, time.Now(),
		&models.AuditLog{ActorID: "admin-1", Action: models.AuditActionProposalReview, Resource: "proposal", ResourceID: "prop-1"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLayoutRepositoryReviewProposalAlreadyResolved(t *testing.T) {
	db, mock, cleanup := newLayoutRepoMock(t)
	defer cleanup()

	repo := NewLayoutRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE layout_change_proposals")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ReviewProposal(context.Background(), "prop-1", models.ProposalStatusRejected, nil, time.Now(), nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLayoutRepositoryCreateDraft(t *testing.T) {
	db, mock, cleanup := newLayoutRepoMock(t)
	defer cleanup()

	repo := NewLayoutRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM malls")).
		WithArgs("mall-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("mall-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version_number), 0) + 1")).
		WithArgs("mall-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(4))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO layout_versions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE layout_change_proposals SET version_id")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	version := &models.LayoutVersion{
		MallID:        "mall-1",
		Content:       []byte(`{"objects":[]}`),
		Description:   "spring refresh",
		CreatedBy:     "admin-1",
		CreatedByRole: models.RoleAdmin,
	}
	err := repo.CreateDraft(context.Background(), DraftParams{
		Version:     version,
		ProposalIDs: []string{"prop-1"},
		Audit:       &models.AuditLog{ActorID: "admin-1", Action: models.AuditActionVersionCreate, Resource: "layout_version"},
	})
	require.NoError(t, err)
	require.Equal(t, 4, version.VersionNumber)
	require.Equal(t, models.VersionStatusDraft, version.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLayoutRepositoryCreateDraftRejectsUnattachableProposal(t *testing.T) {
	db, mock, cleanup := newLayoutRepoMock(t)
	defer cleanup()

	repo := NewLayoutRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM malls")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("mall-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version_number), 0) + 1")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO layout_versions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE layout_change_proposals SET version_id")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.CreateDraft(context.Background(), DraftParams{
		Version:     &models.LayoutVersion{MallID: "mall-1", CreatedBy: "admin-1", CreatedByRole: models.RoleAdmin},
		ProposalIDs: []string{"prop-rejected"},
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLayoutRepositoryPublish(t *testing.T) {
	db, mock, cleanup := newLayoutRepoMock(t)
	defer cleanup()

	repo := NewLayoutRepository(db)
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, mall_id, version_number, status")).
		WithArgs("ver-2").
		WillReturnRows(versionRows().
			AddRow("ver-2", "mall-1", 2, "DRAFT", []byte(`{}`), "draft", "admin-1", "ADMIN", 1, now, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM malls")).
		WithArgs("mall-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("mall-1"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE layout_versions SET status")).
		WithArgs("ARCHIVED", "mall-1", "ACTIVE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE layout_versions")).
		WithArgs("ACTIVE", now, "ver-2", "DRAFT").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE layout_change_proposals SET status")).
		WithArgs("MERGED", "ver-2", "APPROVED").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE malls SET current_layout_version")).
		WithArgs("ver-2", now, "mall-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	published, err := repo.Publish(context.Background(), PublishParams{
		VersionID:   "ver-2",
		PublishedBy: "admin-1",
		PublishedAt: now,
		Audit:       &models.AuditLog{ActorID: "admin-1", Action: models.AuditActionVersionPublish, Resource: "layout_version", ResourceID: "ver-2"},
	})
	require.NoError(t, err)
	require.Equal(t, models.VersionStatusActive, published.Status)
	require.NotNil(t, published.PublishedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLayoutRepositoryPublishRejectsNonDraft(t *testing.T) {
	db, mock, cleanup := newLayoutRepoMock(t)
	defer cleanup()

	repo := NewLayoutRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, mall_id, version_number, status")).
		WithArgs("ver-1").
		WillReturnRows(versionRows().
			AddRow("ver-1", "mall-1", 1, "ARCHIVED", []byte(`{}`), "", "admin-1", "ADMIN", 2, time.Now(), nil))
	mock.ExpectRollback()

	_, err := repo.Publish(context.Background(), PublishParams{
		VersionID:   "ver-1",
		PublishedBy: "admin-1",
		PublishedAt: time.Now(),
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
