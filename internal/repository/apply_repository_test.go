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

func newApplyRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestApplyRepositorySubmit(t *testing.T) {
	db, mock, cleanup := newApplyRepoMock(t)
	defer cleanup()

	repo := NewApplyRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE areas SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO area_applies")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	apply := &models.AreaApply{
		AreaID:     "area-1",
		MerchantID: "merchant-1",
		Reason:     "seasonal popup",
	}
	audit := &models.AuditLog{ActorID: "merchant-1", Action: models.AuditActionApplySubmit, Resource: "apply"}
	require.NoError(t, repo.Submit(context.Background(), apply, audit))
	require.NotEmpty(t, apply.ID)
	require.Equal(t, apply.ID, audit.ResourceID)
	require.Equal(t, models.ApplyStatusPending, apply.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRepositorySubmitLosesRace(t *testing.T) {
	db, mock, cleanup := newApplyRepoMock(t)
	defer cleanup()

	repo := NewApplyRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE areas SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	apply := &models.AreaApply{AreaID: "area-1", MerchantID: "merchant-2", Reason: "too late"}
	err := repo.Submit(context.Background(), apply, nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRepositoryApprove(t *testing.T) {
	db, mock, cleanup := newApplyRepoMock(t)
	defer cleanup()

	repo := NewApplyRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE area_applies")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO area_permissions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE areas SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	expires := time.Now().Add(30 * 24 * time.Hour)
	err := repo.Approve(context.Background(), ApproveParams{
		ApplyID:    "apply-1",
		ReviewerID: "admin-1",
		ReviewedAt: time.Now(),
		Permission: &models.AreaPermission{
			AreaID:     "area-1",
			MerchantID: "merchant-1",
			GrantType:  models.GrantTypeAdminApproval,
			Status:     models.PermissionStatusActive,
			GrantedAt:  time.Now(),
			ExpiresAt:  &expires,
			GrantedBy:  "admin-1",
		},
		Audits: []*models.AuditLog{
			{ActorID: "admin-1", Action: models.AuditActionApplyApprove, Resource: "apply", ResourceID: "apply-1"},
			{ActorID: "admin-1", Action: models.AuditActionPermissionGrant, Resource: "permission"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRepositoryApproveAlreadyResolved(t *testing.T) {
	db, mock, cleanup := newApplyRepoMock(t)
	defer cleanup()

	repo := NewApplyRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE area_applies")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Approve(context.Background(), ApproveParams{
		ApplyID:    "apply-1",
		ReviewerID: "admin-1",
		ReviewedAt: time.Now(),
		Permission: &models.AreaPermission{AreaID: "area-1"},
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRepositoryReject(t *testing.T) {
	db, mock, cleanup := newApplyRepoMock(t)
	defer cleanup()

	repo := NewApplyRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE area_applies")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE areas SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Reject(context.Background(), RejectParams{
		ApplyID:    "apply-1",
		AreaID:     "area-1",
		ReviewerID: "admin-1",
		Reason:     "area reserved for anchor tenant",
		ReviewedAt: time.Now(),
		Audit:      &models.AuditLog{ActorID: "admin-1", Action: models.AuditActionApplyReject, Resource: "apply", ResourceID: "apply-1"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newApplyRepoMock(t)
	defer cleanup()

	repo := NewApplyRepository(db)
	rows := sqlmock.NewRows([]string{"id", "area_id", "merchant_id", "reason", "requested_duration_days", "status", "reviewer_id", "review_comment", "created_at", "reviewed_at"}).
		AddRow("apply-1", "area-1", "merchant-1", "popup", nil, "PENDING", nil, nil, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, area_id, merchant_id, reason")).
		WithArgs("merchant-1", "PENDING", 50).
		WillReturnRows(rows)

	applies, err := repo.List(context.Background(), models.ApplyFilter{
		MerchantID: "merchant-1",
		Status:     []models.ApplyStatus{models.ApplyStatusPending},
	})
	require.NoError(t, err)
	require.Len(t, applies, 1)
	require.Equal(t, "apply-1", applies[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRepositoryHasPending(t *testing.T) {
	db, mock, cleanup := newApplyRepoMock(t)
	defer cleanup()

	repo := NewApplyRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM area_applies")).
		WithArgs("area-1", "PENDING").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	pending, err := repo.HasPending(context.Background(), "area-1")
	require.NoError(t, err)
	require.True(t, pending)
	require.NoError(t, mock.ExpectationsWereMet())
}
