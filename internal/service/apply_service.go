package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jay1247sjh/smartmall-governance-api/internal/dto"
	"github.com/jay1247sjh/smartmall-governance-api/internal/models"
	"github.com/jay1247sjh/smartmall-governance-api/internal/repository"
	appErrors "github.com/jay1247sjh/smartmall-governance-api/pkg/errors"
)

type applyStore interface {
	GetByID(ctx context.Context, id string) (*models.AreaApply, error)
	HasPending(ctx context.Context, areaID string) (bool, error)
	List(ctx context.Context, filter models.ApplyFilter) ([]models.AreaApply, error)
	Submit(ctx context.Context, apply *models.AreaApply, audit *models.AuditLog) error
	Approve(ctx context.Context, params repository.ApproveParams) error
	Reject(ctx context.Context, params repository.RejectParams) error
}

type areaStore interface {
	GetByID(ctx context.Context, id string) (*models.Area, error)
	ListAvailable(ctx context.Context, mallID, floorID string) ([]models.Area, error)
}

// ApplyService orchestrates the area application workflow: merchant submit,
// admin approve or reject. The repository transactions carry the actual state
// transitions; this layer owns authorization, validation, and events.
type ApplyService struct {
	applies applyStore
	areas   areaStore
	events  EventSink
	logger  *zap.Logger

	defaultTTL time.Duration
}

// NewApplyService constructs the service.
func NewApplyService(applies applyStore, areas areaStore, events EventSink, defaultTTL time.Duration, logger *zap.Logger) *ApplyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = NopSink{}
	}
	return &ApplyService{applies: applies, areas: areas, events: events, defaultTTL: defaultTTL, logger: logger}
}

// ListAvailableAreas returns areas currently open for application.
func (s *ApplyService) ListAvailableAreas(ctx context.Context, mallID, floorID string) ([]models.Area, error) {
	return s.areas.ListAvailable(ctx, mallID, floorID)
}

// Submit files a merchant's application for a locked area. The guarded area
// update inside the repository decides races; the loser of a concurrent
// submit gets an invalid-state error, not a duplicate application.
func (s *ApplyService) Submit(ctx context.Context, actor *models.Identity, req dto.SubmitApplyRequest) (*models.AreaApply, error) {
	if actor.Role != models.RoleMerchant {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only merchants may apply for areas")
	}

	area, err := s.areas.GetByID(ctx, req.AreaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "area not found")
		}
		return nil, appErrors.Internal(err, "load area")
	}
	if area.Status != models.AreaStatusLocked {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "area is not open for application")
	}

	pending, err := s.applies.HasPending(ctx, area.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "check pending applications")
	}
	if pending {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "a pending application already exists for this area")
	}

	apply := &models.AreaApply{
		AreaID:                area.ID,
		MerchantID:            actor.ActorMerchantID(),
		Reason:                req.Reason,
		RequestedDurationDays: req.RequestedDurationDays,
	}
	newValues, _ := json.Marshal(apply)
	audit := &models.AuditLog{
		ActorID:   actor.UserID,
		Action:    models.AuditActionApplySubmit,
		Resource:  "apply",
		NewValues: newValues,
	}
	if err := s.applies.Submit(ctx, apply, audit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "area was claimed by another application")
		}
		return nil, appErrors.Internal(err, "submit application")
	}

	s.events.Notify(models.DomainEvent{
		Type:       models.EventApplyCreated,
		ActorID:    actor.UserID,
		Resource:   "apply",
		ResourceID: apply.ID,
		MallID:     area.MallID,
		AreaID:     area.ID,
	})
	s.logger.Sugar().Infow("application submitted", "apply_id", apply.ID, "area_id", area.ID, "merchant_id", apply.MerchantID)
	return apply, nil
}

// Approve resolves a pending application in the merchant's favor, minting the
// area permission and authorizing the area in one transaction.
func (s *ApplyService) Approve(ctx context.Context, actor *models.Identity, applyID string, req dto.ApproveApplyRequest) (*models.AreaPermission, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins may review applications")
	}

	apply, err := s.applies.GetByID(ctx, applyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Internal(err, "load application")
	}
	if apply.Status != models.ApplyStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "application already resolved")
	}

	area, err := s.areas.GetByID(ctx, apply.AreaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "area not found")
		}
		return nil, appErrors.Internal(err, "load area")
	}

	now := time.Now().UTC()
	expiresAt, err := s.resolveExpiry(req.ExpiresAt, apply.RequestedDurationDays, now)
	if err != nil {
		return nil, err
	}

	perm := &models.AreaPermission{
		AreaID:     apply.AreaID,
		MerchantID: apply.MerchantID,
		GrantType:  models.GrantTypeAdminApproval,
		Status:     models.PermissionStatusActive,
		GrantedAt:  now,
		ExpiresAt:  expiresAt,
		GrantedBy:  actor.UserID,
	}

	var comment *string
	if req.Comment != "" {
		comment = &req.Comment
	}
	permValues, _ := json.Marshal(perm)
	err = s.applies.Approve(ctx, repository.ApproveParams{
		ApplyID:    applyID,
		ReviewerID: actor.UserID,
		Comment:    comment,
		ReviewedAt: now,
		Permission: perm,
		Audits: []*models.AuditLog{
			{ActorID: actor.UserID, Action: models.AuditActionApplyApprove, Resource: "apply", ResourceID: applyID},
			{ActorID: actor.UserID, Action: models.AuditActionPermissionGrant, Resource: "permission", ResourceID: perm.ID, NewValues: permValues},
		},
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "application already resolved")
		}
		if errors.Is(err, repository.ErrActivePermissionExists) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "area already has an active permission")
		}
		return nil, appErrors.Internal(err, "approve application")
	}

	s.events.Notify(models.DomainEvent{
		Type:       models.EventApplyApproved,
		ActorID:    actor.UserID,
		Resource:   "apply",
		ResourceID: applyID,
		MallID:     area.MallID,
		AreaID:     apply.AreaID,
	})
	s.logger.Sugar().Infow("application approved", "apply_id", applyID, "permission_id", perm.ID, "reviewer", actor.UserID)
	return perm, nil
}

// Reject resolves a pending application against the merchant and returns the
// area to the applicant pool. The reason is mandatory and lands in both the
// application record and the audit trail.
func (s *ApplyService) Reject(ctx context.Context, actor *models.Identity, applyID string, req dto.RejectApplyRequest) error {
	if actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins may review applications")
	}

	apply, err := s.applies.GetByID(ctx, applyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return appErrors.Internal(err, "load application")
	}
	if apply.Status != models.ApplyStatusPending {
		return appErrors.Clone(appErrors.ErrInvalidState, "application already resolved")
	}

	now := time.Now().UTC()
	err = s.applies.Reject(ctx, repository.RejectParams{
		ApplyID:    applyID,
		AreaID:     apply.AreaID,
		ReviewerID: actor.UserID,
		Reason:     req.Reason,
		ReviewedAt: now,
		Audit: &models.AuditLog{
			ActorID:    actor.UserID,
			Action:     models.AuditActionApplyReject,
			Resource:   "apply",
			ResourceID: applyID,
		},
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidState, "application already resolved")
		}
		return appErrors.Internal(err, "reject application")
	}

	s.events.Notify(models.DomainEvent{
		Type:       models.EventApplyRejected,
		ActorID:    actor.UserID,
		Resource:   "apply",
		ResourceID: applyID,
		AreaID:     apply.AreaID,
	})
	s.logger.Sugar().Infow("application rejected", "apply_id", applyID, "reviewer", actor.UserID)
	return nil
}

// Get returns one application. Merchants only see their own.
func (s *ApplyService) Get(ctx context.Context, actor *models.Identity, applyID string) (*models.AreaApply, error) {
	apply, err := s.applies.GetByID(ctx, applyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Internal(err, "load application")
	}
	if actor.Role != models.RoleAdmin && apply.MerchantID != actor.ActorMerchantID() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not your application")
	}
	return apply, nil
}

// List returns applications visible to the actor. Merchants are always scoped
// to their own applications regardless of the requested filter.
func (s *ApplyService) List(ctx context.Context, actor *models.Identity, query dto.ApplyQuery) ([]models.AreaApply, error) {
	filter := models.ApplyFilter{
		AreaID: query.AreaID,
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if query.Status != "" {
		filter.Status = []models.ApplyStatus{models.ApplyStatus(query.Status)}
	}
	if actor.Role != models.RoleAdmin {
		filter.MerchantID = actor.ActorMerchantID()
	}
	applies, err := s.applies.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "list applications")
	}
	return applies, nil
}

func (s *ApplyService) resolveExpiry(raw string, requestedDays *int, now time.Time) (*time.Time, error) {
	if raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "expiresAt must be RFC3339")
		}
		if !parsed.After(now) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "expiresAt must be in the future")
		}
		return &parsed, nil
	}
	if requestedDays != nil && *requestedDays > 0 {
		expires := now.AddDate(0, 0, *requestedDays)
		return &expires, nil
	}
	if s.defaultTTL > 0 {
		expires := now.Add(s.defaultTTL)
		return &expires, nil
	}
	// No expiry requested and no default configured: permission lives until
	// revoked.
	return nil, nil
}
