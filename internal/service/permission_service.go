package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jay1247sjh/smartmall-governance-api/internal/dto"
	"github.com/jay1247sjh/smartmall-governance-api/internal/models"
	"github.com/jay1247sjh/smartmall-governance-api/internal/repository"
	appErrors "github.com/jay1247sjh/smartmall-governance-api/pkg/errors"
)

type permissionStore interface {
	GetByID(ctx context.Context, id string) (*models.AreaPermission, error)
	FindActiveByArea(ctx context.Context, areaID string) (*models.AreaPermission, error)
	ListByMerchant(ctx context.Context, merchantID string) ([]models.AreaPermission, error)
	Revoke(ctx context.Context, params repository.RevokeParams) error
	SweepExpired(ctx context.Context, now time.Time, sweeperID string) ([]models.AreaPermission, error)
}

// PermissionService answers effective-permission questions and owns the
// revoke and expiry flows. Reads apply lazy expiry: a stored ACTIVE row past
// its expiry reports as inactive immediately, the sweep persists the
// transition later.
type PermissionService struct {
	perms  permissionStore
	events EventSink
	logger *zap.Logger
}

// NewPermissionService constructs the service.
func NewPermissionService(perms permissionStore, events EventSink, logger *zap.Logger) *PermissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = NopSink{}
	}
	return &PermissionService{perms: perms, events: events, logger: logger}
}

// CheckActive reports whether the merchant currently holds editing rights
// over the area. This is the builder's gate before opening the editor.
func (s *PermissionService) CheckActive(ctx context.Context, areaID, merchantID string) (*dto.CheckActiveResponse, error) {
	perm, err := s.perms.FindActiveByArea(ctx, areaID)
	if err != nil {
		return nil, appErrors.Internal(err, "check active permission")
	}
	active := perm.EffectivelyActive(time.Now().UTC()) && perm.MerchantID == merchantID
	return &dto.CheckActiveResponse{AreaID: areaID, MerchantID: merchantID, Active: active}, nil
}

// ActiveForArea returns the effectively active permission for the area, or a
// not-found error when none holds rights right now.
func (s *PermissionService) ActiveForArea(ctx context.Context, areaID string) (*models.AreaPermission, error) {
	perm, err := s.perms.FindActiveByArea(ctx, areaID)
	if err != nil {
		return nil, appErrors.Internal(err, "find active permission")
	}
	if !perm.EffectivelyActive(time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no active permission for area")
	}
	return perm, nil
}

// Get returns one permission. Merchants only see their own.
func (s *PermissionService) Get(ctx context.Context, actor *models.Identity, id string) (*models.AreaPermission, error) {
	perm, err := s.perms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "permission not found")
		}
		return nil, appErrors.Internal(err, "load permission")
	}
	if actor.Role != models.RoleAdmin && perm.MerchantID != actor.ActorMerchantID() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not your permission")
	}
	return perm, nil
}

// ListMerchantPermissions returns the merchant's permission history.
func (s *PermissionService) ListMerchantPermissions(ctx context.Context, actor *models.Identity, merchantID string) ([]models.AreaPermission, error) {
	if actor.Role != models.RoleAdmin && merchantID != actor.ActorMerchantID() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not your permissions")
	}
	perms, err := s.perms.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, appErrors.Internal(err, "list permissions")
	}
	return perms, nil
}

// Revoke terminates an active permission and relocks its area. Concurrent
// revokes lose on the version guard and surface as conflicts.
func (s *PermissionService) Revoke(ctx context.Context, actor *models.Identity, permissionID string, req dto.RevokePermissionRequest) error {
	if actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins may revoke permissions")
	}

	perm, err := s.perms.GetByID(ctx, permissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "permission not found")
		}
		return appErrors.Internal(err, "load permission")
	}
	if perm.Status != models.PermissionStatusActive {
		return appErrors.Clone(appErrors.ErrInvalidState, "permission is not active")
	}

	err = s.perms.Revoke(ctx, repository.RevokeParams{
		PermissionID:    permissionID,
		ExpectedVersion: perm.Version,
		AreaID:          perm.AreaID,
		RevokedBy:       actor.UserID,
		Reason:          req.Reason,
		RevokedAt:       time.Now().UTC(),
		Audit: &models.AuditLog{
			ActorID:    actor.UserID,
			Action:     models.AuditActionPermissionRevoke,
			Resource:   "permission",
			ResourceID: permissionID,
		},
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "permission changed concurrently, retry")
		}
		return appErrors.Internal(err, "revoke permission")
	}

	s.events.Notify(models.DomainEvent{
		Type:       models.EventPermissionRevoked,
		ActorID:    actor.UserID,
		Resource:   "permission",
		ResourceID: permissionID,
		AreaID:     perm.AreaID,
	})
	s.logger.Sugar().Infow("permission revoked", "permission_id", permissionID, "area_id", perm.AreaID, "revoked_by", actor.UserID)
	return nil
}

// Sweep persists the EXPIRED transition for every overdue permission and
// emits one event per expiry. Invoked by the scheduler; safe to run
// concurrently with reads thanks to the guarded batch update.
func (s *PermissionService) Sweep(ctx context.Context, sweeperID string) (int, error) {
	expired, err := s.perms.SweepExpired(ctx, time.Now().UTC(), sweeperID)
	if err != nil {
		return 0, appErrors.Internal(err, "sweep expired permissions")
	}
	for _, perm := range expired {
		s.events.Notify(models.DomainEvent{
			Type:       models.EventPermissionExpired,
			ActorID:    sweeperID,
			Resource:   "permission",
			ResourceID: perm.ID,
			AreaID:     perm.AreaID,
		})
	}
	if len(expired) > 0 {
		s.logger.Sugar().Infow("expired permissions swept", "count", len(expired))
	}
	return len(expired), nil
}
