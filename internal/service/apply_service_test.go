package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jay1247sjh/smartmall-governance-api/internal/dto"
	"github.com/jay1247sjh/smartmall-governance-api/internal/models"
	"github.com/jay1247sjh/smartmall-governance-api/internal/repository"
)

type applyRepoStub struct {
	applies map[string]*models.AreaApply
	areas   *areaRepoStub
	filter  models.ApplyFilter
	perms   []*models.AreaPermission
}

func newApplyRepoStub(areas *areaRepoStub) *applyRepoStub {
	return &applyRepoStub{applies: make(map[string]*models.AreaApply), areas: areas}
}

func (s *applyRepoStub) GetByID(ctx context.Context, id string) (*models.AreaApply, error) {
	if apply, ok := s.applies[id]; ok {
		copy := *apply
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *applyRepoStub) HasPending(ctx context.Context, areaID string) (bool, error) {
	for _, apply := range s.applies {
		if apply.AreaID == areaID && apply.Status == models.ApplyStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *applyRepoStub) List(ctx context.Context, filter models.ApplyFilter) ([]models.AreaApply, error) {
	s.filter = filter
	result := make([]models.AreaApply, 0, len(s.applies))
	for _, apply := range s.applies {
		result = append(result, *apply)
	}
	return result, nil
}

func (s *applyRepoStub) Submit(ctx context.Context, apply *models.AreaApply, audit *models.AuditLog) error {
	area, ok := s.areas.areas[apply.AreaID]
	if !ok || area.Status != models.AreaStatusLocked {
		return sql.ErrNoRows
	}
	area.Status = models.AreaStatusPending
	apply.ID = "apply-" + apply.AreaID
	apply.Status = models.ApplyStatusPending
	s.applies[apply.ID] = apply
	return nil
}

func (s *applyRepoStub) Approve(ctx context.Context, params repository.ApproveParams) error {
	apply, ok := s.applies[params.ApplyID]
	if !ok || apply.Status != models.ApplyStatusPending {
		return sql.ErrNoRows
	}
	apply.Status = models.ApplyStatusApproved
	apply.ReviewerID = &params.ReviewerID
	apply.ReviewedAt = &params.ReviewedAt
	params.Permission.ID = "perm-" + params.ApplyID
	s.perms = append(s.perms, params.Permission)
	if area, ok := s.areas.areas[apply.AreaID]; ok {
		area.Status = models.AreaStatusAuthorized
	}
	return nil
}

func (s *applyRepoStub) Reject(ctx context.Context, params repository.RejectParams) error {
	apply, ok := s.applies[params.ApplyID]
	if !ok || apply.Status != models.ApplyStatusPending {
		return sql.ErrNoRows
	}
	apply.Status = models.ApplyStatusRejected
	apply.ReviewerID = &params.ReviewerID
	if area, ok := s.areas.areas[params.AreaID]; ok {
		area.Status = models.AreaStatusLocked
	}
	return nil
}

type areaRepoStub struct {
	areas map[string]*models.Area
}

func newAreaRepoStub() *areaRepoStub {
	return &areaRepoStub{areas: make(map[string]*models.Area)}
}

func (s *areaRepoStub) GetByID(ctx context.Context, id string) (*models.Area, error) {
	if area, ok := s.areas[id]; ok {
		copy := *area
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *areaRepoStub) ListAvailable(ctx context.Context, mallID, floorID string) ([]models.Area, error) {
	result := make([]models.Area, 0)
	for _, area := range s.areas {
		if area.Status == models.AreaStatusLocked {
			result = append(result, *area)
		}
	}
	return result, nil
}

type eventSinkStub struct {
	events []models.DomainEvent
}

func (s *eventSinkStub) Notify(event models.DomainEvent) {
	s.events = append(s.events, event)
}

func lockedArea(id string) *models.Area {
	return &models.Area{
		ID:       id,
		FloorID:  "floor-1",
		MallID:   "mall-1",
		Name:     "Unit " + id,
		Type:     "SHOP",
		Geometry: []byte(`{"kind":"box","min":{"x":0,"y":0,"z":0},"max":{"x":10,"y":4,"z":10}}`),
		Status:   models.AreaStatusLocked,
	}
}

func merchant(id string) *models.Identity {
	return &models.Identity{UserID: id, Role: models.RoleMerchant, MerchantID: id}
}

func admin(id string) *models.Identity {
	return &models.Identity{UserID: id, Role: models.RoleAdmin}
}

func TestApplyServiceSubmit(t *testing.T) {
	areas := newAreaRepoStub()
	areas.areas["area-1"] = lockedArea("area-1")
	repo := newApplyRepoStub(areas)
	events := &eventSinkStub{}
	svc := NewApplyService(repo, areas, events, 0, nil)

	apply, err := svc.Submit(context.Background(), merchant("m-1"), dto.SubmitApplyRequest{
		AreaID: "area-1",
		Reason: "seasonal popup",
	})
	require.NoError(t, err)
	require.Equal(t, models.ApplyStatusPending, apply.Status)
	require.Equal(t, models.AreaStatusPending, areas.areas["area-1"].Status)
	require.Len(t, events.events, 1)
	require.Equal(t, models.EventApplyCreated, events.events[0].Type)
}

func TestApplyServiceSubmitRequiresMerchant(t *testing.T) {
	areas := newAreaRepoStub()
	repo := newApplyRepoStub(areas)
	svc := NewApplyService(repo, areas, nil, 0, nil)

	_, err := svc.Submit(context.Background(), admin("a-1"), dto.SubmitApplyRequest{AreaID: "area-1", Reason: "x"})
	require.Error(t, err)
}

func TestApplyServiceSubmitRejectsUnavailableArea(t *testing.T) {
	areas := newAreaRepoStub()
	area := lockedArea("area-1")
	area.Status = models.AreaStatusAuthorized
	areas.areas["area-1"] = area
	repo := newApplyRepoStub(areas)
	svc := NewApplyService(repo, areas, nil, 0, nil)

	_, err := svc.Submit(context.Background(), merchant("m-1"), dto.SubmitApplyRequest{AreaID: "area-1", Reason: "x"})
	require.Error(t, err)
}

func TestApplyServiceSubmitRejectsDuplicatePending(t *testing.T) {
	areas := newAreaRepoStub()
	areas.areas["area-1"] = lockedArea("area-1")
	repo := newApplyRepoStub(areas)
	repo.applies["apply-0"] = &models.AreaApply{
		ID:     "apply-0",
		AreaID: "area-1",
		Status: models.ApplyStatusPending,
	}
	svc := NewApplyService(repo, areas, nil, 0, nil)

	_, err := svc.Submit(context.Background(), merchant("m-2"), dto.SubmitApplyRequest{AreaID: "area-1", Reason: "x"})
	require.Error(t, err)
}

func TestApplyServiceApprove(t *testing.T) {
	areas := newAreaRepoStub()
	areas.areas["area-1"] = lockedArea("area-1")
	repo := newApplyRepoStub(areas)
	events := &eventSinkStub{}
	svc := NewApplyService(repo, areas, events, 30*24*time.Hour, nil)

	days := 14
	_, err := svc.Submit(context.Background(), merchant("m-1"), dto.SubmitApplyRequest{
		AreaID:                "area-1",
		Reason:                "popup",
		RequestedDurationDays: &days,
	})
	require.NoError(t, err)

	perm, err := svc.Approve(context.Background(), admin("a-1"), "apply-area-1", dto.ApproveApplyRequest{})
	require.NoError(t, err)
	require.Equal(t, models.PermissionStatusActive, perm.Status)
	require.Equal(t, models.GrantTypeAdminApproval, perm.GrantType)
	require.NotNil(t, perm.ExpiresAt)
	require.Equal(t, models.AreaStatusAuthorized, areas.areas["area-1"].Status)
	require.Equal(t, models.EventApplyApproved, events.events[len(events.events)-1].Type)
}

func TestApplyServiceApproveAlreadyResolved(t *testing.T) {
	areas := newAreaRepoStub()
	areas.areas["area-1"] = lockedArea("area-1")
	repo := newApplyRepoStub(areas)
	svc := NewApplyService(repo, areas, nil, 0, nil)

	_, err := svc.Submit(context.Background(), merchant("m-1"), dto.SubmitApplyRequest{AreaID: "area-1", Reason: "x"})
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), admin("a-1"), "apply-area-1", dto.ApproveApplyRequest{})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), admin("a-1"), "apply-area-1", dto.ApproveApplyRequest{})
	require.Error(t, err)
}

func TestApplyServiceApproveRejectsPastExpiry(t *testing.T) {
	areas := newAreaRepoStub()
	areas.areas["area-1"] = lockedArea("area-1")
	repo := newApplyRepoStub(areas)
	svc := NewApplyService(repo, areas, nil, 0, nil)

	_, err := svc.Submit(context.Background(), merchant("m-1"), dto.SubmitApplyRequest{AreaID: "area-1", Reason: "x"})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), admin("a-1"), "apply-area-1", dto.ApproveApplyRequest{
		ExpiresAt: time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	require.Error(t, err)
}

func TestApplyServiceReject(t *testing.T) {
	areas := newAreaRepoStub()
	areas.areas["area-1"] = lockedArea("area-1")
	repo := newApplyRepoStub(areas)
	events := &eventSinkStub{}
	svc := NewApplyService(repo, areas, events, 0, nil)

	_, err := svc.Submit(context.Background(), merchant("m-1"), dto.SubmitApplyRequest{AreaID: "area-1", Reason: "x"})
	require.NoError(t, err)

	err = svc.Reject(context.Background(), admin("a-1"), "apply-area-1", dto.RejectApplyRequest{Reason: "anchor tenant"})
	require.NoError(t, err)
	require.Equal(t, models.AreaStatusLocked, areas.areas["area-1"].Status)
	require.Equal(t, models.EventApplyRejected, events.events[len(events.events)-1].Type)
}

func TestApplyServiceListScopesMerchants(t *testing.T) {
	areas := newAreaRepoStub()
	repo := newApplyRepoStub(areas)
	svc := NewApplyService(repo, areas, nil, 0, nil)

	_, err := svc.List(context.Background(), merchant("m-1"), dto.ApplyQuery{})
	require.NoError(t, err)
	require.Equal(t, "m-1", repo.filter.MerchantID)

	_, err = svc.List(context.Background(), admin("a-1"), dto.ApplyQuery{})
	require.NoError(t, err)
	require.Empty(t, repo.filter.MerchantID)
}
