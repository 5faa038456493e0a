package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jay1247sjh/smartmall-governance-api/internal/dto"
	"github.com/jay1247sjh/smartmall-governance-api/internal/geometry"
	"github.com/jay1247sjh/smartmall-governance-api/internal/models"
	"github.com/jay1247sjh/smartmall-governance-api/internal/repository"
)

type layoutRepoStub struct {
	versions  map[string]*models.LayoutVersion
	proposals map[string]*models.LayoutChangeProposal
	seq       int
}

func newLayoutRepoStub() *layoutRepoStub {
	return &layoutRepoStub{
		versions:  make(map[string]*models.LayoutVersion),
		proposals: make(map[string]*models.LayoutChangeProposal),
	}
}

func (s *layoutRepoStub) GetVersion(ctx context.Context, id string) (*models.LayoutVersion, error) {
	if version, ok := s.versions[id]; ok {
		copy := *version
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *layoutRepoStub) GetActiveVersion(ctx context.Context, mallID string) (*models.LayoutVersion, error) {
	for _, version := range s.versions {
		if version.MallID == mallID && version.Status == models.VersionStatusActive {
			copy := *version
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *layoutRepoStub) ListVersions(ctx context.Context, mallID string) ([]models.LayoutVersion, error) {
	result := make([]models.LayoutVersion, 0)
	for _, version := range s.versions {
		if version.MallID == mallID {
			result = append(result, *version)
		}
	}
	return result, nil
}

func (s *layoutRepoStub) CreateProposal(ctx context.Context, proposal *models.LayoutChangeProposal, audit *models.AuditLog) error {
	s.seq++
	proposal.ID = fmt.Sprintf("prop-%d", s.seq)
	proposal.Status = models.ProposalStatusPendingReview
	proposal.SubmittedAt = time.Now().UTC()
	s.proposals[proposal.ID] = proposal
	return nil
}

func (s *layoutRepoStub) GetProposal(ctx context.Context, id string) (*models.LayoutChangeProposal, error) {
	if proposal, ok := s.proposals[id]; ok {
		copy := *proposal
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *layoutRepoStub) GetProposalsByIDs(ctx context.Context, ids []string) ([]models.LayoutChangeProposal, error) {
	result := make([]models.LayoutChangeProposal, 0, len(ids))
	for _, id := range ids {
		if proposal, ok := s.proposals[id]; ok {
			result = append(result, *proposal)
		}
	}
	return result, nil
}

func (s *layoutRepoStub) ListProposals(ctx context.Context, filter models.ProposalFilter) ([]models.LayoutChangeProposal, error) {
	result := make([]models.LayoutChangeProposal, 0)
	for _, proposal := range s.proposals {
		if filter.MerchantID != "" && proposal.MerchantID != filter.MerchantID {
			continue
		}
		result = append(result, *proposal)
	}
	return result, nil
}

func (s *layoutRepoStub) ReviewProposal(ctx context.Context, id string, decision models.ProposalStatus, comment *string, reviewedAt time.Time, audit *models.AuditLog) error {
	proposal, ok := s.proposals[id]
	if !ok || proposal.Status != models.ProposalStatusPendingReview {
		return sql.ErrNoRows
	}
	proposal.Status = decision
	proposal.ReviewComment = comment
	proposal.ReviewedAt = &reviewedAt
	return nil
}

func (s *layoutRepoStub) CreateDraft(ctx context.Context, params repository.DraftParams) error {
	version := params.Version
	s.seq++
	version.ID = fmt.Sprintf("ver-%d", s.seq)
	version.Status = models.VersionStatusDraft
	number := 0
	for _, v := range s.versions {
		if v.MallID == version.MallID && v.VersionNumber > number {
			number = v.VersionNumber
		}
	}
	version.VersionNumber = number + 1
	for _, id := range params.ProposalIDs {
		proposal, ok := s.proposals[id]
		if !ok || proposal.Status != models.ProposalStatusApproved || proposal.VersionID != nil {
			return sql.ErrNoRows
		}
		proposal.VersionID = &version.ID
	}
	s.versions[version.ID] = version
	return nil
}

func (s *layoutRepoStub) Publish(ctx context.Context, params repository.PublishParams) (*models.LayoutVersion, error) {
	target, ok := s.versions[params.VersionID]
	if !ok || target.Status != models.VersionStatusDraft {
		return nil, sql.ErrNoRows
	}
	for _, v := range s.versions {
		if v.MallID == target.MallID && v.Status == models.VersionStatusActive {
			v.Status = models.VersionStatusArchived
		}
	}
	target.Status = models.VersionStatusActive
	target.PublishedAt = &params.PublishedAt
	for _, proposal := range s.proposals {
		if proposal.VersionID != nil && *proposal.VersionID == target.ID && proposal.Status == models.ProposalStatusApproved {
			proposal.Status = models.ProposalStatusMerged
		}
	}
	copy := *target
	return &copy, nil
}

type layoutCacheStub struct {
	store       map[string][]byte
	invalidated []string
}

func newLayoutCacheStub() *layoutCacheStub {
	return &layoutCacheStub{store: make(map[string][]byte)}
}

func (s *layoutCacheStub) GetActiveLayout(ctx context.Context, mallID string) ([]byte, error) {
	return s.store[mallID], nil
}

func (s *layoutCacheStub) SetActiveLayout(ctx context.Context, mallID string, payload []byte, ttl time.Duration) error {
	s.store[mallID] = payload
	return nil
}

func (s *layoutCacheStub) InvalidateActiveLayout(ctx context.Context, mallID string) error {
	delete(s.store, mallID)
	s.invalidated = append(s.invalidated, mallID)
	return nil
}

func newLayoutFixture(t *testing.T) (*LayoutService, *layoutRepoStub, *areaRepoStub, *permissionRepoStub, *layoutCacheStub, *eventSinkStub) {
	t.Helper()
	layouts := newLayoutRepoStub()
	areas := newAreaRepoStub()
	areas.areas["area-1"] = lockedArea("area-1")
	perms := newPermissionRepoStub()
	perms.perms["perm-1"] = activePermission("perm-1", "area-1", "m-1", nil)
	cache := newLayoutCacheStub()
	events := &eventSinkStub{}
	svc := NewLayoutService(layouts, areas, perms, cache, events, time.Minute, nil)
	return svc, layouts, areas, perms, cache, events
}

func insideChanges(t *testing.T) json.RawMessage {
	t.Helper()
	changes := dto.ProposalChanges{
		Added: []dto.ProposedObject{{
			ObjectID: "shelf-1",
			Box: geometry.Box{
				Min: geometry.Point{X: 1, Y: 0, Z: 1},
				Max: geometry.Point{X: 3, Y: 2, Z: 3},
			},
		}},
	}
	raw, err := json.Marshal(changes)
	require.NoError(t, err)
	return raw
}

func TestLayoutServiceValidateEdit(t *testing.T) {
	svc, _, _, _, _, _ := newLayoutFixture(t)

	result, err := svc.ValidateEdit(context.Background(), merchant("m-1"), dto.ValidateEditRequest{
		AreaID: "area-1",
		Box:    geometry.Box{Min: geometry.Point{X: 1, Y: 0, Z: 1}, Max: geometry.Point{X: 3, Y: 2, Z: 3}},
	})
	require.NoError(t, err)
	require.True(t, result.Valid)

	result, err = svc.ValidateEdit(context.Background(), merchant("m-1"), dto.ValidateEditRequest{
		AreaID: "area-1",
		Box:    geometry.Box{Min: geometry.Point{X: 8, Y: 0, Z: 8}, Max: geometry.Point{X: 12, Y: 2, Z: 12}},
	})
	require.NoError(t, err)
	require.False(t, result.Valid)
	require.NotNil(t, result.Violation)
}

func TestLayoutServiceValidateEditRequiresPermission(t *testing.T) {
	svc, _, _, _, _, _ := newLayoutFixture(t)

	_, err := svc.ValidateEdit(context.Background(), merchant("m-2"), dto.ValidateEditRequest{
		AreaID: "area-1",
		Box:    geometry.Box{Min: geometry.Point{X: 1, Y: 0, Z: 1}, Max: geometry.Point{X: 3, Y: 2, Z: 3}},
	})
	require.Error(t, err)
}

func TestLayoutServiceSubmitProposal(t *testing.T) {
	svc, layouts, _, _, _, _ := newLayoutFixture(t)

	proposal, err := svc.SubmitProposal(context.Background(), merchant("m-1"), dto.SubmitProposalRequest{
		AreaID:  "area-1",
		Changes: insideChanges(t),
	})
	require.NoError(t, err)
	require.Equal(t, models.ProposalStatusPendingReview, proposal.Status)
	require.Contains(t, layouts.proposals, proposal.ID)
}

func TestLayoutServiceSubmitProposalBoundaryViolation(t *testing.T) {
	svc, _, _, _, _, _ := newLayoutFixture(t)

	changes, err := json.Marshal(dto.ProposalChanges{
		Added: []dto.ProposedObject{{
			ObjectID: "shelf-1",
			Box:      geometry.Box{Min: geometry.Point{X: 8, Y: 0, Z: 8}, Max: geometry.Point{X: 12, Y: 2, Z: 12}},
		}},
	})
	require.NoError(t, err)

	_, err = svc.SubmitProposal(context.Background(), merchant("m-1"), dto.SubmitProposalRequest{
		AreaID:  "area-1",
		Changes: changes,
	})
	require.Error(t, err)
	_, isViolation := geometry.AsBoundaryViolation(err)
	require.True(t, isViolation)
}

func TestLayoutServiceSubmitProposalRejectsEmpty(t *testing.T) {
	svc, _, _, _, _, _ := newLayoutFixture(t)

	_, err := svc.SubmitProposal(context.Background(), merchant("m-1"), dto.SubmitProposalRequest{
		AreaID:  "area-1",
		Changes: json.RawMessage(`{}`),
	})
	require.Error(t, err)
}

func TestLayoutServiceReviewProposal(t *testing.T) {
	svc, layouts, _, _, _, _ := newLayoutFixture(t)

	proposal, err := svc.SubmitProposal(context.Background(), merchant("m-1"), dto.SubmitProposalRequest{
		AreaID:  "area-1",
		Changes: insideChanges(t),
	})
	require.NoError(t, err)

	err = svc.ReviewProposal(context.Background(), admin("a-1"), proposal.ID, dto.ReviewProposalRequest{Decision: "APPROVED"})
	require.NoError(t, err)
	require.Equal(t, models.ProposalStatusApproved, layouts.proposals[proposal.ID].Status)

	err = svc.ReviewProposal(context.Background(), admin("a-1"), proposal.ID, dto.ReviewProposalRequest{Decision: "REJECTED"})
	require.Error(t, err)
}

func TestLayoutServiceRejectedProposalDoesNotBlockResubmission(t *testing.T) {
	svc, _, _, _, _, _ := newLayoutFixture(t)

	first, err := svc.SubmitProposal(context.Background(), merchant("m-1"), dto.SubmitProposalRequest{
		AreaID:  "area-1",
		Changes: insideChanges(t),
	})
	require.NoError(t, err)
	require.NoError(t, svc.ReviewProposal(context.Background(), admin("a-1"), first.ID, dto.ReviewProposalRequest{Decision: "REJECTED"}))

	second, err := svc.SubmitProposal(context.Background(), merchant("m-1"), dto.SubmitProposalRequest{
		AreaID:  "area-1",
		Changes: insideChanges(t),
	})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
}

func TestLayoutServiceCreateDraftAndPublish(t *testing.T) {
	svc, layouts, _, _, cache, events := newLayoutFixture(t)

	proposal, err := svc.SubmitProposal(context.Background(), merchant("m-1"), dto.SubmitProposalRequest{
		AreaID:  "area-1",
		Changes: insideChanges(t),
	})
	require.NoError(t, err)
	require.NoError(t, svc.ReviewProposal(context.Background(), admin("a-1"), proposal.ID, dto.ReviewProposalRequest{Decision: "APPROVED"}))

	draft, err := svc.CreateDraft(context.Background(), admin("a-1"), dto.CreateDraftRequest{
		MallID:      "mall-1",
		ProposalIDs: []string{proposal.ID},
	})
	require.NoError(t, err)
	require.Equal(t, models.VersionStatusDraft, draft.Status)
	require.Equal(t, 1, draft.VersionNumber)

	var doc struct {
		Objects map[string]geometry.Box `json:"objects"`
	}
	require.NoError(t, json.Unmarshal(draft.Content, &doc))
	require.Contains(t, doc.Objects, "shelf-1")

	published, err := svc.Publish(context.Background(), admin("a-1"), dto.PublishRequest{VersionID: draft.ID})
	require.NoError(t, err)
	require.Equal(t, models.VersionStatusActive, published.Status)
	require.Equal(t, models.ProposalStatusMerged, layouts.proposals[proposal.ID].Status)
	require.Contains(t, cache.invalidated, "mall-1")
	require.Equal(t, models.EventVersionPublished, events.events[len(events.events)-1].Type)
}

func TestLayoutServiceCreateDraftRejectsUnapproved(t *testing.T) {
	svc, _, _, _, _, _ := newLayoutFixture(t)

	proposal, err := svc.SubmitProposal(context.Background(), merchant("m-1"), dto.SubmitProposalRequest{
		AreaID:  "area-1",
		Changes: insideChanges(t),
	})
	require.NoError(t, err)

	_, err = svc.CreateDraft(context.Background(), admin("a-1"), dto.CreateDraftRequest{
		MallID:      "mall-1",
		ProposalIDs: []string{proposal.ID},
	})
	require.Error(t, err)
}

func TestLayoutServiceRollbackRejectsActiveTarget(t *testing.T) {
	svc, layouts, _, _, _, _ := newLayoutFixture(t)

	proposal, err := svc.SubmitProposal(context.Background(), merchant("m-1"), dto.SubmitProposalRequest{
		AreaID:  "area-1",
		Changes: insideChanges(t),
	})
	require.NoError(t, err)
	require.NoError(t, svc.ReviewProposal(context.Background(), admin("a-1"), proposal.ID, dto.ReviewProposalRequest{Decision: "APPROVED"}))
	first, err := svc.CreateDraft(context.Background(), admin("a-1"), dto.CreateDraftRequest{MallID: "mall-1", ProposalIDs: []string{proposal.ID}})
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), admin("a-1"), dto.PublishRequest{VersionID: first.ID})
	require.NoError(t, err)

	_, err = svc.Rollback(context.Background(), admin("a-1"), dto.RollbackRequest{MallID: "mall-1", TargetVersionID: first.ID})
	require.Error(t, err)
	require.Equal(t, models.VersionStatusActive, layouts.versions[first.ID].Status)
}

func TestLayoutServiceRollback(t *testing.T) {
	svc, layouts, _, _, _, _ := newLayoutFixture(t)

	proposal, err := svc.SubmitProposal(context.Background(), merchant("m-1"), dto.SubmitProposalRequest{
		AreaID:  "area-1",
		Changes: insideChanges(t),
	})
	require.NoError(t, err)
	require.NoError(t, svc.ReviewProposal(context.Background(), admin("a-1"), proposal.ID, dto.ReviewProposalRequest{Decision: "APPROVED"}))
	first, err := svc.CreateDraft(context.Background(), admin("a-1"), dto.CreateDraftRequest{MallID: "mall-1", ProposalIDs: []string{proposal.ID}})
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), admin("a-1"), dto.PublishRequest{VersionID: first.ID})
	require.NoError(t, err)

	// Publish an empty follow-up so the first version becomes ARCHIVED.
	second, err := svc.SubmitProposal(context.Background(), merchant("m-1"), dto.SubmitProposalRequest{
		AreaID:  "area-1",
		Changes: insideChanges(t),
	})
	require.NoError(t, err)
	require.NoError(t, svc.ReviewProposal(context.Background(), admin("a-1"), second.ID, dto.ReviewProposalRequest{Decision: "APPROVED"}))
	secondDraft, err := svc.CreateDraft(context.Background(), admin("a-1"), dto.CreateDraftRequest{MallID: "mall-1", ProposalIDs: []string{second.ID}})
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), admin("a-1"), dto.PublishRequest{VersionID: secondDraft.ID})
	require.NoError(t, err)
	require.Equal(t, models.VersionStatusArchived, layouts.versions[first.ID].Status)

	restored, err := svc.Rollback(context.Background(), admin("a-1"), dto.RollbackRequest{MallID: "mall-1", TargetVersionID: first.ID})
	require.NoError(t, err)
	require.Equal(t, models.VersionStatusActive, restored.Status)
	require.Greater(t, restored.VersionNumber, secondDraft.VersionNumber)
	require.JSONEq(t, string(layouts.versions[first.ID].Content), string(restored.Content))
	// The old snapshot itself stays ARCHIVED; history is forward-only.
	require.Equal(t, models.VersionStatusArchived, layouts.versions[first.ID].Status)
}

func TestLayoutServiceGetActiveUsesCache(t *testing.T) {
	svc, layouts, _, _, cache, _ := newLayoutFixture(t)

	cached := &models.LayoutVersion{ID: "ver-cached", MallID: "mall-1", Status: models.VersionStatusActive, VersionNumber: 7}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, cache.SetActiveLayout(context.Background(), "mall-1", payload, time.Minute))

	version, err := svc.GetActive(context.Background(), "mall-1")
	require.NoError(t, err)
	require.Equal(t, "ver-cached", version.ID)
	require.Empty(t, layouts.versions)
}
