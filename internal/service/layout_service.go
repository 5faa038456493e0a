package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jay1247sjh/smartmall-governance-api/internal/dto"
	"github.com/jay1247sjh/smartmall-governance-api/internal/geometry"
	"github.com/jay1247sjh/smartmall-governance-api/internal/models"
	"github.com/jay1247sjh/smartmall-governance-api/internal/repository"
	appErrors "github.com/jay1247sjh/smartmall-governance-api/pkg/errors"
)

type layoutStore interface {
	GetVersion(ctx context.Context, id string) (*models.LayoutVersion, error)
	GetActiveVersion(ctx context.Context, mallID string) (*models.LayoutVersion, error)
	ListVersions(ctx context.Context, mallID string) ([]models.LayoutVersion, error)
	CreateProposal(ctx context.Context, proposal *models.LayoutChangeProposal, audit *models.AuditLog) error
	GetProposal(ctx context.Context, id string) (*models.LayoutChangeProposal, error)
	GetProposalsByIDs(ctx context.Context, ids []string) ([]models.LayoutChangeProposal, error)
	ListProposals(ctx context.Context, filter models.ProposalFilter) ([]models.LayoutChangeProposal, error)
	ReviewProposal(ctx context.Context, id string, decision models.ProposalStatus, comment *string, reviewedAt time.Time, audit *models.AuditLog) error
	CreateDraft(ctx context.Context, params repository.DraftParams) error
	Publish(ctx context.Context, params repository.PublishParams) (*models.LayoutVersion, error)
}

type permissionChecker interface {
	FindActiveByArea(ctx context.Context, areaID string) (*models.AreaPermission, error)
}

type layoutCache interface {
	GetActiveLayout(ctx context.Context, mallID string) ([]byte, error)
	SetActiveLayout(ctx context.Context, mallID string, payload []byte, ttl time.Duration) error
	InvalidateActiveLayout(ctx context.Context, mallID string) error
}

// layoutDocument is the canonical shape of LayoutVersion.Content: object
// placements keyed by object ID.
type layoutDocument struct {
	Objects map[string]geometry.Box `json:"objects"`
}

// LayoutService governs the proposal and version lifecycle. Geometry
// re-validation at draft time is the authoritative boundary gate; client-side
// checks are advisory only.
type LayoutService struct {
	layouts layoutStore
	areas   areaStore
	perms   permissionChecker
	cache   layoutCache
	events  EventSink
	logger  *zap.Logger

	cacheTTL time.Duration
}

// NewLayoutService constructs the service. Cache may be nil, in which case
// every active-layout read hits postgres.
func NewLayoutService(layouts layoutStore, areas areaStore, perms permissionChecker, cache layoutCache, events EventSink, cacheTTL time.Duration, logger *zap.Logger) *LayoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = NopSink{}
	}
	return &LayoutService{
		layouts:  layouts,
		areas:    areas,
		perms:    perms,
		cache:    cache,
		events:   events,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// ValidateEdit probes whether a single object placement stays inside the
// merchant's authorized area. Pure read; nothing is persisted.
func (s *LayoutService) ValidateEdit(ctx context.Context, actor *models.Identity, req dto.ValidateEditRequest) (*dto.ValidateEditResponse, error) {
	region, err := s.authorizedRegion(ctx, actor, req.AreaID)
	if err != nil {
		return nil, err
	}
	if err := geometry.ValidateEdit(region, req.Box); err != nil {
		if violation, ok := geometry.AsBoundaryViolation(err); ok {
			return &dto.ValidateEditResponse{Valid: false, Violation: violation}, nil
		}
		return nil, appErrors.Internal(err, "validate edit")
	}
	return &dto.ValidateEditResponse{Valid: true}, nil
}

// SubmitProposal freezes the merchant's batched edits into a proposal. The
// snapshot is validated against the authorized region before it is stored so
// reviewers never see out-of-bounds geometry.
func (s *LayoutService) SubmitProposal(ctx context.Context, actor *models.Identity, req dto.SubmitProposalRequest) (*models.LayoutChangeProposal, error) {
	if actor.Role != models.RoleMerchant {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only merchants may submit proposals")
	}
	region, err := s.authorizedRegion(ctx, actor, req.AreaID)
	if err != nil {
		return nil, err
	}

	var changes dto.ProposalChanges
	if err := json.Unmarshal(req.Changes, &changes); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "changes payload is malformed")
	}
	if len(changes.Added)+len(changes.Modified)+len(changes.Removed) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "proposal contains no changes")
	}
	if err := validateChanges(region, changes); err != nil {
		return nil, err
	}

	proposal := &models.LayoutChangeProposal{
		AreaID:      req.AreaID,
		MerchantID:  actor.ActorMerchantID(),
		Description: req.Description,
		Changes:     append([]byte(nil), req.Changes...),
	}
	audit := &models.AuditLog{
		ActorID:   actor.UserID,
		Action:    models.AuditActionProposalSubmit,
		Resource:  "proposal",
		NewValues: proposal.Changes,
	}
	if err := s.layouts.CreateProposal(ctx, proposal, audit); err != nil {
		return nil, appErrors.Internal(err, "create proposal")
	}
	s.logger.Sugar().Infow("proposal submitted", "proposal_id", proposal.ID, "area_id", req.AreaID, "merchant_id", proposal.MerchantID)
	return proposal, nil
}

// ReviewProposal resolves a pending proposal. Rejection never blocks the
// merchant from submitting a fresh proposal for the same area.
func (s *LayoutService) ReviewProposal(ctx context.Context, actor *models.Identity, proposalID string, req dto.ReviewProposalRequest) error {
	if actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins may review proposals")
	}
	decision := models.ProposalStatus(req.Decision)
	if decision != models.ProposalStatusApproved && decision != models.ProposalStatusRejected {
		return appErrors.Clone(appErrors.ErrValidation, "decision must be APPROVED or REJECTED")
	}

	var comment *string
	if req.Comment != "" {
		comment = &req.Comment
	}
	err := s.layouts.ReviewProposal(ctx, proposalID, decision, comment, time.Now().UTC(), &models.AuditLog{
		ActorID:    actor.UserID,
		Action:     models.AuditActionProposalReview,
		Resource:   "proposal",
		ResourceID: proposalID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidState, "proposal already reviewed")
		}
		return appErrors.Internal(err, "review proposal")
	}
	s.logger.Sugar().Infow("proposal reviewed", "proposal_id", proposalID, "decision", decision, "reviewer", actor.UserID)
	return nil
}

// GetProposal returns one proposal. Merchants only see their own.
func (s *LayoutService) GetProposal(ctx context.Context, actor *models.Identity, id string) (*models.LayoutChangeProposal, error) {
	proposal, err := s.layouts.GetProposal(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found")
		}
		return nil, appErrors.Internal(err, "load proposal")
	}
	if actor.Role != models.RoleAdmin && proposal.MerchantID != actor.ActorMerchantID() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not your proposal")
	}
	return proposal, nil
}

// ListProposals returns proposals visible to the actor.
func (s *LayoutService) ListProposals(ctx context.Context, actor *models.Identity, query dto.ProposalQuery) ([]models.LayoutChangeProposal, error) {
	filter := models.ProposalFilter{
		AreaID: query.AreaID,
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if query.Status != "" {
		filter.Status = []models.ProposalStatus{models.ProposalStatus(query.Status)}
	}
	if actor.Role != models.RoleAdmin {
		filter.MerchantID = actor.ActorMerchantID()
	}
	proposals, err := s.layouts.ListProposals(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "list proposals")
	}
	return proposals, nil
}

// CreateDraft assembles approved proposals into a new DRAFT version. Every
// proposal's geometry is re-validated against its area here, at merge time;
// this gate, not the submit-time check, is authoritative.
func (s *LayoutService) CreateDraft(ctx context.Context, actor *models.Identity, req dto.CreateDraftRequest) (*models.LayoutVersion, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins may create draft versions")
	}

	proposals, err := s.layouts.GetProposalsByIDs(ctx, req.ProposalIDs)
	if err != nil {
		return nil, appErrors.Internal(err, "load proposals")
	}
	if len(proposals) != len(req.ProposalIDs) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "one or more proposals not found")
	}

	doc, err := s.baseDocument(ctx, req.MallID)
	if err != nil {
		return nil, err
	}
	for i := range proposals {
		proposal := &proposals[i]
		if proposal.Status != models.ProposalStatusApproved {
			return nil, appErrors.Clone(appErrors.ErrInvalidState,
				fmt.Sprintf("proposal %s is not approved", proposal.ID))
		}
		area, err := s.areas.GetByID(ctx, proposal.AreaID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal area not found")
			}
			return nil, appErrors.Internal(err, "load proposal area")
		}
		if area.MallID != req.MallID {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("proposal %s targets an area outside the mall", proposal.ID))
		}
		region, err := geometry.Parse(area.Geometry)
		if err != nil {
			return nil, appErrors.Internal(err, "parse area geometry")
		}
		var changes dto.ProposalChanges
		if err := json.Unmarshal(proposal.Changes, &changes); err != nil {
			return nil, appErrors.Internal(err, "decode frozen proposal changes")
		}
		if err := validateChanges(region, changes); err != nil {
			return nil, err
		}
		applyChanges(doc, changes)
	}

	content, err := json.Marshal(doc)
	if err != nil {
		return nil, appErrors.Internal(err, "encode draft content")
	}
	version := &models.LayoutVersion{
		MallID:        req.MallID,
		Content:       content,
		Description:   req.Description,
		CreatedBy:     actor.UserID,
		CreatedByRole: actor.Role,
	}
	err = s.layouts.CreateDraft(ctx, repository.DraftParams{
		Version:     version,
		ProposalIDs: req.ProposalIDs,
		Audit: &models.AuditLog{
			ActorID:  actor.UserID,
			Action:   models.AuditActionVersionCreate,
			Resource: "layout_version",
		},
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "a proposal was claimed by another draft")
		}
		return nil, appErrors.Internal(err, "create draft version")
	}
	s.logger.Sugar().Infow("draft created", "version_id", version.ID, "mall_id", req.MallID, "version_number", version.VersionNumber)
	return version, nil
}

// Publish promotes a draft to ACTIVE. The repository transaction archives the
// previous version and merges attached proposals; here we invalidate the
// cache and broadcast.
func (s *LayoutService) Publish(ctx context.Context, actor *models.Identity, req dto.PublishRequest) (*models.LayoutVersion, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins may publish versions")
	}
	return s.publish(ctx, actor, req.VersionID, models.AuditActionVersionPublish)
}

// Rollback restores an earlier snapshot by cloning it into a fresh draft and
// publishing that clone. History stays strictly forward: the restored state
// gets a brand new version number.
func (s *LayoutService) Rollback(ctx context.Context, actor *models.Identity, req dto.RollbackRequest) (*models.LayoutVersion, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins may roll back versions")
	}

	target, err := s.layouts.GetVersion(ctx, req.TargetVersionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "target version not found")
		}
		return nil, appErrors.Internal(err, "load target version")
	}
	if target.MallID != req.MallID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target version belongs to another mall")
	}
	if target.Status == models.VersionStatusActive {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "target version is already active")
	}

	clone := &models.LayoutVersion{
		MallID:        req.MallID,
		Content:       append([]byte(nil), target.Content...),
		Description:   fmt.Sprintf("rollback to version %d", target.VersionNumber),
		CreatedBy:     actor.UserID,
		CreatedByRole: actor.Role,
	}
	err = s.layouts.CreateDraft(ctx, repository.DraftParams{
		Version: clone,
		Audit: &models.AuditLog{
			ActorID:    actor.UserID,
			Action:     models.AuditActionVersionRollback,
			Resource:   "layout_version",
			ResourceID: target.ID,
		},
	})
	if err != nil {
		return nil, appErrors.Internal(err, "clone target version")
	}
	return s.publish(ctx, actor, clone.ID, models.AuditActionVersionRollback)
}

// GetActive returns the mall's active version, read through the cache.
func (s *LayoutService) GetActive(ctx context.Context, mallID string) (*models.LayoutVersion, error) {
	if s.cache != nil {
		if payload, err := s.cache.GetActiveLayout(ctx, mallID); err == nil && payload != nil {
			var version models.LayoutVersion
			if err := json.Unmarshal(payload, &version); err == nil {
				return &version, nil
			}
		} else if err != nil {
			s.logger.Sugar().Warnw("layout cache read failed", "mall_id", mallID, "error", err)
		}
	}

	version, err := s.layouts.GetActiveVersion(ctx, mallID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mall has no active layout")
		}
		return nil, appErrors.Internal(err, "load active version")
	}

	if s.cache != nil {
		if payload, err := json.Marshal(version); err == nil {
			if err := s.cache.SetActiveLayout(ctx, mallID, payload, s.cacheTTL); err != nil {
				s.logger.Sugar().Warnw("layout cache write failed", "mall_id", mallID, "error", err)
			}
		}
	}
	return version, nil
}

// GetVersion returns one version by ID.
func (s *LayoutService) GetVersion(ctx context.Context, id string) (*models.LayoutVersion, error) {
	version, err := s.layouts.GetVersion(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "version not found")
		}
		return nil, appErrors.Internal(err, "load version")
	}
	return version, nil
}

// ListVersions returns a mall's version history.
func (s *LayoutService) ListVersions(ctx context.Context, mallID string) ([]models.LayoutVersion, error) {
	versions, err := s.layouts.ListVersions(ctx, mallID)
	if err != nil {
		return nil, appErrors.Internal(err, "list versions")
	}
	return versions, nil
}

func (s *LayoutService) publish(ctx context.Context, actor *models.Identity, versionID, auditAction string) (*models.LayoutVersion, error) {
	now := time.Now().UTC()
	published, err := s.layouts.Publish(ctx, repository.PublishParams{
		VersionID:   versionID,
		PublishedBy: actor.UserID,
		PublishedAt: now,
		Audit: &models.AuditLog{
			ActorID:    actor.UserID,
			Action:     auditAction,
			Resource:   "layout_version",
			ResourceID: versionID,
		},
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "only draft versions can be published")
		}
		return nil, appErrors.Internal(err, "publish version")
	}

	if s.cache != nil {
		if err := s.cache.InvalidateActiveLayout(ctx, published.MallID); err != nil {
			s.logger.Sugar().Warnw("layout cache invalidation failed", "mall_id", published.MallID, "error", err)
		}
	}
	s.events.Notify(models.DomainEvent{
		Type:       models.EventVersionPublished,
		ActorID:    actor.UserID,
		Resource:   "layout_version",
		ResourceID: published.ID,
		MallID:     published.MallID,
	})
	s.logger.Sugar().Infow("version published", "version_id", published.ID, "mall_id", published.MallID, "version_number", published.VersionNumber)
	return published, nil
}

// authorizedRegion resolves the actor's effectively active permission on the
// area and parses the area geometry. Admins bypass the permission check.
func (s *LayoutService) authorizedRegion(ctx context.Context, actor *models.Identity, areaID string) (*geometry.Region, error) {
	area, err := s.areas.GetByID(ctx, areaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "area not found")
		}
		return nil, appErrors.Internal(err, "load area")
	}
	if actor.Role != models.RoleAdmin {
		perm, err := s.perms.FindActiveByArea(ctx, areaID)
		if err != nil {
			return nil, appErrors.Internal(err, "check permission")
		}
		if !perm.EffectivelyActive(time.Now().UTC()) || perm.MerchantID != actor.ActorMerchantID() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no active permission for area")
		}
	}
	region, err := geometry.Parse(area.Geometry)
	if err != nil {
		return nil, appErrors.Internal(err, "parse area geometry")
	}
	return region, nil
}

// validateChanges runs the boundary gate over every added and modified
// placement. The first violation aborts.
func validateChanges(region *geometry.Region, changes dto.ProposalChanges) error {
	for _, obj := range changes.Added {
		if err := geometry.ValidateEdit(region, obj.Box); err != nil {
			return err
		}
	}
	for _, obj := range changes.Modified {
		if err := geometry.ValidateEdit(region, obj.Box); err != nil {
			return err
		}
	}
	return nil
}

func applyChanges(doc *layoutDocument, changes dto.ProposalChanges) {
	for _, obj := range changes.Added {
		doc.Objects[obj.ObjectID] = obj.Box
	}
	for _, obj := range changes.Modified {
		doc.Objects[obj.ObjectID] = obj.Box
	}
	for _, id := range changes.Removed {
		delete(doc.Objects, id)
	}
}

// baseDocument loads the mall's active content as the merge base, or an empty
// document for a mall that has never published.
func (s *LayoutService) baseDocument(ctx context.Context, mallID string) (*layoutDocument, error) {
	doc := &layoutDocument{Objects: make(map[string]geometry.Box)}
	active, err := s.layouts.GetActiveVersion(ctx, mallID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return doc, nil
		}
		return nil, appErrors.Internal(err, "load active version")
	}
	if len(active.Content) > 0 {
		if err := json.Unmarshal(active.Content, doc); err != nil {
			return nil, appErrors.Internal(err, "decode active content")
		}
		if doc.Objects == nil {
			doc.Objects = make(map[string]geometry.Box)
		}
	}
	return doc, nil
}
