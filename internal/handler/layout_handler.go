package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jay1247sjh/smartmall-governance-api/internal/dto"
	"github.com/jay1247sjh/smartmall-governance-api/internal/models"
	appErrors "github.com/jay1247sjh/smartmall-governance-api/pkg/errors"
	"github.com/jay1247sjh/smartmall-governance-api/pkg/response"
)

type layoutService interface {
	ValidateEdit(ctx context.Context, actor *models.Identity, req dto.ValidateEditRequest) (*dto.ValidateEditResponse, error)
	SubmitProposal(ctx context.Context, actor *models.Identity, req dto.SubmitProposalRequest) (*models.LayoutChangeProposal, error)
	ReviewProposal(ctx context.Context, actor *models.Identity, proposalID string, req dto.ReviewProposalRequest) error
	GetProposal(ctx context.Context, actor *models.Identity, id string) (*models.LayoutChangeProposal, error)
	ListProposals(ctx context.Context, actor *models.Identity, query dto.ProposalQuery) ([]models.LayoutChangeProposal, error)
	CreateDraft(ctx context.Context, actor *models.Identity, req dto.CreateDraftRequest) (*models.LayoutVersion, error)
	Publish(ctx context.Context, actor *models.Identity, req dto.PublishRequest) (*models.LayoutVersion, error)
	Rollback(ctx context.Context, actor *models.Identity, req dto.RollbackRequest) (*models.LayoutVersion, error)
	GetActive(ctx context.Context, mallID string) (*models.LayoutVersion, error)
	GetVersion(ctx context.Context, id string) (*models.LayoutVersion, error)
	ListVersions(ctx context.Context, mallID string) ([]models.LayoutVersion, error)
}

// LayoutHandler exposes REST endpoints for proposals and versions.
type LayoutHandler struct {
	service layoutService
}

// NewLayoutHandler constructs the handler.
func NewLayoutHandler(service layoutService) *LayoutHandler {
	return &LayoutHandler{service: service}
}

// ValidateEdit godoc
// @Summary Probe whether a placement stays inside the authorized area
// @Tags Layouts
// @Accept json
// @Produce json
// @Param payload body dto.ValidateEditRequest true "Placement probe"
// @Success 200 {object} response.Envelope
// @Router /layouts/validate-edit [post]
func (h *LayoutHandler) ValidateEdit(c *gin.Context) {
	var req dto.ValidateEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid probe payload"))
		return
	}
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.service.ValidateEdit(c.Request.Context(), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SubmitProposal godoc
// @Summary Submit a batched layout change proposal
// @Tags Layouts
// @Accept json
// @Produce json
// @Param payload body dto.SubmitProposalRequest true "Proposal payload"
// @Success 201 {object} response.Envelope
// @Router /proposals [post]
func (h *LayoutHandler) SubmitProposal(c *gin.Context) {
	var req dto.SubmitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid proposal payload"))
		return
	}
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	proposal, err := h.service.SubmitProposal(c.Request.Context(), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, proposal)
}

// ReviewProposal godoc
// @Summary Approve or reject a pending proposal
// @Tags Layouts
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param payload body dto.ReviewProposalRequest true "Review payload"
// @Success 204
// @Router /proposals/{id}/review [post]
func (h *LayoutHandler) ReviewProposal(c *gin.Context) {
	var req dto.ReviewProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
		return
	}
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.ReviewProposal(c.Request.Context(), identity, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetProposal godoc
// @Summary Get proposal detail
// @Tags Layouts
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id} [get]
func (h *LayoutHandler) GetProposal(c *gin.Context) {
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	proposal, err := h.service.GetProposal(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// ListProposals godoc
// @Summary List proposals
// @Tags Layouts
// @Produce json
// @Param areaId query string false "Area ID"
// @Param status query string false "Status"
// @Success 200 {object} response.Envelope
// @Router /proposals [get]
func (h *LayoutHandler) ListProposals(c *gin.Context) {
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.ProposalQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	proposals, err := h.service.ListProposals(c.Request.Context(), identity, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposals, nil)
}

// CreateDraft godoc
// @Summary Assemble approved proposals into a draft version
// @Tags Layouts
// @Accept json
// @Produce json
// @Param payload body dto.CreateDraftRequest true "Draft payload"
// @Success 201 {object} response.Envelope
// @Router /versions/draft [post]
func (h *LayoutHandler) CreateDraft(c *gin.Context) {
	var req dto.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid draft payload"))
		return
	}
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	version, err := h.service.CreateDraft(c.Request.Context(), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, version)
}

// Publish godoc
// @Summary Publish a draft version
// @Tags Layouts
// @Accept json
// @Produce json
// @Param payload body dto.PublishRequest true "Publish payload"
// @Success 200 {object} response.Envelope
// @Router /versions/publish [post]
func (h *LayoutHandler) Publish(c *gin.Context) {
	var req dto.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid publish payload"))
		return
	}
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	version, err := h.service.Publish(c.Request.Context(), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}

// Rollback godoc
// @Summary Restore an earlier snapshot as a new published version
// @Tags Layouts
// @Accept json
// @Produce json
// @Param payload body dto.RollbackRequest true "Rollback payload"
// @Success 200 {object} response.Envelope
// @Router /versions/rollback [post]
func (h *LayoutHandler) Rollback(c *gin.Context) {
	var req dto.RollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rollback payload"))
		return
	}
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	version, err := h.service.Rollback(c.Request.Context(), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}

// GetActive godoc
// @Summary Get the mall's active layout version
// @Tags Layouts
// @Produce json
// @Param mallId path string true "Mall ID"
// @Success 200 {object} response.Envelope
// @Router /malls/{mallId}/layout/active [get]
func (h *LayoutHandler) GetActive(c *gin.Context) {
	version, err := h.service.GetActive(c.Request.Context(), c.Param("mallId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}

// GetVersion godoc
// @Summary Get version detail
// @Tags Layouts
// @Produce json
// @Param id path string true "Version ID"
// @Success 200 {object} response.Envelope
// @Router /versions/{id} [get]
func (h *LayoutHandler) GetVersion(c *gin.Context) {
	version, err := h.service.GetVersion(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}

// ListVersions godoc
// @Summary List a mall's version history
// @Tags Layouts
// @Produce json
// @Param mallId path string true "Mall ID"
// @Success 200 {object} response.Envelope
// @Router /malls/{mallId}/layout/versions [get]
func (h *LayoutHandler) ListVersions(c *gin.Context) {
	versions, err := h.service.ListVersions(c.Request.Context(), c.Param("mallId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions, nil)
}
