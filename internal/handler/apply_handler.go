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

type applyService interface {
	ListAvailableAreas(ctx context.Context, mallID, floorID string) ([]models.Area, error)
	Submit(ctx context.Context, actor *models.Identity, req dto.SubmitApplyRequest) (*models.AreaApply, error)
	Approve(ctx context.Context, actor *models.Identity, applyID string, req dto.ApproveApplyRequest) (*models.AreaPermission, error)
	Reject(ctx context.Context, actor *models.Identity, applyID string, req dto.RejectApplyRequest) error
	Get(ctx context.Context, actor *models.Identity, applyID string) (*models.AreaApply, error)
	List(ctx context.Context, actor *models.Identity, query dto.ApplyQuery) ([]models.AreaApply, error)
}

// ApplyHandler exposes REST endpoints for the area application workflow.
type ApplyHandler struct {
	service applyService
}

// NewApplyHandler constructs the handler.
func NewApplyHandler(service applyService) *ApplyHandler {
	return &ApplyHandler{service: service}
}

// ListAvailableAreas godoc
// @Summary List areas open for application
// @Tags Applications
// @Produce json
// @Param mallId query string false "Mall ID"
// @Param floorId query string false "Floor ID"
// @Success 200 {object} response.Envelope
// @Router /areas/available [get]
func (h *ApplyHandler) ListAvailableAreas(c *gin.Context) {
	areas, err := h.service.ListAvailableAreas(c.Request.Context(), c.Query("mallId"), c.Query("floorId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, areas, nil)
}

// Submit godoc
// @Summary Apply for editing rights over an area
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body dto.SubmitApplyRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Router /applies [post]
func (h *ApplyHandler) Submit(c *gin.Context) {
	var req dto.SubmitApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid application payload"))
		return
	}
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	apply, err := h.service.Submit(c.Request.Context(), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, apply)
}

// Approve godoc
// @Summary Approve a pending application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.ApproveApplyRequest true "Approval payload"
// @Success 200 {object} response.Envelope
// @Router /applies/{id}/approve [post]
func (h *ApplyHandler) Approve(c *gin.Context) {
	var req dto.ApproveApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid approval payload"))
		return
	}
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	perm, err := h.service.Approve(c.Request.Context(), identity, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, perm, nil)
}

// Reject godoc
// @Summary Reject a pending application
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.RejectApplyRequest true "Rejection payload"
// @Success 204
// @Router /applies/{id}/reject [post]
func (h *ApplyHandler) Reject(c *gin.Context) {
	var req dto.RejectApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required"))
		return
	}
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Reject(c.Request.Context(), identity, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Get godoc
// @Summary Get application detail
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applies/{id} [get]
func (h *ApplyHandler) Get(c *gin.Context) {
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	apply, err := h.service.Get(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apply, nil)
}

// List godoc
// @Summary List applications
// @Tags Applications
// @Produce json
// @Param areaId query string false "Area ID"
// @Param status query string false "Status"
// @Success 200 {object} response.Envelope
// @Router /applies [get]
func (h *ApplyHandler) List(c *gin.Context) {
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.ApplyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	applies, err := h.service.List(c.Request.Context(), identity, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, applies, nil)
}
