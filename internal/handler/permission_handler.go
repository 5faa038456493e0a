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

type permissionService interface {
	CheckActive(ctx context.Context, areaID, merchantID string) (*dto.CheckActiveResponse, error)
	Get(ctx context.Context, actor *models.Identity, id string) (*models.AreaPermission, error)
	ListMerchantPermissions(ctx context.Context, actor *models.Identity, merchantID string) ([]models.AreaPermission, error)
	Revoke(ctx context.Context, actor *models.Identity, permissionID string, req dto.RevokePermissionRequest) error
}

// PermissionHandler exposes REST endpoints for the permission ledger.
type PermissionHandler struct {
	service permissionService
}

// NewPermissionHandler constructs the handler.
func NewPermissionHandler(service permissionService) *PermissionHandler {
	return &PermissionHandler{service: service}
}

// CheckActive godoc
// @Summary Check whether the caller holds active editing rights on an area
// @Tags Permissions
// @Produce json
// @Param areaId path string true "Area ID"
// @Success 200 {object} response.Envelope
// @Router /areas/{areaId}/permission/check [get]
func (h *PermissionHandler) CheckActive(c *gin.Context) {
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.service.CheckActive(c.Request.Context(), c.Param("areaId"), identity.ActorMerchantID())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Get godoc
// @Summary Get permission detail
// @Tags Permissions
// @Produce json
// @Param id path string true "Permission ID"
// @Success 200 {object} response.Envelope
// @Router /permissions/{id} [get]
func (h *PermissionHandler) Get(c *gin.Context) {
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	perm, err := h.service.Get(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, perm, nil)
}

// ListMine godoc
// @Summary List the caller's permission history
// @Tags Permissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /permissions [get]
func (h *PermissionHandler) ListMine(c *gin.Context) {
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	merchantID := c.Query("merchantId")
	if merchantID == "" {
		merchantID = identity.ActorMerchantID()
	}
	perms, err := h.service.ListMerchantPermissions(c.Request.Context(), identity, merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, perms, nil)
}

// Revoke godoc
// @Summary Revoke an active permission
// @Tags Permissions
// @Accept json
// @Produce json
// @Param id path string true "Permission ID"
// @Param payload body dto.RevokePermissionRequest true "Revocation payload"
// @Success 204
// @Router /permissions/{id}/revoke [post]
func (h *PermissionHandler) Revoke(c *gin.Context) {
	var req dto.RevokePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "revocation reason is required"))
		return
	}
	identity := identityFromContext(c)
	if identity == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Revoke(c.Request.Context(), identity, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
