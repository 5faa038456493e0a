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

type auditService interface {
	List(ctx context.Context, query dto.AuditQuery) ([]models.AuditLog, error)
	Export(ctx context.Context, query dto.AuditQuery) ([]byte, string, error)
}

// AuditHandler exposes the audit trail and its compliance exports.
type AuditHandler struct {
	service       auditService
	exportEnabled bool
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(service auditService, exportEnabled bool) *AuditHandler {
	return &AuditHandler{service: service, exportEnabled: exportEnabled}
}

// List godoc
// @Summary List audit trail entries
// @Tags Audit
// @Produce json
// @Param actorId query string false "Actor ID"
// @Param action query string false "Action"
// @Param resource query string false "Resource"
// @Param from query string false "RFC3339 lower bound"
// @Param to query string false "RFC3339 upper bound"
// @Success 200 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	var query dto.AuditQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	entries, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Export godoc
// @Summary Export the audit trail as CSV or PDF
// @Tags Audit
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} byte
// @Router /audit/export [get]
func (h *AuditHandler) Export(c *gin.Context) {
	if !h.exportEnabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "audit export is disabled"))
		return
	}
	var query dto.AuditQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	payload, contentType, err := h.service.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := "audit-trail.csv"
	if contentType == "application/pdf" {
		filename = "audit-trail.pdf"
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, payload)
}
