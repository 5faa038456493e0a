package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jay1247sjh/smartmall-governance-api/internal/dto"
	"github.com/jay1247sjh/smartmall-governance-api/internal/models"
	appErrors "github.com/jay1247sjh/smartmall-governance-api/pkg/errors"
	"github.com/jay1247sjh/smartmall-governance-api/pkg/export"
)

type auditStore interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
}

// AuditService reads the append-only trail and renders compliance exports.
type AuditService struct {
	audits auditStore
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(audits auditStore, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		audits: audits,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// List returns audit entries matching the query. Admin only; the handler
// enforces the role, this layer just translates the query.
func (s *AuditService) List(ctx context.Context, query dto.AuditQuery) ([]models.AuditLog, error) {
	filter, err := buildAuditFilter(query)
	if err != nil {
		return nil, err
	}
	entries, err := s.audits.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "list audit logs")
	}
	return entries, nil
}

// Export renders the matching trail as CSV or PDF bytes plus a content type.
func (s *AuditService) Export(ctx context.Context, query dto.AuditQuery) ([]byte, string, error) {
	entries, err := s.List(ctx, query)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Time", "Actor", "Action", "Resource", "Resource ID"},
		Rows:    make([]map[string]string, 0, len(entries)),
	}
	for _, entry := range entries {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Time":        entry.CreatedAt.UTC().Format(time.RFC3339),
			"Actor":       entry.ActorID,
			"Action":      entry.Action,
			"Resource":    entry.Resource,
			"Resource ID": entry.ResourceID,
		})
	}

	switch query.Format {
	case "pdf":
		payload, err := s.pdf.Render(dataset, "governance audit trail")
		if err != nil {
			return nil, "", appErrors.Internal(err, "render pdf export")
		}
		return payload, "application/pdf", nil
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Internal(err, "render csv export")
		}
		return payload, "text/csv", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf, got "+strconv.Quote(query.Format))
	}
}

func buildAuditFilter(query dto.AuditQuery) (models.AuditFilter, error) {
	filter := models.AuditFilter{
		ActorID:    query.ActorID,
		Action:     query.Action,
		Resource:   query.Resource,
		ResourceID: query.ResourceID,
		Limit:      query.Limit,
		Offset:     query.Offset,
	}
	if query.From != "" {
		from, err := time.Parse(time.RFC3339, query.From)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "from must be RFC3339")
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := time.Parse(time.RFC3339, query.To)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "to must be RFC3339")
		}
		filter.To = &to
	}
	return filter, nil
}
