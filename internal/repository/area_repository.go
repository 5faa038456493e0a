package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jay1247sjh/smartmall-governance-api/internal/models"
)

// AreaRepository reads the spatial hierarchy. Area status writes happen only
// inside the apply/permission transactions owned by their repositories.
type AreaRepository struct {
	db *sqlx.DB
}

// NewAreaRepository constructs the repository.
func NewAreaRepository(db *sqlx.DB) *AreaRepository {
	return &AreaRepository{db: db}
}

const areaColumns = `id, floor_id, mall_id, name, type, geometry, status, version, deleted, created_at, updated_at`

// GetByID fetches an area. Soft-deleted rows behave as absent.
func (r *AreaRepository) GetByID(ctx context.Context, id string) (*models.Area, error) {
	query := fmt.Sprintf(`SELECT %s FROM areas WHERE id = $1 AND NOT deleted`, areaColumns)
	var area models.Area
	if err := r.db.GetContext(ctx, &area, query, id); err != nil {
		return nil, err
	}
	return &area, nil
}

// ListAvailable returns areas a merchant may currently apply for, optionally
// scoped to one floor.
func (r *AreaRepository) ListAvailable(ctx context.Context, mallID, floorID string) ([]models.Area, error) {
	builder := strings.Builder{}
	fmt.Fprintf(&builder, `SELECT %s FROM areas WHERE NOT deleted AND status = $1`, areaColumns)
	args := []interface{}{models.AreaStatusLocked}
	if mallID != "" {
		args = append(args, mallID)
		fmt.Fprintf(&builder, " AND mall_id = $%d", len(args))
	}
	if floorID != "" {
		args = append(args, floorID)
		fmt.Fprintf(&builder, " AND floor_id = $%d", len(args))
	}
	builder.WriteString(" ORDER BY floor_id, name")

	var areas []models.Area
	if err := r.db.SelectContext(ctx, &areas, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list available areas: %w", err)
	}
	return areas, nil
}

// GetMall fetches a mall record. Soft-deleted rows behave as absent.
func (r *AreaRepository) GetMall(ctx context.Context, id string) (*models.Mall, error) {
	const query = `SELECT id, name, description, current_layout_version, version, deleted, created_at, updated_at
	FROM malls WHERE id = $1 AND NOT deleted`
	var mall models.Mall
	if err := r.db.GetContext(ctx, &mall, query, id); err != nil {
		return nil, err
	}
	return &mall, nil
}
