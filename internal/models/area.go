package models

import "time"

// AreaStatus enumerates the lifecycle states of an area. The status field is
// the mutex for the apply workflow: every transition requires the exact
// predecessor status.
type AreaStatus string

const (
	AreaStatusLocked     AreaStatus = "LOCKED"
	AreaStatusPending    AreaStatus = "PENDING"
	AreaStatusAuthorized AreaStatus = "AUTHORIZED"
	AreaStatusOccupied   AreaStatus = "OCCUPIED"
)

// AreaType categorises the commercial purpose of an area.
type AreaType string

const (
	AreaTypeRetail   AreaType = "retail"
	AreaTypeFood     AreaType = "food"
	AreaTypeService  AreaType = "service"
	AreaTypeAnchor   AreaType = "anchor"
	AreaTypeCommon   AreaType = "common"
	AreaTypeCorridor AreaType = "corridor"
	AreaTypeStorage  AreaType = "storage"
	AreaTypeOffice   AreaType = "office"
	AreaTypeOther    AreaType = "other"
)

// Area is the smallest spatially scoped unit over which editing rights are
// granted. Geometry is stored as JSON understood by the geometry package.
type Area struct {
	ID        string     `db:"id" json:"id"`
	FloorID   string     `db:"floor_id" json:"floorId"`
	MallID    string     `db:"mall_id" json:"mallId"`
	Name      string     `db:"name" json:"name"`
	Type      AreaType   `db:"type" json:"type"`
	Geometry  []byte     `db:"geometry" json:"geometry"`
	Status    AreaStatus `db:"status" json:"status"`
	Version   int64      `db:"version" json:"version"`
	Deleted   bool       `db:"deleted" json:"-"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// Floor groups areas within a mall.
type Floor struct {
	ID      string `db:"id" json:"id"`
	MallID  string `db:"mall_id" json:"mallId"`
	Name    string `db:"name" json:"name"`
	Level   int    `db:"level" json:"level"`
	Deleted bool   `db:"deleted" json:"-"`
}

// Mall is the root of the spatial hierarchy. CurrentLayoutVersion caches the
// active version pointer; the partial unique index on layout_versions remains
// the source of truth.
type Mall struct {
	ID                   string    `db:"id" json:"id"`
	Name                 string    `db:"name" json:"name"`
	Description          string    `db:"description" json:"description,omitempty"`
	CurrentLayoutVersion *string   `db:"current_layout_version" json:"currentLayoutVersion,omitempty"`
	Version              int64     `db:"version" json:"version"`
	Deleted              bool      `db:"deleted" json:"-"`
	CreatedAt            time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time `db:"updated_at" json:"updatedAt"`
}
