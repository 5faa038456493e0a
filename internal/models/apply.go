package models

import "time"

// ApplyStatus captures the workflow states of an area application. The graph
// is strictly forward-only: PENDING resolves exactly once.
type ApplyStatus string

const (
	ApplyStatusPending  ApplyStatus = "PENDING"
	ApplyStatusApproved ApplyStatus = "APPROVED"
	ApplyStatusRejected ApplyStatus = "REJECTED"
)

// AreaApply is a merchant's request for editing rights over a locked area.
// Resolved applications are immutable historical records.
type AreaApply struct {
	ID                     string      `db:"id" json:"id"`
	AreaID                 string      `db:"area_id" json:"areaId"`
	MerchantID             string      `db:"merchant_id" json:"merchantId"`
	Reason                 string      `db:"reason" json:"reason"`
	RequestedDurationDays  *int        `db:"requested_duration_days" json:"requestedDurationDays,omitempty"`
	Status                 ApplyStatus `db:"status" json:"status"`
	ReviewerID             *string     `db:"reviewer_id" json:"reviewerId,omitempty"`
	ReviewComment          *string     `db:"review_comment" json:"reviewComment,omitempty"`
	CreatedAt              time.Time   `db:"created_at" json:"createdAt"`
	ReviewedAt             *time.Time  `db:"reviewed_at" json:"reviewedAt,omitempty"`
}

// ApplyFilter constrains application listing queries.
type ApplyFilter struct {
	AreaID     string
	MerchantID string
	Status     []ApplyStatus
	Limit      int
	Offset     int
}
