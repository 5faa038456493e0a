package models

import "time"

// VersionStatus enumerates the lifecycle of a layout version.
type VersionStatus string

const (
	VersionStatusDraft    VersionStatus = "DRAFT"
	VersionStatusActive   VersionStatus = "ACTIVE"
	VersionStatusArchived VersionStatus = "ARCHIVED"
)

// ProposalStatus captures the workflow of a layout change proposal. MERGED is
// terminal and only reachable through a publish.
type ProposalStatus string

const (
	ProposalStatusPendingReview ProposalStatus = "PENDING_REVIEW"
	ProposalStatusApproved      ProposalStatus = "APPROVED"
	ProposalStatusRejected      ProposalStatus = "REJECTED"
	ProposalStatusMerged        ProposalStatus = "MERGED"
)

// LayoutVersion is an immutable, ordered snapshot descriptor of a mall's
// published structure. VersionNumber strictly increases per mall; at most one
// version per mall is ACTIVE at any instant.
type LayoutVersion struct {
	ID            string        `db:"id" json:"id"`
	MallID        string        `db:"mall_id" json:"mallId"`
	VersionNumber int           `db:"version_number" json:"versionNumber"`
	Status        VersionStatus `db:"status" json:"status"`
	Content       []byte        `db:"content" json:"content"`
	Description   string        `db:"description" json:"description,omitempty"`
	CreatedBy     string        `db:"created_by" json:"createdBy"`
	CreatedByRole UserRole      `db:"created_by_role" json:"createdByRole"`
	Version       int64         `db:"version" json:"version"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
	PublishedAt   *time.Time    `db:"published_at" json:"publishedAt,omitempty"`
}

// LayoutChangeProposal is a merchant's batched set of edits awaiting merge.
// Changes is a frozen JSON snapshot taken at submit time; later edits to the
// merchant's working copy never mutate it.
type LayoutChangeProposal struct {
	ID            string         `db:"id" json:"id"`
	AreaID        string         `db:"area_id" json:"areaId"`
	MerchantID    string         `db:"merchant_id" json:"merchantId"`
	Description   string         `db:"description" json:"description,omitempty"`
	Changes       []byte         `db:"changes" json:"changes"`
	Status        ProposalStatus `db:"status" json:"status"`
	VersionID     *string        `db:"version_id" json:"versionId,omitempty"`
	ReviewComment *string        `db:"review_comment" json:"reviewComment,omitempty"`
	SubmittedAt   time.Time      `db:"submitted_at" json:"submittedAt"`
	ReviewedAt    *time.Time     `db:"reviewed_at" json:"reviewedAt,omitempty"`
}

// ProposalFilter constrains proposal listing queries.
type ProposalFilter struct {
	AreaID     string
	MerchantID string
	Status     []ProposalStatus
	Limit      int
	Offset     int
}
