package dto

import (
	"encoding/json"

	"github.com/jay1247sjh/smartmall-governance-api/internal/geometry"
)

// ProposedObject is one object placement inside a proposal or an edit probe.
type ProposedObject struct {
	ObjectID string       `json:"objectId" binding:"required"`
	Box      geometry.Box `json:"box" binding:"required"`
}

// SubmitProposalRequest batches a merchant's edits for an area. Changes is
// frozen at submit time.
type SubmitProposalRequest struct {
	AreaID      string          `json:"areaId" binding:"required"`
	Description string          `json:"description,omitempty"`
	Changes     json.RawMessage `json:"changes" binding:"required"`
}

// ProposalChanges is the decoded shape of LayoutChangeProposal.Changes.
type ProposalChanges struct {
	Added    []ProposedObject `json:"added,omitempty"`
	Modified []ProposedObject `json:"modified,omitempty"`
	Removed  []string         `json:"removed,omitempty"`
}

// ReviewProposalRequest carries the admin decision for a proposal.
type ReviewProposalRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVED REJECTED"`
	Comment  string `json:"comment,omitempty"`
}

// CreateDraftRequest assembles approved proposals into a draft version.
type CreateDraftRequest struct {
	MallID      string   `json:"mallId" binding:"required"`
	ProposalIDs []string `json:"proposalIds" binding:"required,min=1"`
	Description string   `json:"description,omitempty"`
}

// PublishRequest promotes a draft version to ACTIVE.
type PublishRequest struct {
	VersionID string `json:"versionId" binding:"required"`
}

// RollbackRequest republishes an old snapshot as a new version.
type RollbackRequest struct {
	MallID          string `json:"mallId" binding:"required"`
	TargetVersionID string `json:"targetVersionId" binding:"required"`
}

// ValidateEditRequest is the builder's server-side boundary probe for a
// single object placement.
type ValidateEditRequest struct {
	AreaID string       `json:"areaId" binding:"required"`
	Box    geometry.Box `json:"box" binding:"required"`
}

// ValidateEditResponse reports the outcome of a boundary probe. Violation is
// populated only when Valid is false.
type ValidateEditResponse struct {
	Valid     bool                        `json:"valid"`
	Violation *geometry.BoundaryViolation `json:"violation,omitempty"`
}

// ProposalQuery filters proposal listings.
type ProposalQuery struct {
	AreaID string `form:"areaId"`
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}
