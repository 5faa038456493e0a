package dto

// SubmitApplyRequest is a merchant's request for editing rights over an area.
type SubmitApplyRequest struct {
	AreaID                string `json:"areaId" binding:"required"`
	Reason                string `json:"reason" binding:"required"`
	RequestedDurationDays *int   `json:"requestedDurationDays,omitempty" binding:"omitempty,gt=0"`
}

// ApproveApplyRequest carries the admin decision payload for an approval.
type ApproveApplyRequest struct {
	Comment   string `json:"comment,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty" binding:"omitempty,rfc3339"` // empty means the configured default TTL
}

// RejectApplyRequest carries the mandatory rejection reason.
type RejectApplyRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ApplyQuery filters application listings.
type ApplyQuery struct {
	AreaID string `form:"areaId"`
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}
