package dto

// RevokePermissionRequest carries the mandatory revocation reason.
type RevokePermissionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CheckActiveResponse answers a builder's pre-edit permission probe.
type CheckActiveResponse struct {
	AreaID     string `json:"areaId"`
	MerchantID string `json:"merchantId"`
	Active     bool   `json:"active"`
}
