package models

// UserRole represents the roles supplied by the external identity provider.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleMerchant UserRole = "MERCHANT"
	RoleUser     UserRole = "USER"
)

// Identity is the authenticated actor extracted from an externally issued
// token. The engine trusts this input and never authenticates on its own.
type Identity struct {
	UserID     string   `json:"userId"`
	Role       UserRole `json:"role"`
	MerchantID string   `json:"merchantId,omitempty"`
}

// ActorMerchantID returns the merchant scope of the actor, falling back to the
// user ID when the identity provider did not issue a distinct merchant ID.
func (i *Identity) ActorMerchantID() string {
	if i == nil {
		return ""
	}
	if i.MerchantID != "" {
		return i.MerchantID
	}
	return i.UserID
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
