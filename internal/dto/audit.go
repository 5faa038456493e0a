package dto

// AuditQuery filters audit trail listings and exports.
type AuditQuery struct {
	ActorID    string `form:"actorId"`
	Action     string `form:"action"`
	Resource   string `form:"resource"`
	ResourceID string `form:"resourceId"`
	From       string `form:"from" binding:"omitempty,rfc3339"`
	To         string `form:"to" binding:"omitempty,rfc3339"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
	Format     string `form:"format"` // csv or pdf for exports
}
