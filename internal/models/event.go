package models

import "time"

// EventType enumerates the domain events emitted by the governance engine.
// Delivery is fire-and-forget; a failed notification never rolls back the
// governing transaction.
type EventType string

const (
	EventApplyCreated      EventType = "ApplyCreated"
	EventApplyApproved     EventType = "ApplyApproved"
	EventApplyRejected     EventType = "ApplyRejected"
	EventPermissionRevoked EventType = "PermissionRevoked"
	EventPermissionExpired EventType = "PermissionExpired"
	EventVersionPublished  EventType = "VersionPublished"
)

// DomainEvent is the payload handed to the notification collaborator.
type DomainEvent struct {
	Type       EventType `json:"type"`
	ActorID    string    `json:"actorId"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resourceId"`
	MallID     string    `json:"mallId,omitempty"`
	AreaID     string    `json:"areaId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
