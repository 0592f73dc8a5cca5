package audit

import "time"

// Action names a change applied to reference data.
type Action string

const (
	ActionSecurityTypeCreated Action = "security_type_created"
	ActionSecurityTypeUpdated Action = "security_type_updated"
	ActionSecurityTypeDeleted Action = "security_type_deleted"
	ActionSecurityCreated     Action = "security_created"
	ActionSecurityUpdated     Action = "security_updated"
	ActionSecurityDeleted     Action = "security_deleted"
)

// EntityType names the collection an event refers to.
type EntityType string

const (
	EntitySecurityType EntityType = "security_type"
	EntitySecurity     EntityType = "security"
)

// Event is emitted after a successful mutation. Keep it transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	Action     Action     `json:"action"`
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
	// Version is the version the entity holds after the change; for deletes,
	// the version that was removed.
	Version    int       `json:"version"`
	RequestID  string    `json:"requestId,omitempty"`
	APIVersion string    `json:"apiVersion,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
