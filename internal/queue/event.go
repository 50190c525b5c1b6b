// Package queue defines the audit events exchanged over the message broker
// and the background consumer that turns them into the audit log.
package queue

// AuditQueueName is the durable queue carrying authentication audit events.
const AuditQueueName = "auth.audit"

// Audit event types.
const (
	EventUserRegistered = "user.registered"
	EventUserLogin      = "user.login"
	EventRoleAssigned   = "role.assigned"
	EventRoleRevoked    = "role.revoked"
)

// AuthEvent is published whenever a user registers, logs in, or has a role
// granted or revoked.  It carries enough information for downstream
// consumers to log or alert without querying the primary database.  The
// subject's password or token material never appears here.
type AuthEvent struct {
	ID         string `json:"id"`             // unique event id (uuid)
	Type       string `json:"type"`           // one of the Event* constants
	Email      string `json:"email"`          // affected user
	Role       string `json:"role,omitempty"` // role name for role.* events
	Actor      string `json:"actor,omitempty"`
	OccurredAt string `json:"occurred_at"` // RFC 3339 UTC
}
