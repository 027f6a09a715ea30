package domain

import "time"

// Actions recorded by the console.
const (
	ActionLoginSuccess  = "login_success"
	ActionLoginFailure  = "login_failure"
	ActionLogout        = "logout"
	ActionMemberDeleted = "member_deleted"
	ActionEventCreated  = "event_created"
	ActionEventRemoved  = "event_removed"
	ActionForbidden     = "forbidden"
)

// AuditLog represents an audit event.
type AuditLog struct {
	ID        string    `json:"id"`
	MemberID  string    `json:"memberId,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
