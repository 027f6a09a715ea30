package telemetry

import (
	"context"
	"time"
)

// Member domain event types.
const (
	EventMemberRegistered   = "member.registered"
	EventMemberUpdated      = "member.updated"
	EventMemberDeleted      = "member.deleted"
	EventMemberTransitioned = "member.transitioned"
	EventHistoryAppended    = "member.history_appended"
)

// MemberEvent is the domain event published after a membership mutation.
// It never carries the access code.
type MemberEvent struct {
	Type       string    `json:"type"`
	MemberID   string    `json:"member_id"`
	Name       string    `json:"name,omitempty"`
	Department string    `json:"department,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	At         time.Time `json:"at"`
}

// EventEmitter publishes member events (Kafka, OTel spans). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *MemberEvent) error
}

// MultiEmitter fans an event out to every non-nil emitter and returns the first error.
type MultiEmitter []EventEmitter

func (m MultiEmitter) Emit(ctx context.Context, event *MemberEvent) error {
	var first error
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
