// Package producer publishes member domain events to a message broker.
package producer

import (
	"context"

	"iesa-console/backend/internal/telemetry"
)

// Producer emits member events. Callers use it best-effort: log and ignore errors.
type Producer interface {
	// Emit sends a single event. Implementations may block briefly; call through telemetry.EmitAsync.
	Emit(ctx context.Context, event *telemetry.MemberEvent) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
