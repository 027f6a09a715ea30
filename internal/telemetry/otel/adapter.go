package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"iesa-console/backend/internal/telemetry"
)

// NewSpanEmitter returns an EventEmitter that records each member event as a short span.
// A nil provider yields a no-op emitter.
func NewSpanEmitter(provider trace.TracerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &spanEmitter{tracer: provider.Tracer("iesa-console/member-events")}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.MemberEvent) error { return nil }

type spanEmitter struct {
	tracer trace.Tracer
}

func (e *spanEmitter) Emit(ctx context.Context, event *telemetry.MemberEvent) error {
	if event == nil {
		return nil
	}
	opts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindProducer)}
	if !event.At.IsZero() {
		opts = append(opts, trace.WithTimestamp(event.At))
	}
	_, span := e.tracer.Start(ctx, event.Type, opts...)
	span.SetAttributes(
		attribute.String("member.id", event.MemberID),
		attribute.String("member.department", event.Department),
	)
	if event.Detail != "" {
		span.SetAttributes(attribute.String("event.detail", event.Detail))
	}
	span.End()
	return nil
}
