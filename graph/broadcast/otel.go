package broadcast

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTel turns workflow_status and node_streaming events into spans: one span
// per run, covering its lifetime, with node_streaming chunks recorded as
// span events and status transitions recorded as "workflow_status" span
// events carrying the status as an attribute.
type OTel struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

// NewOTel returns a Broadcaster that records spans through tracer, typically
// obtained via otel.Tracer("workflow-engine").
func NewOTel(tracer trace.Tracer) *OTel {
	return &OTel{tracer: tracer, spans: make(map[string]trace.Span)}
}

func (o *OTel) spanFor(ctx context.Context, runID string) trace.Span {
	o.mu.Lock()
	defer o.mu.Unlock()
	if span, ok := o.spans[runID]; ok {
		return span
	}
	_, span := o.tracer.Start(ctx, "workflow_run", trace.WithAttributes(attribute.String("run_id", runID)))
	o.spans[runID] = span
	return span
}

func (o *OTel) BroadcastStatus(ctx context.Context, evt StatusEvent) {
	span := o.spanFor(ctx, evt.RunID)
	span.AddEvent("workflow_status", trace.WithAttributes(
		attribute.String("status", evt.Status),
	))

	switch evt.Status {
	case "completed":
		span.SetStatus(codes.Ok, "")
		o.end(evt.RunID)
	case "error":
		span.SetStatus(codes.Error, evt.Error)
		span.RecordError(errors.New(evt.Error))
		o.end(evt.RunID)
	}
}

func (o *OTel) BroadcastStream(ctx context.Context, evt StreamEvent) {
	span := o.spanFor(ctx, evt.RunID)
	span.AddEvent("node_streaming", trace.WithAttributes(
		attribute.String("node_id", evt.NodeID),
		attribute.Int("delta_len", len(evt.Delta)),
		attribute.Bool("complete", evt.Complete),
	))
}

func (o *OTel) end(runID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if span, ok := o.spans[runID]; ok {
		span.End()
		delete(o.spans, runID)
	}
}
