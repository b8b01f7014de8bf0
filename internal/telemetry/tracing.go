package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation name used when no tracer is supplied.
const TracerName = "github.com/comalice/storex"

const spanDispatch = "storex.dispatch"

// Attribute keys set on dispatch spans.
var (
	AttrStoreID   = attribute.Key("storex.store_id")
	AttrAction    = attribute.Key("storex.action")
	AttrKind      = attribute.Key("storex.kind")
	AttrCommitted = attribute.Key("storex.committed")
)

// NoopTracer returns a tracer that records nothing.
func NoopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer(TracerName)
}

// DispatchSpan wraps the span of one dispatch.
type DispatchSpan struct {
	span trace.Span
}

// StartDispatch opens a dispatch span. A nil tracer yields a no-op span.
func StartDispatch(ctx context.Context, tracer trace.Tracer, storeID, action string) (context.Context, DispatchSpan) {
	if tracer == nil {
		tracer = NoopTracer()
	}
	ctx, span := tracer.Start(ctx, spanDispatch,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			AttrStoreID.String(storeID),
			AttrAction.String(action),
		),
	)
	return ctx, DispatchSpan{span: span}
}

// End closes the span with the dispatch outcome.
func (s DispatchSpan) End(kind string, committed bool, err error) {
	s.span.SetAttributes(
		AttrKind.String(kind),
		AttrCommitted.Bool(committed),
	)
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
}
