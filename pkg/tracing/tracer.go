// Package tracing wraps the global OTel tracer for the DAO adapters and
// services. With no TracerProvider registered every span is a no-op.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "gizmo"

// Start creates a span as a child of the span in ctx. The caller must end it:
//
//	ctx, span := tracing.Start(ctx, "graph.embedded.get_vertex",
//	    attribute.String("gizmo.vertex.type", typ),
//	)
//	defer span.End()
func Start(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// Finish records err on span, if any, and ends it. Meant for
// `defer func() { tracing.Finish(span, err) }()` with a named error result.
func Finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
