package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartOpSpan starts a client span for one store operation.
func StartOpSpan(ctx context.Context, tracer trace.Tracer, operation, keyspace string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "cassandra "+operation,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("db.system", "cassandra"),
		attribute.String("db.operation", operation),
		attribute.String("db.name", keyspace),
	)
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
