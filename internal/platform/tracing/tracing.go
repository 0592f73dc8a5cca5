// Package tracing wraps OpenTelemetry span handling for services.
//
// Spans go to the globally registered tracer provider; without one installed
// they are no-ops.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "securitysvc/pkg/domain-errors"
	"securitysvc/pkg/requestcontext"
)

// Start opens a span named op on the named tracer and tags it with the request id.
func Start(ctx context.Context, tracerName, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrs = append(attrs, attribute.String("request.id", requestID))
	}
	return otel.Tracer(tracerName).Start(ctx, op, trace.WithAttributes(attrs...))
}

// End closes span. Client errors only annotate the span with their code;
// internal errors mark it failed.
func End(span trace.Span, err error) {
	if err != nil {
		code := dErrors.CodeOf(err)
		span.SetAttributes(attribute.String("error.code", string(code)))
		if code == dErrors.CodeInternal {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
