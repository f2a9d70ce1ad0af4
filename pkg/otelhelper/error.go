package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError marks the span failed and records the error with any extra
// attributes describing the failing operation.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if len(attrs) > 0 {
		span.AddEvent("error_occurred", trace.WithAttributes(attrs...))
	}
}
