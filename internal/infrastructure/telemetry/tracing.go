package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for application spans
const TracerName = "storepos-backend"

// Span attribute keys used by application spans
const (
	SpanAttrOrderID         = "pos.order_id"
	SpanAttrOrderNumber     = "pos.order_number"
	SpanAttrUpstreamOrderID = "pos.upstream_order_id"
	SpanAttrProductID       = "pos.product_id"
	SpanAttrPending         = "pos.pending_orders"
)

// StartSpan starts an internal span from the global tracer provider.
// The caller must End it.
//
//	ctx, span := telemetry.StartSpan(ctx, "order_sync.push",
//	    attribute.String(telemetry.SpanAttrOrderID, id.String()))
//	defer span.End()
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError marks the span failed. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceID returns the active trace id, or "" outside a sampled span.
func TraceID(ctx context.Context) string {
	id := trace.SpanContextFromContext(ctx).TraceID()
	if !id.IsValid() {
		return ""
	}
	return id.String()
}
