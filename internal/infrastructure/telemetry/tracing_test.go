package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/storepos/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func TestStartSpan(t *testing.T) {
	recorder := installRecorder(t)

	ctx, span := telemetry.StartSpan(context.Background(), "order_sync.push",
		attribute.String(telemetry.SpanAttrOrderNumber, "POS-20261019-0001"))
	traceID := telemetry.TraceID(ctx)
	telemetry.RecordError(span, errors.New("upstream rejected"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	got := ended[0]
	assert.Equal(t, "order_sync.push", got.Name())
	assert.Equal(t, telemetry.TracerName, got.InstrumentationScope().Name)
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, traceID, got.SpanContext().TraceID().String())
	assert.Contains(t, got.Attributes(), attribute.String(telemetry.SpanAttrOrderNumber, "POS-20261019-0001"))
	require.Len(t, got.Events(), 1)
	assert.Equal(t, "exception", got.Events()[0].Name)
}

func TestRecordError_NilIsIgnored(t *testing.T) {
	recorder := installRecorder(t)

	_, span := telemetry.StartSpan(context.Background(), "catalog.refresh")
	telemetry.RecordError(span, nil)
	telemetry.RecordError(nil, errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Empty(t, ended[0].Events())
}

func TestTraceID_OutsideSpan(t *testing.T) {
	assert.Empty(t, telemetry.TraceID(context.Background()))
}
