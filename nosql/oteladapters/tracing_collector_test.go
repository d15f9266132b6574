package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/polystore-db/polystore-go/nosql"
	"github.com/polystore-db/polystore-go/nosql/oteladapters"
)

func newTracer() (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	return oteladapters.NewTracingCollector(provider.Tracer("test")), exporter
}

func Test_TracingCollector_ImplementsTracingContract(t *testing.T) {
	collector, _ := newTracer()

	assert.Implements(t, (*nosql.TracingCollector)(nil), collector)
}

func Test_TracingCollector_RecordsSpansWithAttributes(t *testing.T) {
	collector, exporter := newTracer()

	startAttrs := map[string]string{
		"operation":  "select",
		"collection": "books",
	}

	// act
	ctx, spanCtx := collector.StartSpan(context.Background(), "polystore.select", startAttrs)
	require.NotNil(t, ctx)
	require.NotNil(t, spanCtx)

	collector.FinishSpan(spanCtx, "success", map[string]string{"entity_count": "7"})

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, "polystore.select", span.Name)
	assert.Equal(t, codes.Ok, span.Status.Code)
	assertSpanHasAttribute(t, span, "operation", "select")
	assertSpanHasAttribute(t, span, "collection", "books")
	assertSpanHasAttribute(t, span, "entity_count", "7")
}

func Test_TracingCollector_MapsStatusStrings(t *testing.T) {
	collector, exporter := newTracer()

	testCases := []struct {
		status              string
		expectedCode        codes.Code
		expectedDescription string
	}{
		{"ok", codes.Ok, ""},
		{"success", codes.Ok, ""},
		{"completed", codes.Ok, ""},
		{"error", codes.Error, "Operation failed"},
		{"failed", codes.Error, "Operation failed"},
		{"failure", codes.Error, "Operation failed"},
		{"cancelled", codes.Error, "Operation cancelled"},
		{"canceled", codes.Error, "Operation cancelled"},
		{"timeout", codes.Error, "Operation timed out"},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			exporter.Reset()

			_, spanCtx := collector.StartSpan(context.Background(), "test", nil)
			collector.FinishSpan(spanCtx, tc.status, nil)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.expectedCode, spans[0].Status.Code)
			assert.Equal(t, tc.expectedDescription, spans[0].Status.Description)
		})
	}
}

func Test_TracingCollector_KeepsUnknownStatusAsAttribute(t *testing.T) {
	collector, exporter := newTracer()

	_, spanCtx := collector.StartSpan(context.Background(), "test", nil)
	collector.FinishSpan(spanCtx, "degraded", nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assertSpanHasAttribute(t, spans[0], "status", "degraded")
}

func Test_TracingCollector_PropagatesTraceContext(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	tracer := provider.Tracer("test")
	collector := oteladapters.NewTracingCollector(tracer)

	parentCtx, parentSpan := tracer.Start(context.Background(), "parent-operation")
	defer parentSpan.End()

	// act
	childCtx, childSpanCtx := collector.StartSpan(parentCtx, "child-operation", nil)
	collector.FinishSpan(childSpanCtx, "ok", nil)

	// assert
	assert.NotEqual(t, parentCtx, childCtx)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "child-operation", spans[0].Name)
	assert.Equal(t, parentSpan.SpanContext().SpanID(), spans[0].Parent.SpanID())
}

func Test_TracingCollector_IgnoresForeignSpanHandles(t *testing.T) {
	collector, exporter := newTracer()

	assert.NotPanics(t, func() {
		collector.FinishSpan(&foreignSpanContext{}, "ok", map[string]string{"test": "value"})
	})

	assert.Empty(t, exporter.GetSpans())
}

func Test_TracingCollector_EmptyAndNilAttributesAreAccepted(t *testing.T) {
	collector, exporter := newTracer()

	_, first := collector.StartSpan(context.Background(), "with-empty", map[string]string{})
	collector.FinishSpan(first, "ok", map[string]string{})

	_, second := collector.StartSpan(context.Background(), "with-nil", nil)
	collector.FinishSpan(second, "ok", nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	for _, span := range spans {
		assert.Equal(t, codes.Ok, span.Status.Code)
	}
}

func Test_OTelSpanContext_SetsStatusAndAttributes(t *testing.T) {
	collector, exporter := newTracer()

	_, spanCtx := collector.StartSpan(context.Background(), "test-span", nil)

	spanCtx.SetStatus("success")
	spanCtx.AddAttribute("rows_affected", "3")

	collector.FinishSpan(spanCtx, "completed", nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assertSpanHasAttribute(t, spans[0], "rows_affected", "3")
}

// foreignSpanContext implements nosql.SpanContext but was not handed out by
// the collector under test.
type foreignSpanContext struct{}

func (f *foreignSpanContext) SetStatus(status string)        {}
func (f *foreignSpanContext) AddAttribute(key, value string) {}

func assertSpanHasAttribute(t *testing.T, span tracetest.SpanStub, key, expectedValue string) {
	t.Helper()

	for _, attr := range span.Attributes {
		if attr.Key == attribute.Key(key) && attr.Value.AsString() == expectedValue {
			return
		}
	}

	assert.Fail(t, "missing span attribute", "%s=%s", key, expectedValue)
}
