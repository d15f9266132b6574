package redisengine

import (
	"context"
	"fmt"
	"time"

	"github.com/polystore-db/polystore-go/nosql"
)

const (
	metricOperationDuration = "polystore_operation_duration_seconds"
	metricValuesLoaded      = "polystore_values_loaded_total"
	metricValuesWritten     = "polystore_values_written_total"
	metricDatabaseErrors    = "polystore_database_errors_total"

	spanNamePrefix = "polystore."

	spanAttrOperation  = "operation"
	spanAttrValueCount = "value_count"
	spanAttrErrorType  = "error_type"

	labelStatus = "status"

	statusSuccess = "success"
	statusError   = "error"

	operationPut       = "put"
	operationPutAll    = "put_all"
	operationGet       = "get"
	operationGetAll    = "get_all"
	operationRemove    = "remove"
	operationRemoveAll = "remove_all"

	errorTypeRenderKey = "render_key"
	errorTypeEncode    = "encode_value"
	errorTypeDecode    = "decode_value"
	errorTypeCommand   = "command_execution"
)

// recordDurationMetrics records operation duration if a collector is configured.
func (b *Bucket) recordDurationMetrics(
	ctx context.Context,
	duration time.Duration,
	operation, status string,
) {
	if b.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		labelStatus:       status,
	}

	if contextualCollector, ok := b.metricsCollector.(nosql.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricOperationDuration, duration, labels)
	} else {
		b.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
	}
}

// recordValueMetrics records a value count if a collector is configured.
func (b *Bucket) recordValueMetrics(
	ctx context.Context,
	metricName string,
	value float64,
	operation, status string,
) {
	if b.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		labelStatus:       status,
	}

	if contextualCollector, ok := b.metricsCollector.(nosql.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metricName, value, labels)
	} else {
		b.metricsCollector.RecordValue(metricName, value, labels)
	}
}

// recordErrorMetrics increments the database error counter if a collector is configured.
func (b *Bucket) recordErrorMetrics(ctx context.Context, operation, errorType string) {
	if b.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		labelStatus:       statusError,
		spanAttrErrorType: errorType,
	}

	if contextualCollector, ok := b.metricsCollector.(nosql.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricDatabaseErrors, labels)
	} else {
		b.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
	}
}

// startTraceSpan starts a tracing span if a tracing collector is configured.
func (b *Bucket) startTraceSpan(
	ctx context.Context,
	operation string,
	attrs map[string]string,
) (context.Context, nosql.SpanContext) {
	if b.tracingCollector != nil {
		return b.tracingCollector.StartSpan(ctx, operation, attrs)
	}

	return ctx, nil
}

// finishTraceSpan finishes a tracing span if a tracing collector is configured.
func (b *Bucket) finishTraceSpan(spanCtx nosql.SpanContext, status string, attrs map[string]string) {
	if b.tracingCollector != nil && spanCtx != nil {
		b.tracingCollector.FinishSpan(spanCtx, status, attrs)
	}
}

// operationObserver encapsulates the tracing span and metrics lifecycle of
// one bucket operation. Bucket operations are single commands, so the
// observer measures the duration itself from the moment it is created.
type operationObserver struct {
	bucket    *Bucket
	ctx       context.Context
	operation string
	span      nosql.SpanContext
	start     time.Time
}

// startObserving opens a span for the operation and returns the observer
// together with the possibly span-carrying context.
func (b *Bucket) startObserving(ctx context.Context, operation string) (*operationObserver, context.Context) {
	attrs := map[string]string{
		spanAttrOperation: operation,
	}

	newCtx, span := b.startTraceSpan(ctx, spanNamePrefix+operation, attrs)

	return &operationObserver{
		bucket:    b,
		ctx:       newCtx,
		operation: operation,
		span:      span,
		start:     time.Now(),
	}, newCtx
}

// succeed records duration and value count metrics and finishes the span.
func (o *operationObserver) succeed(valueCount int) {
	o.bucket.recordDurationMetrics(o.ctx, time.Since(o.start), o.operation, statusSuccess)

	if metricName := o.valueMetricName(); metricName != "" {
		o.bucket.recordValueMetrics(o.ctx, metricName, float64(valueCount), o.operation, statusSuccess)
	}

	if o.span != nil {
		o.span.SetStatus(statusSuccess)
		o.span.AddAttribute(spanAttrValueCount, fmt.Sprintf("%d", valueCount))
	}

	o.bucket.finishTraceSpan(o.span, statusSuccess, map[string]string{
		spanAttrValueCount: fmt.Sprintf("%d", valueCount),
	})
}

// fail records error metrics and finishes the span with error details.
func (o *operationObserver) fail(errorType string) {
	o.bucket.recordDurationMetrics(o.ctx, time.Since(o.start), o.operation, statusError)
	o.bucket.recordErrorMetrics(o.ctx, o.operation, errorType)

	if o.span != nil {
		o.span.SetStatus(statusError)
		o.span.AddAttribute(spanAttrErrorType, errorType)
	}

	o.bucket.finishTraceSpan(o.span, statusError, map[string]string{spanAttrErrorType: errorType})
}

func (o *operationObserver) valueMetricName() string {
	switch o.operation {
	case operationGet, operationGetAll:
		return metricValuesLoaded
	case operationPut, operationPutAll, operationRemove, operationRemoveAll:
		return metricValuesWritten
	default:
		return ""
	}
}
