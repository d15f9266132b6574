package postgresengine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/polystore-db/polystore-go/nosql"
)

const (
	metricOperationDuration = "polystore_operation_duration_seconds"
	metricEntitiesLoaded    = "polystore_entities_loaded_total"
	metricEntitiesWritten   = "polystore_entities_written_total"
	metricDatabaseErrors    = "polystore_database_errors_total"

	spanNamePrefix = "polystore."

	spanAttrOperation    = "operation"
	spanAttrCollection   = "collection"
	spanAttrEntityCount  = "entity_count"
	spanAttrDurationMS   = "duration_ms"
	spanAttrErrorType    = "error_type"
	spanAttrRowsAffected = "rows_affected"

	labelStatus = "status"

	statusSuccess = "success"
	statusError   = "error"

	operationSelect = "select"
	operationInsert = "insert"
	operationUpdate = "update"
	operationDelete = "delete"
	operationCount  = "count"

	errorTypeBuildQuery = "build_query"
	errorTypeEncode     = "encode_entity"
	errorTypeDecode     = "decode_record"
	errorTypeQuery      = "query_execution"
	errorTypeExec       = "statement_execution"
	errorTypeScan       = "row_scan"
	errorTypeNonUnique  = "non_unique_result"
)

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
func (s *Store) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, s.toMilliseconds(duration), logAttrQuery, sqlQuery)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action,
			logAttrDurationMS, s.toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (s *Store) logOperation(ctx context.Context, action string, args ...any) {
	if s.logger != nil {
		s.logger.Info(logMsgOperation+action, args...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// logWarn logs non-critical issues at warn level if a logger is configured.
func (s *Store) logWarn(ctx context.Context, message string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(message, args...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, message, args...)
	}
}

// logError logs error information at error level if a logger is configured.
func (s *Store) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if s.logger != nil {
		s.logger.Error(message, allArgs...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (s *Store) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// recordDurationMetrics records operation duration if a collector is configured.
func (s *Store) recordDurationMetrics(
	ctx context.Context,
	duration time.Duration,
	operation, status string,
) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		labelStatus:       status,
	}

	if contextualCollector, ok := s.metricsCollector.(nosql.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricOperationDuration, duration, labels)
	} else {
		s.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
	}
}

// recordValueMetrics records an entity count if a collector is configured.
func (s *Store) recordValueMetrics(
	ctx context.Context,
	metricName string,
	value float64,
	operation, status string,
) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		labelStatus:       status,
	}

	if contextualCollector, ok := s.metricsCollector.(nosql.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metricName, value, labels)
	} else {
		s.metricsCollector.RecordValue(metricName, value, labels)
	}
}

// recordErrorMetrics increments the database error counter if a collector is configured.
func (s *Store) recordErrorMetrics(ctx context.Context, operation, errorType string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		labelStatus:       statusError,
		spanAttrErrorType: errorType,
	}

	if contextualCollector, ok := s.metricsCollector.(nosql.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricDatabaseErrors, labels)
	} else {
		s.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
	}
}

// startTraceSpan starts a tracing span if a tracing collector is configured.
func (s *Store) startTraceSpan(
	ctx context.Context,
	operation string,
	attrs map[string]string,
) (context.Context, nosql.SpanContext) {
	if s.tracingCollector != nil {
		return s.tracingCollector.StartSpan(ctx, operation, attrs)
	}

	return ctx, nil
}

// finishTraceSpan finishes a tracing span if a tracing collector is configured.
func (s *Store) finishTraceSpan(spanCtx nosql.SpanContext, status string, attrs map[string]string) {
	if s.tracingCollector != nil && spanCtx != nil {
		s.tracingCollector.FinishSpan(spanCtx, status, attrs)
	}
}

// operationObserver encapsulates the tracing span and metrics lifecycle of
// one store operation.
type operationObserver struct {
	store     *Store
	ctx       context.Context
	operation string
	span      nosql.SpanContext
}

// startObserving opens a span for the operation and returns the observer
// together with the possibly span-carrying context.
func (s *Store) startObserving(ctx context.Context, operation, collection string) (*operationObserver, context.Context) {
	attrs := map[string]string{
		spanAttrOperation:  operation,
		spanAttrCollection: collection,
	}

	newCtx, span := s.startTraceSpan(ctx, spanNamePrefix+operation, attrs)

	return &operationObserver{
		store:     s,
		ctx:       newCtx,
		operation: operation,
		span:      span,
	}, newCtx
}

// succeed records duration and entity count metrics and finishes the span.
func (o *operationObserver) succeed(entityCount int, duration time.Duration) {
	o.store.recordDurationMetrics(o.ctx, duration, o.operation, statusSuccess)

	if metricName := o.valueMetricName(); metricName != "" {
		o.store.recordValueMetrics(o.ctx, metricName, float64(entityCount), o.operation, statusSuccess)
	}

	if o.span != nil {
		o.span.SetStatus(statusSuccess)
		o.span.AddAttribute(spanAttrEntityCount, fmt.Sprintf("%d", entityCount))
		o.span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", o.store.toMilliseconds(duration)))
	}

	o.store.finishTraceSpan(o.span, statusSuccess, map[string]string{
		spanAttrEntityCount: fmt.Sprintf("%d", entityCount),
	})
}

// fail records error metrics and finishes the span with error details.
func (o *operationObserver) fail(errorType string, duration time.Duration) {
	o.store.recordDurationMetrics(o.ctx, duration, o.operation, statusError)
	o.store.recordErrorMetrics(o.ctx, o.operation, errorType)

	if o.span != nil {
		o.span.SetStatus(statusError)
		o.span.AddAttribute(spanAttrErrorType, errorType)

		if duration > 0 {
			o.span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", o.store.toMilliseconds(duration)))
		}
	}

	o.store.finishTraceSpan(o.span, statusError, map[string]string{spanAttrErrorType: errorType})
}

func (o *operationObserver) valueMetricName() string {
	switch o.operation {
	case operationSelect:
		return metricEntitiesLoaded
	case operationInsert, operationUpdate, operationDelete:
		return metricEntitiesWritten
	default:
		return ""
	}
}
