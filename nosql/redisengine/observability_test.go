package redisengine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polystore-db/polystore-go/nosql/redisengine"
	"github.com/polystore-db/polystore-go/testutil/testdoubles"
)

// basicMetricsOnly narrows the spy to the plain MetricsCollector contract so
// the bucket cannot see the context-aware methods.
type basicMetricsOnly struct {
	spy *testdoubles.MetricsCollectorSpy
}

func (b basicMetricsOnly) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	b.spy.RecordDuration(metric, duration, labels)
}

func (b basicMetricsOnly) IncrementCounter(metric string, labels map[string]string) {
	b.spy.IncrementCounter(metric, labels)
}

func (b basicMetricsOnly) RecordValue(metric string, value float64, labels map[string]string) {
	b.spy.RecordValue(metric, value, labels)
}

func Test_Observability_Bucket_WithMetrics_RecordsReadMetrics(t *testing.T) {
	spy := testdoubles.NewMetricsCollectorSpy()
	bucket, _ := newBucket(t, redisengine.WithMetrics(spy))
	ctx := context.Background()

	require.NoError(t, bucket.Put(ctx, "k1", "v1"))
	require.NoError(t, bucket.Put(ctx, "k2", "v2"))
	spy.Reset()

	// act
	_, err := bucket.GetAll(ctx, []any{"k1", "k2"})
	require.NoError(t, err)

	// assert
	require.True(t, spy.HasDuration("polystore_operation_duration_seconds"))

	durations := spy.Durations()
	assert.Equal(t, "get_all", durations[0].Labels["operation"])
	assert.Equal(t, "success", durations[0].Labels["status"])

	values := spy.Values()
	require.Len(t, values, 1)
	assert.Equal(t, "polystore_values_loaded_total", values[0].Metric)
	assert.Equal(t, float64(2), values[0].Value)
}

func Test_Observability_Bucket_WithMetrics_RecordsWriteMetrics(t *testing.T) {
	spy := testdoubles.NewMetricsCollectorSpy()
	bucket, _ := newBucket(t, redisengine.WithMetrics(spy))

	err := bucket.Put(context.Background(), "k", "v")
	require.NoError(t, err)

	values := spy.Values()
	require.Len(t, values, 1)
	assert.Equal(t, "polystore_values_written_total", values[0].Metric)
	assert.Equal(t, float64(1), values[0].Value)
	assert.Equal(t, "put", values[0].Labels["operation"])
}

func Test_Observability_Bucket_WithMetrics_CountsRemovedKeys(t *testing.T) {
	spy := testdoubles.NewMetricsCollectorSpy()
	bucket, _ := newBucket(t, redisengine.WithMetrics(spy))
	ctx := context.Background()

	require.NoError(t, bucket.Put(ctx, "k1", "v1"))
	require.NoError(t, bucket.Put(ctx, "k2", "v2"))
	spy.Reset()

	// act
	require.NoError(t, bucket.RemoveAll(ctx, []any{"k1", "k2"}))

	// assert
	values := spy.Values()
	require.Len(t, values, 1)
	assert.Equal(t, "polystore_values_written_total", values[0].Metric)
	assert.Equal(t, float64(2), values[0].Value)
	assert.Equal(t, "remove_all", values[0].Labels["operation"])
}

func Test_Observability_Bucket_WithMetrics_RecordsErrorMetrics(t *testing.T) {
	spy := testdoubles.NewMetricsCollectorSpy()
	bucket, client := newBucket(t, redisengine.WithMetrics(spy))
	client.failWith = errors.New("connection refused")

	// act
	err := bucket.Put(context.Background(), "k", "v")
	require.Error(t, err)

	// assert
	require.Equal(t, 1, spy.CounterCount("polystore_database_errors_total"))

	counters := spy.Counters()
	assert.Equal(t, "put", counters[0].Labels["operation"])
	assert.Equal(t, "command_execution", counters[0].Labels["error_type"])

	durations := spy.Durations()
	require.Len(t, durations, 1)
	assert.Equal(t, "error", durations[0].Labels["status"])
}

func Test_Observability_Bucket_WithMetrics_PrefersContextualCollector(t *testing.T) {
	spy := testdoubles.NewMetricsCollectorSpy()
	bucket, _ := newBucket(t, redisengine.WithMetrics(spy))

	err := bucket.Put(context.Background(), "k", "v")
	require.NoError(t, err)

	durations := spy.Durations()
	require.NotEmpty(t, durations)
	assert.True(t, durations[0].FromCtx)
}

func Test_Observability_Bucket_WithMetrics_FallsBackToNonContextualCollector(t *testing.T) {
	spy := testdoubles.NewMetricsCollectorSpy()
	bucket, _ := newBucket(t, redisengine.WithMetrics(basicMetricsOnly{spy: spy}))

	err := bucket.Put(context.Background(), "k", "v")
	require.NoError(t, err)

	durations := spy.Durations()
	require.NotEmpty(t, durations)
	assert.False(t, durations[0].FromCtx)
}

func Test_Observability_Bucket_WithTracing_RecordsReadSpans(t *testing.T) {
	spy := &testdoubles.TracingCollectorSpy{}
	bucket, _ := newBucket(t, redisengine.WithTracing(spy))
	ctx := context.Background()

	require.NoError(t, bucket.Put(ctx, "k", "v"))
	spy.Reset()

	// act
	_, ok, err := bucket.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	// assert
	span, found := spy.SpanByName("polystore.get")
	require.True(t, found)
	assert.Equal(t, "success", span.Status)
	assert.Equal(t, "get", span.StartAttributes["operation"])
	assert.Equal(t, "1", span.EndAttributes["value_count"])
}

func Test_Observability_Bucket_WithTracing_RecordsWriteSpans(t *testing.T) {
	spy := &testdoubles.TracingCollectorSpy{}
	bucket, _ := newBucket(t, redisengine.WithTracing(spy))

	err := bucket.Put(context.Background(), "k", "v")
	require.NoError(t, err)

	span, found := spy.SpanByName("polystore.put")
	require.True(t, found)
	assert.Equal(t, "success", span.Status)
	assert.Equal(t, "1", span.EndAttributes["value_count"])
}

func Test_Observability_Bucket_WithTracing_AbsentKeyCountsAsZero(t *testing.T) {
	spy := &testdoubles.TracingCollectorSpy{}
	bucket, _ := newBucket(t, redisengine.WithTracing(spy))

	_, ok, err := bucket.Get(context.Background(), "nobody")
	require.NoError(t, err)
	require.False(t, ok)

	span, found := spy.SpanByName("polystore.get")
	require.True(t, found)
	assert.Equal(t, "success", span.Status)
	assert.Equal(t, "0", span.EndAttributes["value_count"])
}

func Test_Observability_Bucket_WithTracing_RecordsErrorSpans(t *testing.T) {
	spy := &testdoubles.TracingCollectorSpy{}
	bucket, client := newBucket(t, redisengine.WithTracing(spy))
	client.failWith = errors.New("connection refused")

	err := bucket.Remove(context.Background(), "k")
	require.Error(t, err)

	span, found := spy.SpanByName("polystore.remove")
	require.True(t, found)
	assert.Equal(t, "error", span.Status)
	assert.Equal(t, "command_execution", span.EndAttributes["error_type"])
}

func Test_Observability_Bucket_NilCollectorsAreRejected(t *testing.T) {
	client := newFakeCommander()

	_, err := redisengine.NewBucket(client, redisengine.WithMetrics(nil))
	assert.ErrorContains(t, err, "metrics collector must not be nil")

	_, err = redisengine.NewBucket(client, redisengine.WithTracing(nil))
	assert.ErrorContains(t, err, "tracing collector must not be nil")
}
