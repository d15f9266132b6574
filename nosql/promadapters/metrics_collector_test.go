package promadapters_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polystore-db/polystore-go/nosql"
	"github.com/polystore-db/polystore-go/nosql/promadapters"
)

func Test_MetricsCollector_ImplementsMetricsContract(t *testing.T) {
	collector := promadapters.NewMetricsCollector(prometheus.NewRegistry())

	assert.Implements(t, (*nosql.MetricsCollector)(nil), collector)
}

func Test_MetricsCollector_CountsIncrements(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry)

	labels := map[string]string{
		"operation":  "insert",
		"status":     "error",
		"error_type": "statement_execution",
	}

	// act
	collector.IncrementCounter("polystore_database_errors_total", labels)
	collector.IncrementCounter("polystore_database_errors_total", labels)
	collector.IncrementCounter("polystore_database_errors_total", labels)

	// assert
	expected := strings.NewReader(`
# HELP polystore_database_errors_total Polystore operation counter
# TYPE polystore_database_errors_total counter
polystore_database_errors_total{error_type="statement_execution",operation="insert",status="error"} 3
`)
	err := testutil.GatherAndCompare(registry, expected, "polystore_database_errors_total")
	require.NoError(t, err)
}

func Test_MetricsCollector_RecordsValuesAsGauges(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry)

	// act
	collector.RecordValue("polystore_entities_loaded_total", 7, map[string]string{"operation": "select"})
	collector.RecordValue("polystore_entities_loaded_total", 42, map[string]string{"operation": "select"})

	// assert
	expected := strings.NewReader(`
# HELP polystore_entities_loaded_total Polystore current value
# TYPE polystore_entities_loaded_total gauge
polystore_entities_loaded_total{operation="select"} 42
`)
	err := testutil.GatherAndCompare(registry, expected, "polystore_entities_loaded_total")
	require.NoError(t, err)
}

func Test_MetricsCollector_RecordsDurationsAsHistograms(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry)

	labels := map[string]string{"operation": "select", "status": "success"}

	// act
	collector.RecordDuration("polystore_operation_duration_seconds", 150*time.Millisecond, labels)
	collector.RecordDuration("polystore_operation_duration_seconds", 200*time.Millisecond, labels)

	// assert
	family := findFamily(t, registry, "polystore_operation_duration_seconds")
	require.Equal(t, dto.MetricType_HISTOGRAM, family.GetType())
	require.Len(t, family.GetMetric(), 1)

	histogram := family.GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(2), histogram.GetSampleCount())
	assert.InDelta(t, 0.35, histogram.GetSampleSum(), 0.001, "durations are observed in seconds")
}

func Test_MetricsCollector_SharesMetricsAcrossCollectorsOnOneRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := promadapters.NewMetricsCollector(registry)
	second := promadapters.NewMetricsCollector(registry)

	labels := map[string]string{"operation": "put"}

	// act
	first.IncrementCounter("polystore_database_errors_total", labels)
	second.IncrementCounter("polystore_database_errors_total", labels)

	// assert
	family := findFamily(t, registry, "polystore_database_errors_total")
	require.Len(t, family.GetMetric(), 1)
	assert.Equal(t, float64(2), family.GetMetric()[0].GetCounter().GetValue())
}

func Test_MetricsCollector_DropsRecordingsWithMismatchedLabelKeys(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry)

	collector.IncrementCounter("polystore_database_errors_total", map[string]string{"operation": "insert"})

	// the first recording fixed the label set to {operation}
	collector.IncrementCounter("polystore_database_errors_total", map[string]string{"surprise": "label"})

	family := findFamily(t, registry, "polystore_database_errors_total")
	require.Len(t, family.GetMetric(), 1)
	assert.Equal(t, float64(1), family.GetMetric()[0].GetCounter().GetValue())
}

func Test_MetricsCollector_NilAndEmptyLabelsAreAccepted(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry)

	assert.NotPanics(t, func() {
		collector.RecordDuration("nil_labels_seconds", 50*time.Millisecond, nil)
		collector.IncrementCounter("empty_labels_total", map[string]string{})
	})

	findFamily(t, registry, "nil_labels_seconds")
	findFamily(t, registry, "empty_labels_total")
}

func findFamily(t *testing.T, registry *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()

	families, err := registry.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}

	t.Fatalf("metric family %s not found", name)

	return nil
}
