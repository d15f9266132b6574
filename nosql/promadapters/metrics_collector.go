// Package promadapters exposes engine metrics through a Prometheus registry.
package promadapters

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/polystore-db/polystore-go/nosql"
)

// MetricsCollector implements nosql.MetricsCollector on Prometheus:
//   - RecordDuration -> HistogramVec, observed in seconds
//   - IncrementCounter -> CounterVec
//   - RecordValue -> GaugeVec
//
// Prometheus fixes the label set of a metric at registration. The label
// keys of the first recording under a name define that set; recordings
// under the same name with different keys are dropped. Safe for
// concurrent use.
type MetricsCollector struct {
	registerer prometheus.Registerer
	mu         sync.Mutex
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
}

var _ nosql.MetricsCollector = (*MetricsCollector)(nil)

// NewMetricsCollector creates a collector registering its metrics on the
// given registerer. A nil registerer means prometheus.DefaultRegisterer.
func NewMetricsCollector(registerer prometheus.Registerer) *MetricsCollector {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &MetricsCollector{
		registerer: registerer,
		histograms: make(map[string]*prometheus.HistogramVec),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

// RecordDuration observes a duration in the named histogram.
func (m *MetricsCollector) RecordDuration(metricName string, duration time.Duration, labels map[string]string) {
	histogram := m.getOrCreateHistogram(metricName, labelKeys(labels))
	if histogram == nil {
		return
	}

	observer, err := histogram.GetMetricWith(labels)
	if err != nil {
		return
	}

	observer.Observe(duration.Seconds())
}

// IncrementCounter increments the named counter by one.
func (m *MetricsCollector) IncrementCounter(metricName string, labels map[string]string) {
	counter := m.getOrCreateCounter(metricName, labelKeys(labels))
	if counter == nil {
		return
	}

	metric, err := counter.GetMetricWith(labels)
	if err != nil {
		return
	}

	metric.Inc()
}

// RecordValue sets the named gauge to the value.
func (m *MetricsCollector) RecordValue(metricName string, value float64, labels map[string]string) {
	gauge := m.getOrCreateGauge(metricName, labelKeys(labels))
	if gauge == nil {
		return
	}

	metric, err := gauge.GetMetricWith(labels)
	if err != nil {
		return
	}

	metric.Set(value)
}

func (m *MetricsCollector) getOrCreateHistogram(name string, keys []string) *prometheus.HistogramVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if histogram, exists := m.histograms[name]; exists {
		return histogram
	}

	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Help:    "Polystore operation duration",
		Buckets: prometheus.DefBuckets,
	}, keys)

	registered, ok := register(m.registerer, histogram)
	if !ok {
		return nil
	}

	m.histograms[name] = registered

	return registered
}

func (m *MetricsCollector) getOrCreateCounter(name string, keys []string) *prometheus.CounterVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if counter, exists := m.counters[name]; exists {
		return counter
	}

	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: "Polystore operation counter",
	}, keys)

	registered, ok := register(m.registerer, counter)
	if !ok {
		return nil
	}

	m.counters[name] = registered

	return registered
}

func (m *MetricsCollector) getOrCreateGauge(name string, keys []string) *prometheus.GaugeVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gauge, exists := m.gauges[name]; exists {
		return gauge
	}

	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: "Polystore current value",
	}, keys)

	registered, ok := register(m.registerer, gauge)
	if !ok {
		return nil
	}

	m.gauges[name] = registered

	return registered
}

// register registers the collector, adopting the already registered one
// when another MetricsCollector on the same registry got there first.
func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) (T, bool) {
	err := registerer.Register(collector)
	if err == nil {
		return collector, true
	}

	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		if existing, ok := alreadyRegistered.ExistingCollector.(T); ok {
			return existing, true
		}
	}

	var zero T

	return zero, false
}

func labelKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
