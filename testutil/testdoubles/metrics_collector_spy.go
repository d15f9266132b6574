package testdoubles

import (
	"context"
	"sync"
	"time"
)

// DurationRecord captures one recorded duration metric.
type DurationRecord struct {
	Metric   string
	Duration time.Duration
	Labels   map[string]string
	FromCtx  bool
}

// CounterRecord captures one recorded counter increment.
type CounterRecord struct {
	Metric  string
	Labels  map[string]string
	FromCtx bool
}

// ValueRecord captures one recorded gauge value.
type ValueRecord struct {
	Metric  string
	Value   float64
	Labels  map[string]string
	FromCtx bool
}

// MetricsCollectorSpy is a test double for the MetricsCollector and
// ContextualMetricsCollector contracts that records all calls for
// verification. Safe for concurrent use.
type MetricsCollectorSpy struct {
	mu        sync.Mutex
	durations []DurationRecord
	counters  []CounterRecord
	values    []ValueRecord
}

// NewMetricsCollectorSpy creates a MetricsCollectorSpy ready to record calls.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

// RecordDuration records a duration metric.
func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durations = append(s.durations, DurationRecord{Metric: metric, Duration: duration, Labels: labels})
}

// IncrementCounter records a counter increment.
func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters = append(s.counters, CounterRecord{Metric: metric, Labels: labels})
}

// RecordValue records a gauge value.
func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = append(s.values, ValueRecord{Metric: metric, Value: value, Labels: labels})
}

// RecordDurationContext records a duration metric observed through the
// context-aware method.
func (s *MetricsCollectorSpy) RecordDurationContext(_ context.Context, metric string, duration time.Duration, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durations = append(s.durations, DurationRecord{Metric: metric, Duration: duration, Labels: labels, FromCtx: true})
}

// IncrementCounterContext records a counter increment observed through the
// context-aware method.
func (s *MetricsCollectorSpy) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters = append(s.counters, CounterRecord{Metric: metric, Labels: labels, FromCtx: true})
}

// RecordValueContext records a gauge value observed through the context-aware method.
func (s *MetricsCollectorSpy) RecordValueContext(_ context.Context, metric string, value float64, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = append(s.values, ValueRecord{Metric: metric, Value: value, Labels: labels, FromCtx: true})
}

// Durations returns a copy of all recorded duration metrics in order.
func (s *MetricsCollectorSpy) Durations() []DurationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]DurationRecord, len(s.durations))
	copy(records, s.durations)

	return records
}

// Counters returns a copy of all recorded counter increments in order.
func (s *MetricsCollectorSpy) Counters() []CounterRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]CounterRecord, len(s.counters))
	copy(records, s.counters)

	return records
}

// Values returns a copy of all recorded gauge values in order.
func (s *MetricsCollectorSpy) Values() []ValueRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]ValueRecord, len(s.values))
	copy(records, s.values)

	return records
}

// HasDuration reports whether a duration was recorded for the metric name.
func (s *MetricsCollectorSpy) HasDuration(metric string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.durations {
		if record.Metric == metric {
			return true
		}
	}

	return false
}

// CounterCount returns how many increments were recorded for the metric name.
func (s *MetricsCollectorSpy) CounterCount(metric string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, record := range s.counters {
		if record.Metric == metric {
			count++
		}
	}

	return count
}

// Reset discards all recorded metrics.
func (s *MetricsCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durations = nil
	s.counters = nil
	s.values = nil
}
