package postgresengine

import (
	"errors"

	"github.com/polystore-db/polystore-go/nosql"
)

// Option defines a functional option for configuring a Store.
type Option func(*Store) error

// WithTableName sets the table holding the records. By default, "entities".
func WithTableName(tableName string) Option {
	return func(store *Store) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		store.tableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: Entity counts and durations (production-safe)
// Warn level: Non-critical issues like updates matching nothing
// Error level: Critical failures that cause operation failures.
func WithLogger(logger nosql.Logger) Option {
	return func(store *Store) error {
		store.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
// The collector will receive operation durations, loaded and written entity
// counts, and database error counters.
func WithMetrics(collector nosql.MetricsCollector) Option {
	return func(store *Store) error {
		store.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store.
// The collector will receive one span per store operation, carrying the
// operation name, collection, entity counts, and error details.
func WithTracing(collector nosql.TracingCollector) Option {
	return func(store *Store) error {
		store.tracingCollector = collector
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store.
// The contextual logger will receive log messages with context information
// including automatic trace/span correlation when tracing is enabled.
func WithContextualLogger(logger nosql.ContextualLogger) Option {
	return func(store *Store) error {
		store.contextualLogger = logger
		return nil
	}
}

// WithConverters sets the converter registry consulted when encoding entities
// and condition values. By default, the shared default registry is used.
func WithConverters(converters *nosql.Converters) Option {
	return func(store *Store) error {
		if converters == nil {
			return errors.New("converters must not be nil")
		}

		store.codec = codec{converters: converters}

		return nil
	}
}
