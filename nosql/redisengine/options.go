package redisengine

import (
	"errors"

	"github.com/polystore-db/polystore-go/nosql"
)

// Option is a function that configures a Bucket.
type Option func(*Bucket) error

// WithLogger sets a logger and enables logging. By default, logging is disabled.
//
// Debug level: logs keys written, read and removed.
func WithLogger(logger nosql.Logger) Option {
	return func(bucket *Bucket) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}

		bucket.logger = logger

		return nil
	}
}

// WithConverters sets the converter registry consulted when encoding values.
// By default, the shared default registry is used.
func WithConverters(converters *nosql.Converters) Option {
	return func(bucket *Bucket) error {
		if converters == nil {
			return errors.New("converters must not be nil")
		}

		bucket.codec = codec{converters: converters}

		return nil
	}
}

// WithKeyPrefix sets a prefix prepended to every key, which namespaces the
// bucket inside the flat Redis keyspace. By default, keys are stored as given.
func WithKeyPrefix(prefix string) Option {
	return func(bucket *Bucket) error {
		bucket.keyPrefix = prefix

		return nil
	}
}

// WithMetrics sets a metrics collector and enables metrics collection.
// By default, metrics collection is disabled.
//
// Collectors that also implement nosql.ContextualMetricsCollector receive
// the operation's context with every recording.
func WithMetrics(collector nosql.MetricsCollector) Option {
	return func(bucket *Bucket) error {
		if collector == nil {
			return errors.New("metrics collector must not be nil")
		}

		bucket.metricsCollector = collector

		return nil
	}
}

// WithTracing sets a tracing collector and enables tracing spans around
// every bucket operation. By default, tracing is disabled.
func WithTracing(collector nosql.TracingCollector) Option {
	return func(bucket *Bucket) error {
		if collector == nil {
			return errors.New("tracing collector must not be nil")
		}

		bucket.tracingCollector = collector

		return nil
	}
}
