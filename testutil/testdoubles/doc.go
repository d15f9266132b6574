// Package testdoubles provides spies for the observability interfaces of the
// nosql package:
//   - LoggerSpy and ContextualLoggerSpy capture logging calls
//   - MetricsCollectorSpy captures duration, counter and value recordings
//   - TracingCollectorSpy captures spans with their status and attributes
//
// The spies let engine tests verify instrumentation without a telemetry
// backend. All of them are safe for concurrent use and support Reset.
package testdoubles
