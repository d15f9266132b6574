package testdoubles

import (
	"context"
	"sync"

	"github.com/polystore-db/polystore-go/nosql"
)

// SpanContextSpy records the status and attributes set on a single span.
type SpanContextSpy struct {
	mu         sync.Mutex
	status     string
	attributes map[string]string
}

var _ nosql.SpanContext = (*SpanContextSpy)(nil)

// SetStatus records the span status.
func (c *SpanContextSpy) SetStatus(status string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = status
}

// AddAttribute records a span attribute.
func (c *SpanContextSpy) AddAttribute(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attributes == nil {
		c.attributes = make(map[string]string)
	}

	c.attributes[key] = value
}

// Status returns the recorded span status.
func (c *SpanContextSpy) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

// Attributes returns a copy of the recorded span attributes.
func (c *SpanContextSpy) Attributes() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	attributes := make(map[string]string, len(c.attributes))
	for key, value := range c.attributes {
		attributes[key] = value
	}

	return attributes
}

// SpanRecord is one recorded span: its name, the attributes given at start
// and finish, the final status, and the span context handed out.
type SpanRecord struct {
	Name            string
	StartAttributes map[string]string
	Status          string
	EndAttributes   map[string]string
	SpanContext     *SpanContextSpy
}

// TracingCollectorSpy is a TracingCollector that records every span for
// verification in tests.
type TracingCollectorSpy struct {
	mu    sync.Mutex
	spans []SpanRecord
}

// NewTracingCollectorSpy creates a TracingCollectorSpy ready to record spans.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

var _ nosql.TracingCollector = (*TracingCollectorSpy)(nil)

// StartSpan records the span start and hands out a SpanContextSpy.
func (s *TracingCollectorSpy) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, nosql.SpanContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spanCtx := &SpanContextSpy{}

	s.spans = append(s.spans, SpanRecord{
		Name:            name,
		StartAttributes: copyAttributes(attrs),
		SpanContext:     spanCtx,
	})

	return ctx, spanCtx
}

// FinishSpan records status and end attributes on the span started earlier.
func (s *TracingCollectorSpy) FinishSpan(spanCtx nosql.SpanContext, status string, attrs map[string]string) {
	spy, ok := spanCtx.(*SpanContextSpy)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.spans {
		if s.spans[i].SpanContext == spy {
			s.spans[i].Status = status
			s.spans[i].EndAttributes = copyAttributes(attrs)

			break
		}
	}
}

// Spans returns a copy of all recorded spans.
func (s *TracingCollectorSpy) Spans() []SpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpanRecord(nil), s.spans...)
}

// HasSpan reports whether a span with the given name was recorded.
func (s *TracingCollectorSpy) HasSpan(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, span := range s.spans {
		if span.Name == name {
			return true
		}
	}

	return false
}

// SpanByName returns the first recorded span with the given name.
func (s *TracingCollectorSpy) SpanByName(name string) (SpanRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, span := range s.spans {
		if span.Name == name {
			return span, true
		}
	}

	return SpanRecord{}, false
}

// Reset clears all recorded spans.
func (s *TracingCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.spans = s.spans[:0]
}

func copyAttributes(attrs map[string]string) map[string]string {
	copied := make(map[string]string, len(attrs))
	for key, value := range attrs {
		copied[key] = value
	}

	return copied
}
