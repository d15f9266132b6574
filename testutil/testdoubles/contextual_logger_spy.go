package testdoubles

import (
	"context"
	"sync"
)

// ContextualLoggerCall captures one recorded context-aware log call.
type ContextualLoggerCall struct {
	Level string
	Msg   string
	Args  []any
	Ctx   context.Context
}

// ContextualLoggerSpy is a test double for the ContextualLogger contract that
// records all calls for verification. Safe for concurrent use.
type ContextualLoggerSpy struct {
	mu    sync.Mutex
	calls []ContextualLoggerCall
}

// NewContextualLoggerSpy creates a ContextualLoggerSpy ready to record calls.
func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{}
}

// DebugContext records a debug-level call with its context.
func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, LevelDebug, msg, args)
}

// InfoContext records an info-level call with its context.
func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, LevelInfo, msg, args)
}

// WarnContext records a warn-level call with its context.
func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, LevelWarn, msg, args)
}

// ErrorContext records an error-level call with its context.
func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, LevelError, msg, args)
}

func (s *ContextualLoggerSpy) record(ctx context.Context, level, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, ContextualLoggerCall{Level: level, Msg: msg, Args: args, Ctx: ctx})
}

// Calls returns a copy of all recorded calls in order.
func (s *ContextualLoggerSpy) Calls() []ContextualLoggerCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := make([]ContextualLoggerCall, len(s.calls))
	copy(calls, s.calls)

	return calls
}

// HasMessage reports whether any recorded call carries the message.
func (s *ContextualLoggerSpy) HasMessage(msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, call := range s.calls {
		if call.Msg == msg {
			return true
		}
	}

	return false
}

// Reset discards all recorded calls.
func (s *ContextualLoggerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = nil
}
