package testdoubles

import (
	"sync"
)

// Log levels recorded by the logger spies.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LoggerCall captures one recorded log call.
type LoggerCall struct {
	Level string
	Msg   string
	Args  []any
}

// LoggerSpy is a test double for the Logger contract that records all calls
// for verification. Safe for concurrent use.
type LoggerSpy struct {
	mu    sync.Mutex
	calls []LoggerCall
}

// NewLoggerSpy creates a LoggerSpy ready to record calls.
func NewLoggerSpy() *LoggerSpy {
	return &LoggerSpy{}
}

// Debug records a debug-level call.
func (s *LoggerSpy) Debug(msg string, args ...any) {
	s.record(LevelDebug, msg, args)
}

// Info records an info-level call.
func (s *LoggerSpy) Info(msg string, args ...any) {
	s.record(LevelInfo, msg, args)
}

// Warn records a warn-level call.
func (s *LoggerSpy) Warn(msg string, args ...any) {
	s.record(LevelWarn, msg, args)
}

// Error records an error-level call.
func (s *LoggerSpy) Error(msg string, args ...any) {
	s.record(LevelError, msg, args)
}

func (s *LoggerSpy) record(level, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, LoggerCall{Level: level, Msg: msg, Args: args})
}

// Calls returns a copy of all recorded calls in order.
func (s *LoggerSpy) Calls() []LoggerCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := make([]LoggerCall, len(s.calls))
	copy(calls, s.calls)

	return calls
}

// HasMessage reports whether any recorded call carries the message.
func (s *LoggerSpy) HasMessage(msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, call := range s.calls {
		if call.Msg == msg {
			return true
		}
	}

	return false
}

// MessagesAtLevel returns the messages recorded at the given level, in order.
func (s *LoggerSpy) MessagesAtLevel(level string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]string, 0)
	for _, call := range s.calls {
		if call.Level == level {
			messages = append(messages, call.Msg)
		}
	}

	return messages
}

// Reset discards all recorded calls.
func (s *LoggerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = nil
}
