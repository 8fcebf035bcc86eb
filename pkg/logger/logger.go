// Package logger provides the logging interface used by every fzpwup
// component together with console, file, in-memory and test backends.
package logger

import (
	"fmt"
	"log"
	"sync"
)

// Logger defines the interface for leveled logging across all components.
// Implementations must be safe for concurrent use: uploads log from a
// worker goroutine while the batch coordinator logs from the caller's.
type Logger interface {
	// Debug logs protocol detail (request URLs, status codes).
	Debug(format string, args ...interface{})

	// Info logs an informational message (e.g., "Uploaded a.jpg").
	Info(format string, args ...interface{})

	// Warning logs a warning message.
	Warning(format string, args ...interface{})

	// Error logs an error message (e.g., "The logout failed").
	Error(format string, args ...interface{})

	// Close releases resources held by the logger (e.g., an open log file).
	// Safe to call multiple times. Returns nil for loggers without resources.
	Close() error
}

// StandardLogger wraps the stdlib *log.Logger for file output.
// Debug messages are dropped unless enabled with SetDebug.
type StandardLogger struct {
	logger *log.Logger
	mu     sync.RWMutex
	debug  bool
}

// NewStandardLogger creates a logger that wraps the given *log.Logger.
func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

// SetDebug toggles output of Debug messages.
func (s *StandardLogger) SetDebug(on bool) {
	s.mu.Lock()
	s.debug = on
	s.mu.Unlock()
}

// Debug logs a debug message with [DEBUG] prefix when debug output is on.
func (s *StandardLogger) Debug(format string, args ...interface{}) {
	s.mu.RLock()
	on := s.debug
	s.mu.RUnlock()
	if on {
		s.logger.Printf("[DEBUG] "+format, args...)
	}
}

// Info logs an informational message with [INFO] prefix.
func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.logger.Printf("[INFO] "+format, args...)
}

// Warning logs a warning message with [WARNING] prefix.
func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.logger.Printf("[WARNING] "+format, args...)
}

// Error logs an error message with [ERROR] prefix.
func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.logger.Printf("[ERROR] "+format, args...)
}

// Close is a no-op for StandardLogger; the owner of the writer closes it.
func (s *StandardLogger) Close() error {
	return nil
}

// NopLogger is a logger that discards all messages.
type NopLogger struct{}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Debug(format string, args ...interface{})   {}
func (n *NopLogger) Info(format string, args ...interface{})    {}
func (n *NopLogger) Warning(format string, args ...interface{}) {}
func (n *NopLogger) Error(format string, args ...interface{})   {}
func (n *NopLogger) Close() error                               { return nil }

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}

var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*NopLogger)(nil)
)

// MockLogger implements Logger for testing purposes.
// It records all log calls for verification in tests.
type MockLogger struct {
	mu           sync.Mutex
	DebugCalls   []string
	InfoCalls    []string
	WarningCalls []string
	ErrorCalls   []string
	CloseCalled  bool
}

// NewMockLogger creates a new MockLogger for testing.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) record(dst *[]string, format string, args []interface{}) {
	m.mu.Lock()
	*dst = append(*dst, fmt.Sprintf(format, args...))
	m.mu.Unlock()
}

// Debug records the formatted message.
func (m *MockLogger) Debug(format string, args ...interface{}) {
	m.record(&m.DebugCalls, format, args)
}

// Info records the formatted message.
func (m *MockLogger) Info(format string, args ...interface{}) {
	m.record(&m.InfoCalls, format, args)
}

// Warning records the formatted message.
func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.record(&m.WarningCalls, format, args)
}

// Error records the formatted message.
func (m *MockLogger) Error(format string, args ...interface{}) {
	m.record(&m.ErrorCalls, format, args)
}

// Close records that Close was called.
func (m *MockLogger) Close() error {
	m.mu.Lock()
	m.CloseCalled = true
	m.mu.Unlock()
	return nil
}

// Errors returns a copy of the recorded error messages.
func (m *MockLogger) Errors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ErrorCalls...)
}

// Infos returns a copy of the recorded info messages.
func (m *MockLogger) Infos() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.InfoCalls...)
}

// Debugs returns a copy of the recorded debug messages.
func (m *MockLogger) Debugs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.DebugCalls...)
}

var _ Logger = (*MockLogger)(nil)
