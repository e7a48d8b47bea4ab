package logger

import "sync"

// MockLogger is a logger implementation for testing.
type MockLogger struct {
	Messages *[]LogMessage
	attrs    []any
	mu       *sync.Mutex
}

// LogMessage represents a logged message for testing.
type LogMessage struct {
	Level string
	Msg   string
	Args  []any
}

// NewMockLogger creates a new mock logger for testing.
func NewMockLogger() *MockLogger {
	messages := make([]LogMessage, 0)
	return &MockLogger{
		Messages: &messages,
		mu:       &sync.Mutex{},
	}
}

func (m *MockLogger) record(level, msg string, args []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	merged := make([]any, 0, len(m.attrs)+len(args))
	merged = append(merged, m.attrs...)
	merged = append(merged, args...)
	*m.Messages = append(*m.Messages, LogMessage{Level: level, Msg: msg, Args: merged})
}

// Debug logs a debug message.
func (m *MockLogger) Debug(msg string, args ...any) { m.record("DEBUG", msg, args) }

// Info logs an info message.
func (m *MockLogger) Info(msg string, args ...any) { m.record("INFO", msg, args) }

// Warn logs a warning message.
func (m *MockLogger) Warn(msg string, args ...any) { m.record("WARN", msg, args) }

// Error logs an error message.
func (m *MockLogger) Error(msg string, args ...any) { m.record("ERROR", msg, args) }

// With returns a new logger with additional attributes. The message slice is
// shared so tests observe everything logged through derived loggers.
func (m *MockLogger) With(args ...any) Logger {
	m.mu.Lock()
	defer m.mu.Unlock()

	attrs := make([]any, 0, len(m.attrs)+len(args))
	attrs = append(attrs, m.attrs...)
	attrs = append(attrs, args...)

	return &MockLogger{
		Messages: m.Messages,
		attrs:    attrs,
		mu:       m.mu,
	}
}

// HasMessage reports whether a message with the given level and text was logged.
func (m *MockLogger) HasMessage(level, msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, logged := range *m.Messages {
		if logged.Level == level && logged.Msg == msg {
			return true
		}
	}
	return false
}
