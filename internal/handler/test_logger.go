package handler

import (
	"fmt"
	"sync"

	"pdf-suite-server/internal/domain"
)

// MockHandlerLogger records messages for handler package tests.
type MockHandlerLogger struct {
	mu       sync.Mutex
	messages []string
}

func NewMockHandlerLogger() *MockHandlerLogger {
	return &MockHandlerLogger{}
}

var _ domain.Logger = (*MockHandlerLogger)(nil)

func (l *MockHandlerLogger) record(level, msg string, fields []interface{}) {
	l.mu.Lock()
	l.messages = append(l.messages, fmt.Sprintf("%s: %s %v", level, msg, fields))
	l.mu.Unlock()
}

func (l *MockHandlerLogger) Info(msg string, fields ...interface{}) {
	l.record("INFO", msg, fields)
}

func (l *MockHandlerLogger) Error(msg string, err error, fields ...interface{}) {
	l.record("ERROR", msg+": "+err.Error(), fields)
}

func (l *MockHandlerLogger) Debug(msg string, fields ...interface{}) {
	l.record("DEBUG", msg, fields)
}

func (l *MockHandlerLogger) Warn(msg string, fields ...interface{}) {
	l.record("WARN", msg, fields)
}

// Messages returns a copy of what was logged so far.
func (l *MockHandlerLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}
