package testutil

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/systmms/gcptoolkit/internal/logging"
)

// TestLogger is a real *logging.Logger whose output lands in memory, so tests
// can check what was (and wasn't) written to the diagnostic stream.
//
// Example usage:
//
//	logger := NewTestLogger(t)
//	resolver := resolve.New(store, resolve.WithLogger(logger.Logger))
//	...
//	logger.AssertContains(t, "unavailable from GCP")
//	logger.AssertNotContains(t, "hunter2")
type TestLogger struct {
	*logging.Logger

	mu     sync.Mutex
	buffer bytes.Buffer
}

// NewTestLogger creates a TestLogger without colors or debug output.
func NewTestLogger(t *testing.T) *TestLogger {
	t.Helper()
	return NewTestLoggerWithDebug(t, false)
}

// NewTestLoggerWithDebug creates a TestLogger, optionally capturing Debug
// messages too.
func NewTestLoggerWithDebug(t *testing.T, debug bool) *TestLogger {
	t.Helper()

	l := &TestLogger{Logger: logging.New(debug, true)}
	l.Logger.SetOutput(lockedWriter{l})
	return l
}

type lockedWriter struct{ l *TestLogger }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.l.mu.Lock()
	defer w.l.mu.Unlock()
	return w.l.buffer.Write(p)
}

// GetOutput returns everything logged so far.
func (l *TestLogger) GetOutput() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buffer.String()
}

// Clear discards captured output.
func (l *TestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buffer.Reset()
}

// AssertContains asserts that the log output contains substr.
func (l *TestLogger) AssertContains(t *testing.T, substr string) {
	t.Helper()
	assert.Contains(t, l.GetOutput(), substr, "Log output should contain: %s", substr)
}

// AssertNotContains asserts that the log output does not contain substr.
// Use it to check that secret values never reach the logs.
func (l *TestLogger) AssertNotContains(t *testing.T, substr string) {
	t.Helper()
	assert.NotContains(t, l.GetOutput(), substr, "Log output should not contain: %s", substr)
}

// AssertEmpty asserts that nothing was logged.
func (l *TestLogger) AssertEmpty(t *testing.T) {
	t.Helper()
	assert.Empty(t, l.GetOutput(), "Expected no log output")
}
