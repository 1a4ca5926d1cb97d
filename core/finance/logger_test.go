package finance

import (
	"fmt"
	"strings"
	"sync"
)

// testLogger records log lines. The rollbar logger is not used here: its
// client starts a background goroutine that goleak would report.
type testLogger struct {
	mu    sync.Mutex
	lines []string
}

func newTestLogger() *testLogger { return new(testLogger) }

func (l *testLogger) record(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, strings.TrimSpace(fmt.Sprintln(append([]interface{}{level, msg}, args...)...)))
}

func (l *testLogger) Debug(msg string, args ...interface{}) { l.record("DEBUG", msg, args) }
func (l *testLogger) Info(msg string, args ...interface{})  { l.record("INFO", msg, args) }
func (l *testLogger) Warn(msg string, args ...interface{})  { l.record("WARN", msg, args) }
func (l *testLogger) Error(msg string, args ...interface{}) { l.record("ERROR", msg, args) }
func (l *testLogger) Fatal(msg string, args ...interface{}) { l.record("FATAL", msg, args) }

func (l *testLogger) Contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
