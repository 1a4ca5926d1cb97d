package logsvc

import (
	"fmt"
	"strings"
	"sync"

	"github.com/trezcool/bolsa/core"
)

// MemoryLogger keeps log lines in memory instead of printing them. Used in tests.
type MemoryLogger struct {
	mu    sync.Mutex
	lines []string
}

var _ core.Logger = (*MemoryLogger)(nil)

func NewMemoryLogger() *MemoryLogger { return new(MemoryLogger) }

func (l *MemoryLogger) record(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line := level + ": " + msg
	for _, arg := range args {
		line += fmt.Sprintf(" | %v", arg)
	}
	l.lines = append(l.lines, line)
}

func (l *MemoryLogger) Debug(msg string, args ...interface{}) { l.record("DEBUG", msg, args) }
func (l *MemoryLogger) Info(msg string, args ...interface{})  { l.record("INFO", msg, args) }
func (l *MemoryLogger) Warn(msg string, args ...interface{})  { l.record("WARN", msg, args) }
func (l *MemoryLogger) Error(msg string, args ...interface{}) { l.record("ERROR", msg, args) }
func (l *MemoryLogger) Fatal(msg string, args ...interface{}) { l.record("FATAL", msg, args) }

func (l *MemoryLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// Contains reports whether any recorded line contains substr.
func (l *MemoryLogger) Contains(substr string) bool {
	for _, line := range l.Lines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
