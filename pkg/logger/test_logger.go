package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger captures log entries in memory so tests can assert on them.
type TestLogger struct {
	mu      sync.Mutex
	entries []TestEntry

	fields map[string]interface{}
	err    error
	parent *TestLogger
}

// TestEntry is one captured log call.
type TestEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Err     error
}

// NewTestLogger creates an empty capture logger.
func NewTestLogger() *TestLogger {
	return &TestLogger{}
}

func (l *TestLogger) root() *TestLogger {
	if l.parent != nil {
		return l.parent
	}
	return l
}

func (l *TestLogger) log(level, msg string) {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	fields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	r.entries = append(r.entries, TestEntry{Level: level, Message: msg, Fields: fields, Err: l.err})
}

func (l *TestLogger) Debug(msg string) { l.log("debug", msg) }
func (l *TestLogger) Info(msg string)  { l.log("info", msg) }
func (l *TestLogger) Warn(msg string)  { l.log("warn", msg) }
func (l *TestLogger) Error(msg string) { l.log("error", msg) }
func (l *TestLogger) Fatal(msg string) { l.log("fatal", msg) }

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{parent: l.root(), fields: merged, err: l.err}
}

func (l *TestLogger) WithError(err error) Logger {
	return &TestLogger{parent: l.root(), fields: l.fields, err: err}
}

func (l *TestLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}

// Entries returns a copy of everything captured so far.
func (l *TestLogger) Entries() []TestEntry {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TestEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// HasMessage reports whether any captured entry carries the message.
func (l *TestLogger) HasMessage(text string) bool {
	for _, e := range l.Entries() {
		if e.Message == text {
			return true
		}
	}
	return false
}

// ByLevel returns the captured entries at one level.
func (l *TestLogger) ByLevel(level string) []TestEntry {
	var out []TestEntry
	for _, e := range l.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
