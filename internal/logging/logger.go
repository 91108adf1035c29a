// Package logging provides minimal structured JSON-line logging, the one
// logging idiom this codebase's teacher actually uses (no third-party
// logging library is wired anywhere in the source corpus).
package logging

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// Logger writes single-line JSON events to an underlying stdlib log.Logger.
type Logger struct {
	logger *log.Logger
}

// Global is the process-wide default logger, writing to stdout.
var Global = New(os.Stdout)

// New creates a Logger writing JSON lines to w.
func New(w *os.File) *Logger {
	return &Logger{logger: log.New(w, "", 0)}
}

// Event is one structured log entry.
type Event struct {
	Timestamp string         `json:"timestamp"`
	Component string         `json:"component"`
	Type      string         `json:"type"`
	Level     string         `json:"level"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

func (l *Logger) emit(level, component, typ, message string, data map[string]any) {
	if l == nil || l.logger == nil {
		return
	}
	e := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Component: component,
		Type:      typ,
		Level:     level,
		Message:   message,
		Data:      data,
	}
	if b, err := json.Marshal(e); err == nil {
		l.logger.Println(string(b))
	}
}

// Info logs an informational event.
func (l *Logger) Info(component, typ, message string, data map[string]any) {
	l.emit("info", component, typ, message, data)
}

// Warn logs a recoverable-but-noteworthy event (e.g. an isolated per-topic
// enrichment failure, a missing vector-store collection).
func (l *Logger) Warn(component, typ, message string, data map[string]any) {
	l.emit("warn", component, typ, message, data)
}

// Error logs an unrecoverable event for the caller's operation.
func (l *Logger) Error(component, typ, message string, data map[string]any) {
	l.emit("error", component, typ, message, data)
}

// Debug logs a fine-grained diagnostic event.
func (l *Logger) Debug(component, typ, message string, data map[string]any) {
	l.emit("debug", component, typ, message, data)
}
