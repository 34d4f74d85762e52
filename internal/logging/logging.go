package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

var logLevelPriority = map[LogLevel]int{
	DebugLevel: 0,
	InfoLevel:  1,
	WarnLevel:  2,
	ErrorLevel: 3,
}

// ParseLevel maps a config string to a LogLevel, falling back to info.
func ParseLevel(s string) LogLevel {
	lvl := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := logLevelPriority[lvl]; ok {
		return lvl
	}
	return InfoLevel
}

// Format represents the output format for logs
type Format string

const (
	// JSONFormat outputs logs as JSON
	JSONFormat Format = "json"
	// HumanFormat outputs logs in human-readable format
	HumanFormat Format = "human"
)

// Config holds logger configuration
type Config struct {
	Format Format
	Level  LogLevel
	Output io.Writer // Optional, defaults to stderr
}

// Logger provides structured logging. A Logger created by With shares the
// writer of its parent and prepends its bound fields to every entry.
type Logger struct {
	config Config
	writer io.Writer
	bound  map[string]interface{}
}

// NewLogger creates a new logger with the given configuration
func NewLogger(config Config) *Logger {
	writer := config.Output
	if writer == nil {
		writer = os.Stderr
	}
	if config.Level == "" {
		config.Level = InfoLevel
	}

	return &Logger{
		config: config,
		writer: writer,
	}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return NewLogger(Config{Level: ErrorLevel, Output: io.Discard})
}

// With returns a child logger that adds fields to every entry.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	merged := make(map[string]interface{}, len(l.bound)+len(fields))
	for k, v := range l.bound {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{config: l.config, writer: l.writer, bound: merged}
}

type logEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func (l *Logger) shouldLog(level LogLevel) bool {
	return logLevelPriority[level] >= logLevelPriority[l.config.Level]
}

func (l *Logger) log(level LogLevel, message string, fields map[string]interface{}) {
	if l == nil || !l.shouldLog(level) {
		return
	}

	if len(l.bound) > 0 {
		all := make(map[string]interface{}, len(l.bound)+len(fields))
		for k, v := range l.bound {
			all[k] = v
		}
		for k, v := range fields {
			all[k] = v
		}
		fields = all
	}

	entry := logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   message,
		Fields:    fields,
	}

	if l.config.Format == JSONFormat {
		l.logJSON(entry)
	} else {
		l.logHuman(entry)
	}
}

func (l *Logger) logJSON(entry logEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to marshal log entry: %v\n", err)
		return
	}
	_, _ = fmt.Fprintln(l.writer, string(data))
}

func (l *Logger) logHuman(entry logEntry) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", entry.Timestamp, entry.Level, entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" | ")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, entry.Fields[k])
		}
	}
	_, _ = fmt.Fprintln(l.writer, b.String())
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields map[string]interface{}) {
	l.log(DebugLevel, message, fields)
}

// Info logs an info message
func (l *Logger) Info(message string, fields map[string]interface{}) {
	l.log(InfoLevel, message, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields map[string]interface{}) {
	l.log(WarnLevel, message, fields)
}

// Error logs an error message
func (l *Logger) Error(message string, fields map[string]interface{}) {
	l.log(ErrorLevel, message, fields)
}
