// Package logger internal/infrastructure/logger/logger.go
package logger

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger defines the interface for the engine logger
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// logrusLogger implements Logger on top of a structured logrus entry.
type logrusLogger struct {
	entry *logrus.Entry
}

// New creates a JSON-formatted logger writing to output at the given level.
// A nil output defaults to stdout.
func New(output io.Writer, level logrus.Level) Logger {
	if output == nil {
		output = os.Stdout
	}

	l := logrus.New()
	l.SetOutput(output)
	l.SetLevel(level)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	})

	return &logrusLogger{entry: logrus.NewEntry(l)}
}

// WithField returns a new logger with the field added to the log context
func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a new logger with the fields added to the log context
func (l *logrusLogger) WithFields(fields map[string]interface{}) Logger {
	if len(fields) == 0 {
		return l
	}
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// Debug logs a message at debug level
func (l *logrusLogger) Debug(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

// Info logs a message at info level
func (l *logrusLogger) Info(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Info(msg)
}

// Warn logs a message at warn level
func (l *logrusLogger) Warn(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Warn(msg)
}

// Error logs a message at error level
func (l *logrusLogger) Error(msg string, fields map[string]interface{}) {
	l.entry.WithFields(logrus.Fields(fields)).Error(msg)
}

var defaultLogger = New(os.Stdout, logrus.InfoLevel)

// Default returns the default logger
func Default() Logger {
	return defaultLogger
}

// SetDefault sets the default logger
func SetDefault(logger Logger) {
	if logger != nil {
		defaultLogger = logger
	}
}
