// Package logging provides structured leveled logging for newsgraph.
//
// The logger supports multiple log levels (DEBUG, INFO, WARN, ERROR, FATAL)
// and structured logging with key-value fields.
//
// Initialize the logger at application startup:
//
//	logging.Initialize("info")
//
// Get a named logger for your component:
//
//	logger := logging.GetLogger("pipeline")
//	logger.Info("discovery started for %d events", n)
//
// Use structured fields for better searchability:
//
//	logger.InfoWithFields("batch classified",
//	    logging.Field("source_id", sourceID),
//	    logging.Field("relationships", len(rels)),
//	)
//
// Logger instances are immutable. WithField and WithFields return new
// instances, so loggers are safe to share across goroutines.
package logging

import (
	"os"
	"strings"
	"sync"
)

// LogLevel represents the logging level
type LogLevel int

const (
	// DEBUG level for detailed debugging information
	DEBUG LogLevel = iota
	// INFO level for informational messages
	INFO
	// WARN level for warning messages
	WARN
	// ERROR level for error messages
	ERROR
	// FATAL level for fatal messages
	FATAL
)

// LogField represents a structured logging field
type LogField struct {
	Key   string
	Value interface{}
}

// Field creates a structured logging field
func Field(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// Logger provides structured logging throughout the application
type Logger struct {
	level  LogLevel
	name   string
	fields map[string]interface{}
}

var (
	globalLogger *Logger
	initOnce     sync.Once
	// exitFunc is called by Fatal to terminate the program.
	// Defaults to os.Exit, overridden in tests.
	exitFunc = os.Exit
)

// Initialize initializes the global logger with the specified default level.
// Unknown level strings fall back to INFO.
func Initialize(levelStr string) error {
	level, err := parseLevel(levelStr)
	if err != nil {
		level = INFO
	}
	globalLogger = &Logger{
		level: level,
		name:  "newsgraph",
	}
	return nil
}

// GetLogger returns a logger with the specified component name.
// Thread-safe: uses sync.Once to ensure single initialization.
func GetLogger(name string) *Logger {
	initOnce.Do(func() {
		if globalLogger == nil {
			_ = Initialize("info")
		}
	})
	return &Logger{
		level:  globalLogger.level,
		name:   name,
		fields: make(map[string]interface{}),
	}
}

// parseLevel converts a string level to a LogLevel
func parseLevel(levelStr string) (LogLevel, error) {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "FATAL":
		return FATAL, nil
	default:
		return -1, &InvalidLevelError{Level: levelStr}
	}
}

// InvalidLevelError reports an unrecognized log level string
type InvalidLevelError struct {
	Level string
}

func (e *InvalidLevelError) Error() string {
	return "invalid log level: " + e.Level + " (must be DEBUG, INFO, WARN, ERROR, or FATAL)"
}

func (l *Logger) shouldLog(level LogLevel) bool {
	return level >= l.level
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.shouldLog(DEBUG) {
		l.logf("DEBUG", msg, args...)
	}
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.shouldLog(INFO) {
		l.logf("INFO", msg, args...)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.shouldLog(WARN) {
		l.logf("WARN", msg, args...)
	}
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	if l.shouldLog(ERROR) {
		l.logf("ERROR", msg, args...)
	}
}

// Fatal logs a fatal message and exits the program with code 1
func (l *Logger) Fatal(msg string, args ...interface{}) {
	if l.shouldLog(FATAL) {
		l.logf("FATAL", msg, args...)
		exitFunc(1)
	}
}

// ErrorWithErr logs an error message with an error object
func (l *Logger) ErrorWithErr(msg string, err error, args ...interface{}) {
	if l.shouldLog(ERROR) {
		args = append(args, err)
		l.logf("ERROR", msg+" - %v", args...)
	}
}

// WithName returns a new logger with a custom name
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		level:  l.level,
		name:   name,
		fields: cloneFields(l.fields),
	}
}

// WithField adds a structured field to the logger
func (l *Logger) WithField(key string, value interface{}) *Logger {
	newLogger := &Logger{
		level:  l.level,
		name:   l.name,
		fields: cloneFields(l.fields),
	}
	newLogger.fields[key] = value
	return newLogger
}

// WithFields adds multiple structured fields to the logger
func (l *Logger) WithFields(fields ...LogField) *Logger {
	newLogger := &Logger{
		level:  l.level,
		name:   l.name,
		fields: cloneFields(l.fields),
	}
	for _, f := range fields {
		newLogger.fields[f.Key] = f.Value
	}
	return newLogger
}

// DebugWithFields logs a debug message with structured fields
func (l *Logger) DebugWithFields(msg string, fields ...LogField) {
	if l.shouldLog(DEBUG) {
		l.logWithFields("DEBUG", msg, fields...)
	}
}

// InfoWithFields logs an info message with structured fields
func (l *Logger) InfoWithFields(msg string, fields ...LogField) {
	if l.shouldLog(INFO) {
		l.logWithFields("INFO", msg, fields...)
	}
}

// WarnWithFields logs a warning message with structured fields
func (l *Logger) WarnWithFields(msg string, fields ...LogField) {
	if l.shouldLog(WARN) {
		l.logWithFields("WARN", msg, fields...)
	}
}

// ErrorWithFields logs an error message with structured fields
func (l *Logger) ErrorWithFields(msg string, fields ...LogField) {
	if l.shouldLog(ERROR) {
		l.logWithFields("ERROR", msg, fields...)
	}
}

// logWithFields merges the logger's persistent fields with the
// method-specific fields (method fields win) and writes the entry.
func (l *Logger) logWithFields(level, msg string, fields ...LogField) {
	var merged map[string]interface{}
	if len(l.fields) > 0 || len(fields) > 0 {
		merged = cloneFields(l.fields)
		for _, f := range fields {
			merged[f.Key] = f.Value
		}
	}
	l.writeLog(level, msg, merged)
}

// cloneFields creates a copy of the source fields map.
// Returns an empty map if src is nil or empty.
func cloneFields(src map[string]interface{}) map[string]interface{} {
	if len(src) == 0 {
		return make(map[string]interface{})
	}
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
