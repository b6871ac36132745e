package logging

import (
	"fmt"
	"log"
	"os"
	"sort"
	"time"
)

// writeLog formats the message with optional fields and routes it:
// DEBUG/INFO/WARN to stdout, ERROR/FATAL to stderr.
func (l *Logger) writeLog(level, msg string, fields map[string]interface{}) {
	logMsg := fmt.Sprintf("[%s] [%s] %s: %s", GetTimestamp(), level, l.name, msg)

	if len(fields) > 0 {
		// Sorted keys keep field order stable for tests and grep
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		logMsg += " |"
		for _, k := range keys {
			logMsg += fmt.Sprintf(" %s=%v", k, fields[k])
		}
	}

	if level == "ERROR" || level == "FATAL" {
		fmt.Fprintf(os.Stderr, "%s\n", logMsg)
	} else {
		log.Println(logMsg)
	}
}

// logf is the internal logging function for formatted messages
func (l *Logger) logf(level, msg string, args ...interface{}) {
	formattedMsg := fmt.Sprintf(msg, args...)

	var merged map[string]interface{}
	if len(l.fields) > 0 {
		merged = cloneFields(l.fields)
	}
	l.writeLog(level, formattedMsg, merged)
}

// GetTimestamp returns an RFC3339 timestamp for log entries.
// Can be overridden via the LOG_TIMESTAMP env var for deterministic tests.
func GetTimestamp() string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().Format(time.RFC3339)
}
