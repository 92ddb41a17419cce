// Package applog is the session-lifecycle log for snowchat.
//
// Lines go to ~/.snowchat/logs/app.log. Events carry one of the Category
// values so a session's connect / analyst / query activity can be grepped
// apart after the fact. Logging is best-effort: if the log file cannot be
// opened the app runs silently rather than failing.
package applog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Category tags an Event line with the subsystem that produced it.
type Category string

const (
	CategoryConnect Category = "CONNECT" // REST login, token renewal, SQL ping
	CategoryAnalyst Category = "ANALYST" // message dispatch and replies
	CategoryQuery   Category = "QUERY"   // SQL executed for reply blocks
)

var logFile *os.File

func init() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return
	}
	logDir := filepath.Join(homeDir, ".snowchat", "logs")
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return
	}
	f, err := os.OpenFile(filepath.Join(logDir, "app.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return
	}
	logFile = f
}

func emit(level string, format string, args ...interface{}) {
	if logFile == nil {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(logFile, "[%s] %-7s %s\n", ts, level, fmt.Sprintf(format, args...)) //nolint:errcheck
}

// Info logs a general lifecycle message (startup, shutdown).
func Info(format string, args ...interface{}) {
	emit("INFO", format, args...)
}

// Error logs a failure.
func Error(format string, args ...interface{}) {
	emit("ERROR", format, args...)
}

// Event logs a categorized session event.
func Event(cat Category, format string, args ...interface{}) {
	emit(string(cat), format, args...)
}

// Close closes the log file.
func Close() {
	if logFile != nil {
		logFile.Close()
	}
}
