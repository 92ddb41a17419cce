// logger.go provides file-based logging for analyst traffic.
//
// Logs are written to ~/.snowchat/logs/analyst.log with timestamps.
// Every send is logged with its prompt; every reply with its request id,
// block count, and any error. Useful when chasing a bad reply with
// Snowflake support, since the request id is the correlation handle.
package analyst

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	logOnce sync.Once
	logFile *os.File
)

// initLog opens (or creates) the log file. Called once lazily.
func initLog() {
	logOnce.Do(func() {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return
		}
		logDir := filepath.Join(homeDir, ".snowchat", "logs")
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return
		}
		logPath := filepath.Join(logDir, "analyst.log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return
		}
		logFile = f
	})
}

func logWrite(s string) {
	initLog()
	if logFile != nil {
		logFile.WriteString(s) //nolint:errcheck
	}
}

func logRequest(prompt string) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	logWrite(fmt.Sprintf(
		"[%s] REQUEST\n"+
			"────────────────────────────────────────\n"+
			"%s\n",
		ts, prompt,
	))
}

func logResponse(reply Reply, err error) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	errStr := "(none)"
	if err != nil {
		errStr = err.Error()
	}
	logWrite(fmt.Sprintf(
		"[%s] RESPONSE  request_id=%s  blocks=%d\n"+
			"Error: %s\n"+
			"════════════════════════════════════════\n",
		ts, reply.RequestID, len(reply.Content), errStr,
	))
}
