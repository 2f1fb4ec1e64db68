//go:build !tinygo

package hx71x

import (
	"log"
	"os"
)

// EnvLogLevel selects the minimum level of the default logger:
// debug, info, warn or error. Defaults to info.
const EnvLogLevel = "HX71X_LOG_LEVEL"

func init() {
	globalLogger = newStdLogger(os.Getenv(EnvLogLevel))
}

// stdLogger is the default host logger on top of the standard library log
// package.
type stdLogger struct {
	level logLevel
	out   *log.Logger
}

func newStdLogger(level string) *stdLogger {
	lvl, _ := parseLevel(level)
	return &stdLogger{level: lvl, out: log.New(os.Stderr, "hx71x ", log.LstdFlags)}
}

func (l *stdLogger) print(lvl logLevel, tag, msg string) {
	if lvl < l.level {
		return
	}
	l.out.Print(tag + msg)
}

func (l *stdLogger) Debug(msg string) { l.print(levelDebug, "[DEBUG] ", msg) }
func (l *stdLogger) Info(msg string)  { l.print(levelInfo, "[INFO]  ", msg) }
func (l *stdLogger) Warn(msg string)  { l.print(levelWarn, "[WARN]  ", msg) }
func (l *stdLogger) Error(msg string) { l.print(levelError, "[ERROR] ", msg) }
