//go:build tinygo

package hx71x

import (
	"io"
	"machine"
)

func init() {
	globalLogger = &serialLogger{w: machine.Serial, level: levelInfo}
}

// serialLogger writes to machine.Serial directly to avoid the memory overhead
// of the fmt package.
type serialLogger struct {
	w     io.Writer
	level logLevel
}

// NewSerialLogger returns a Logger writing to w, typically machine.Serial,
// that drops messages below level (debug, info, warn or error).
func NewSerialLogger(w io.Writer, level string) Logger {
	lvl, _ := parseLevel(level)
	return &serialLogger{w: w, level: lvl}
}

func (l *serialLogger) log(lvl logLevel, tag, msg string) {
	if lvl < l.level {
		return
	}
	l.w.Write([]byte(tag))
	l.w.Write([]byte("hx71x: "))
	l.w.Write([]byte(msg))
	l.w.Write([]byte("\r\n"))
}

func (l *serialLogger) Debug(msg string) { l.log(levelDebug, "[DEBUG] ", msg) }
func (l *serialLogger) Info(msg string)  { l.log(levelInfo, "[INFO]  ", msg) }
func (l *serialLogger) Warn(msg string)  { l.log(levelWarn, "[WARN]  ", msg) }
func (l *serialLogger) Error(msg string) { l.log(levelError, "[ERROR] ", msg) }
