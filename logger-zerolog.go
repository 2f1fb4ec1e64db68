//go:build !tinygo

package hx71x

import "github.com/rs/zerolog"

// zerologLogger forwards driver messages to a zerolog.Logger.
type zerologLogger struct {
	l zerolog.Logger
}

// NewZerologLogger returns a Logger writing to l, tagged with the driver name.
// Pass it to SetLogger.
func NewZerologLogger(l zerolog.Logger) Logger {
	return &zerologLogger{l: l.With().Str("driver", "hx71x").Logger()}
}

func (z *zerologLogger) Debug(msg string) { z.l.Debug().Msg(msg) }
func (z *zerologLogger) Info(msg string)  { z.l.Info().Msg(msg) }
func (z *zerologLogger) Warn(msg string)  { z.l.Warn().Msg(msg) }
func (z *zerologLogger) Error(msg string) { z.l.Error().Msg(msg) }
