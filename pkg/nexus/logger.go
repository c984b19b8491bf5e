package nexus

import (
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// newLeveledLogger returns a retryablehttp.LeveledLogger that forwards to
// the global zerolog logger
func newLeveledLogger() retryablehttp.LeveledLogger {
	return &leveledLogger{}
}

type leveledLogger struct{}

func (l *leveledLogger) Error(msg string, keysAndValues ...any) {
	l.emit(zerolog.ErrorLevel, msg, keysAndValues)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...any) {
	// retryablehttp logs every attempt at info; that is debug noise for a CLI
	l.emit(zerolog.DebugLevel, msg, keysAndValues)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.emit(zerolog.DebugLevel, msg, keysAndValues)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.emit(zerolog.WarnLevel, msg, keysAndValues)
}

func (l *leveledLogger) emit(level zerolog.Level, msg string, keysAndValues []any) {
	log.WithLevel(level).Fields(keysAndValues).Msg(msg)
}
