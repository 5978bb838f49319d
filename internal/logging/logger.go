package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger pairs a zerolog.Logger with this package's Level vocabulary, so
// the LOGLEVEL-driven tag/level directives can gate verbosity the same way
// they always have while the actual formatting and output go through
// zerolog.
type Logger struct {
	Level
	Tag string

	zl zerolog.Logger
}

// DefaultLogger writes to stderr through zerolog's console writer, which
// colorizes level and field output when stderr is a terminal.
var DefaultLogger = newLogger(defaultLevel, "")

func newLogger(level Level, tag string) *Logger {
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05.000"}).
		With().
		Timestamp().
		Logger()
	if tag != "" {
		zl = zl.With().Str("tag", tag).Logger()
	}
	zl = zl.Level(level.zerolog())

	return &Logger{Level: level, Tag: tag, zl: zl}
}

// SetDestination overrides the output destination for this logger.
func (log *Logger) SetDestination(out io.Writer) {
	zl := zerolog.New(out).With().Timestamp().Logger()
	if log.Tag != "" {
		zl = zl.With().Str("tag", log.Tag).Logger()
	}
	log.zl = zl.Level(log.Level.zerolog())
}

// WithTag derives a new logger tagged with tag, whose level is looked up
// from the LOGLEVEL directives (falling back to this logger's own level).
func (log *Logger) WithTag(tag string) *Logger {
	return newLogger(determineLevel(tag, log.Level), tag)
}

// WithDefaultLevel derives a new logger with the given default level,
// still overridable by a matching LOGLEVEL tag directive.
func (log *Logger) WithDefaultLevel(level Level) *Logger {
	return newLogger(determineLevel(log.Tag, level), log.Tag)
}

// Log emits a message at the given level. calldepth is accepted for
// backward compatibility with call sites that used to compute a stack
// frame for file:line reporting; it is ignored, and no file:line is
// reported.
func (log *Logger) Log(level Level, calldepth int, format string, a ...interface{}) {
	log.event(level).Msgf(format, a...)
}

func (log *Logger) event(level Level) *zerolog.Event {
	switch level.zerolog() {
	case zerolog.ErrorLevel:
		return log.zl.Error()
	case zerolog.WarnLevel:
		return log.zl.Warn()
	case zerolog.InfoLevel:
		return log.zl.Info()
	case zerolog.DebugLevel:
		return log.zl.Debug()
	default:
		return log.zl.Trace()
	}
}

func (log *Logger) Error(format string, a ...interface{}) {
	log.Log(Error, 1, format, a...)
}

func (log *Logger) Warn(format string, a ...interface{}) {
	log.Log(Warn, 1, format, a...)
}

func (log *Logger) Info(format string, a ...interface{}) {
	log.Log(Info, 1, format, a...)
}

func (log *Logger) Debug(format string, a ...interface{}) {
	log.Log(Debug, 1, format, a...)
}

// Trace logs at a numeric verbosity level n (n > Debug).
func (log *Logger) Trace(n int, format string, a ...interface{}) {
	log.Log(Level(n), 1, format, a...)
}
