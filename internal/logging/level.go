package logging

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Level is this package's own leveled-logging vocabulary, kept for
// compatibility with the LOGLEVEL directive syntax; it maps onto a
// zerolog.Level under the hood.
type Level int

const (
	Error Level = iota - 2
	Warn
	Info
	Debug

	// MaxLevel is the most verbose numeric level accepted by parseLevel.
	// Anything above Debug maps to zerolog's trace level.
	MaxLevel Level = 9
)

func (l Level) zerolog() zerolog.Level {
	switch {
	case l <= Error:
		return zerolog.ErrorLevel
	case l == Warn:
		return zerolog.WarnLevel
	case l == Info:
		return zerolog.InfoLevel
	case l == Debug:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// ParseLevel parses a level name ("error", "w", "trace", ...) or a numeric
// level, for callers outside this package (e.g. a --log-level flag).
func ParseLevel(s string) (Level, error) {
	return parseLevel(s)
}

func parseLevel(s string) (level Level, err error) {
	switch strings.ToUpper(s) {
	case "E", "ERROR":
		return Error, nil
	case "W", "WARN":
		return Warn, nil
	case "I", "INFO":
		return Info, nil
	case "D", "DEBUG":
		return Debug, nil
	case "T", "TRACE":
		return MaxLevel, nil
	}

	n, ierr := strconv.Atoi(s)
	if ierr != nil {
		return 0, errors.New("invalid logging level: " + s)
	}
	level = Level(n)
	if level < Error || level > MaxLevel {
		return 0, errors.New("numeric level out of range: " + s)
	}
	return level, nil
}

var levelToName = map[Level]string{
	Error: "Error",
	Warn:  "Warn",
	Info:  "Info",
	Debug: "Debug",
}

func (l Level) String() string {
	if name, ok := levelToName[l]; ok {
		return name
	}
	return fmt.Sprintf("Trace(%d)", l)
}
