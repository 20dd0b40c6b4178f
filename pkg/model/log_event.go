package model

import (
	"log/slog"
	"strings"
	"time"
)

// LogLevel defines the severity of a log event.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// TimestampFormat is the layout of the timestamp prefix of a rendered event.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// ParseLogLevel maps a level name (case-insensitive) to a LogLevel.
func ParseLogLevel(s string) (LogLevel, bool) {
	switch LogLevel(strings.ToLower(strings.TrimSpace(s))) {
	case LogLevelDebug:
		return LogLevelDebug, true
	case LogLevelInfo:
		return LogLevelInfo, true
	case LogLevelWarn, "warning":
		return LogLevelWarn, true
	case LogLevelError:
		return LogLevelError, true
	}
	return "", false
}

// SlogLevel returns the slog severity for the level. Unknown levels map to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromSlog is the inverse of SlogLevel. Levels between the named ones
// round down.
func LevelFromSlog(l slog.Level) LogLevel {
	switch {
	case l >= slog.LevelError:
		return LogLevelError
	case l >= slog.LevelWarn:
		return LogLevelWarn
	case l >= slog.LevelInfo:
		return LogLevelInfo
	default:
		return LogLevelDebug
	}
}

// LogEvent is a single line written to the log sink.
type LogEvent struct {
	Time    time.Time `json:"timestamp"`
	Level   LogLevel  `json:"level"`
	Message string    `json:"message"`
}

// String renders the event as "<timestamp> [<level>] <message>".
func (e LogEvent) String() string {
	var b strings.Builder
	b.Grow(len(TimestampFormat) + len(e.Level) + len(e.Message) + 4)
	b.WriteString(e.Time.UTC().Format(TimestampFormat))
	b.WriteString(" [")
	b.WriteString(string(e.Level))
	b.WriteString("] ")
	b.WriteString(e.Message)
	return b.String()
}
