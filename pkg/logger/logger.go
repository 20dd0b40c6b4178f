package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/robtot/skeleton-go/pkg/model"
)

var errUnencodable = errors.New("value cannot be encoded")

// Logger writes printf-style messages through a slog.Logger. It is built
// once at startup and passed to whatever needs to log.
type Logger struct {
	sl  *slog.Logger
	now func() time.Time
}

// New creates a Logger writing one line per event to w, dropping events
// below level.
func New(w io.Writer, level model.LogLevel) *Logger {
	return FromSlog(slog.New(NewLineHandler(w, level.SlogLevel())))
}

// FromSlog wraps an existing slog.Logger, for callers that bring their own handler.
func FromSlog(sl *slog.Logger) *Logger {
	return &Logger{sl: sl, now: time.Now}
}

// Slog returns the underlying structured logger.
func (l *Logger) Slog() *slog.Logger {
	return l.sl
}

func (l *Logger) Debug(format string, args ...any) {
	l.log(slog.LevelDebug, format, args)
}

func (l *Logger) Info(format string, args ...any) {
	l.log(slog.LevelInfo, format, args)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log(slog.LevelWarn, format, args)
}

func (l *Logger) Error(format string, args ...any) {
	l.log(slog.LevelError, format, args)
}

// Response logs LogResponse(req, status, response) at info level.
func (l *Logger) Response(req model.Request, status int, response any) {
	l.write(slog.LevelInfo, LogResponse(req, status, response))
}

func (l *Logger) log(level slog.Level, format string, args []any) {
	ctx := context.Background()
	if !l.sl.Enabled(ctx, level) {
		return
	}
	l.write(level, Format(format, args...))
}

// write emits msg verbatim; it is never run through Format again.
func (l *Logger) write(level slog.Level, msg string) {
	ctx := context.Background()
	if !l.sl.Enabled(ctx, level) {
		return
	}
	r := slog.NewRecord(l.now(), level, msg, 0)
	// The sink is best effort; a failing writer must not reach the caller.
	_ = l.sl.Handler().Handle(ctx, r)
}
