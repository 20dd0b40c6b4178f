package logger

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Monitor times one run of a function and tags every line it logs with a
// correlation id, so the lines of one run can be grouped downstream.
//
// Create it at the top of the function, report progress with Debug, Info or
// Warn and finish with Error or Done, which log the elapsed time. Nothing
// stops a caller from finishing twice or logging after finishing; such calls
// just produce more lines.
type Monitor struct {
	moduleName    string
	functionName  string
	start         time.Time
	correlationID string

	log *Logger
}

// Monitor starts a monitoring session and logs its START line.
func (l *Logger) Monitor(moduleName, functionName string) *Monitor {
	m := &Monitor{
		moduleName:    moduleName,
		functionName:  functionName,
		start:         l.now(),
		correlationID: newCorrelationID(),
		log:           l,
	}
	m.log.write(slog.LevelInfo, m.prefix()+"START "+functionName)
	return m
}

func newCorrelationID() string {
	id, err := uuid.NewUUID()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ModuleName is the module label shown on every line of the session.
func (m *Monitor) ModuleName() string { return m.moduleName }

// FunctionName is the function label shown on every line of the session.
func (m *Monitor) FunctionName() string { return m.functionName }

// Start is when the session was created.
func (m *Monitor) Start() time.Time { return m.start }

// CorrelationID is the id shared by all lines of the session.
func (m *Monitor) CorrelationID() string { return m.correlationID }

// Debug logs a progress message at debug level.
func (m *Monitor) Debug(format string, args ...any) {
	m.progress(slog.LevelDebug, format, args)
}

// Info logs a progress message at info level.
func (m *Monitor) Info(format string, args ...any) {
	m.progress(slog.LevelInfo, format, args)
}

// Warn logs a progress message at warn level.
func (m *Monitor) Warn(format string, args ...any) {
	m.progress(slog.LevelWarn, format, args)
}

// Error logs the failure of the monitored function together with its
// duration. The message is written as a JSON string.
func (m *Monitor) Error(format string, args ...any) {
	msg, err := toJSON(Format(format, args...))
	if err != nil {
		msg = unserializable
	}
	m.log.write(slog.LevelError, m.prefix()+"ERROR END "+m.functionName+m.took()+msg)
}

// Done logs the completion of the monitored function together with its duration.
func (m *Monitor) Done(format string, args ...any) {
	msg := SafeString(Format(format, args...))
	m.log.write(slog.LevelInfo, m.prefix()+"END "+m.functionName+m.took()+msg)
}

// Elapsed reports the time since the session started.
func (m *Monitor) Elapsed() time.Duration {
	d := m.log.now().Sub(m.start)
	if d < 0 {
		return 0
	}
	return d
}

func (m *Monitor) progress(level slog.Level, format string, args []any) {
	if !m.log.sl.Enabled(context.Background(), level) {
		return
	}
	m.log.write(level, m.prefix()+m.functionName+" : "+Format(format, args...))
}

func (m *Monitor) prefix() string {
	return "[" + m.moduleName + "] (-" + m.correlationID + "-) "
}

func (m *Monitor) took() string {
	return " took " + strconv.FormatInt(m.Elapsed().Milliseconds(), 10) + " ms : "
}
