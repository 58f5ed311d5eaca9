package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZeroLogger wraps zerolog.Logger to implement the Logger interface.
// Field values for credential-bearing keys are redacted before emission.
type ZeroLogger struct {
	zlog     *zerolog.Logger
	redactor *Redactor
}

// Ensure ZeroLogger implements the interface
var _ Logger = (*ZeroLogger)(nil)

// New creates a new ZeroLogger instance with the specified log level and
// formatting options. If pretty is true, output is formatted for human
// readability.
func New(level string, pretty bool) *ZeroLogger {
	var l zerolog.Logger

	if pretty {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	} else {
		l = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	l = l.Level(zLevel)

	return &ZeroLogger{zlog: &l, redactor: NewRedactor(nil)}
}

// NewWithRedactor creates a ZeroLogger with a custom redactor configuration.
// Pass extra sensitive key names when the defaults are not enough.
func NewWithRedactor(level string, pretty bool, redactor *Redactor) *ZeroLogger {
	zl := New(level, pretty)
	if redactor != nil {
		zl.redactor = redactor
	}
	return zl
}

// WithFields returns a logger with additional fields attached to all log
// entries. Sensitive values are redacted before being attached.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	if l.redactor != nil {
		fields = l.redactor.RedactFields(fields)
	}
	log := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: &log, redactor: l.redactor}
}

// Info creates an info-level log event.
func (l *ZeroLogger) Info() LogEvent {
	return &zeroLogEvent{event: l.zlog.Info(), redactor: l.redactor}
}

// Error creates an error-level log event.
func (l *ZeroLogger) Error() LogEvent {
	return &zeroLogEvent{event: l.zlog.Error(), redactor: l.redactor}
}

// Debug creates a debug-level log event.
func (l *ZeroLogger) Debug() LogEvent {
	return &zeroLogEvent{event: l.zlog.Debug(), redactor: l.redactor}
}

// Warn creates a warn-level log event.
func (l *ZeroLogger) Warn() LogEvent {
	return &zeroLogEvent{event: l.zlog.Warn(), redactor: l.redactor}
}

// zeroLogEvent wraps zerolog.Event to implement the LogEvent interface.
type zeroLogEvent struct {
	event    *zerolog.Event
	redactor *Redactor
}

func (e *zeroLogEvent) Msg(msg string) {
	e.event.Msg(msg)
}

func (e *zeroLogEvent) Msgf(format string, args ...any) {
	e.event.Msgf(format, args...)
}

func (e *zeroLogEvent) Err(err error) LogEvent {
	e.event = e.event.Err(err)
	return e
}

func (e *zeroLogEvent) Str(key, value string) LogEvent {
	if e.redactor != nil {
		value = e.redactor.RedactString(key, value)
	}
	e.event = e.event.Str(key, value)
	return e
}

func (e *zeroLogEvent) Int(key string, value int) LogEvent {
	e.event = e.event.Int(key, value)
	return e
}

func (e *zeroLogEvent) Int64(key string, value int64) LogEvent {
	e.event = e.event.Int64(key, value)
	return e
}

func (e *zeroLogEvent) Dur(key string, d time.Duration) LogEvent {
	e.event = e.event.Dur(key, d)
	return e
}

func (e *zeroLogEvent) Interface(key string, i any) LogEvent {
	if e.redactor != nil {
		i = e.redactor.RedactValue(key, i)
	}
	e.event = e.event.Interface(key, i)
	return e
}

func (e *zeroLogEvent) Bytes(key string, val []byte) LogEvent {
	e.event = e.event.Bytes(key, val)
	return e
}
