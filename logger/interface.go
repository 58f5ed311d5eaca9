// Package logger defines the logging contract used throughout go-mortar.
// It provides a thin abstraction over a structured logging backend so the
// client pipeline never depends on a concrete logging library.
package logger

import "time"

// Logger defines the contract for structured logging throughout the library.
type Logger interface {
	Info() LogEvent
	Error() LogEvent
	Debug() LogEvent
	Warn() LogEvent
	WithFields(fields map[string]any) Logger
}

// LogEvent represents a structured log event that can be built with fields
// and sent.
type LogEvent interface {
	Msg(msg string)
	Msgf(format string, args ...any)
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Int(key string, value int) LogEvent
	Int64(key string, value int64) LogEvent
	Dur(key string, d time.Duration) LogEvent
	Interface(key string, i any) LogEvent
	Bytes(key string, val []byte) LogEvent
}
