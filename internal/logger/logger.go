// Package logger is the structured logging layer of handsoff, a thin module-aware
// wrapper around log/slog.
//
// Packages keep a module logger and attach typed fields:
//
//	log := logger.Global().Module("detector")
//	log.Info("touch detected", logger.Float64("confidence", res.Confidence))
//
// The global CentralLogger writes text to the console and, when enabled, JSON
// lines to a log file. Levels can be raised or lowered per module:
//
//	logging:
//	  default_level: info
//	  module_levels:
//	    classifier: debug
//
// Tests build a standalone logger that writes JSON to any writer:
//
//	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
package logger

import "time"

// LogLevel names a severity in configuration files
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Logger is implemented by module loggers and passed to components as an option.
// Implementations are safe for concurrent use.
type Logger interface {
	Module(name string) Logger
	With(fields ...Field) Logger

	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	Flush() error
}

// Field is one key/value pair of a log record
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field { return Field{key, value} }
func Int(key string, value int) Field { return Field{key, value} }
func Int64(key string, value int64) Field { return Field{key, value} }
func Uint64(key string, value uint64) Field { return Field{key, value} }
func Float32(key string, value float32) Field { return Field{key, value} }
func Float64(key string, value float64) Field { return Field{key, value} }
func Bool(key string, value bool) Field { return Field{key, value} }
func Time(key string, value time.Time) Field { return Field{key, value} }
func Any(key string, value any) Field { return Field{key, value} }

// Duration is rendered as text ("200ms") in both console and file output
func Duration(key string, value time.Duration) Field {
	return Field{key, value}
}

// Error always uses the key "error". A nil err is logged as null.
func Error(err error) Field {
	if err == nil {
		return Field{"error", nil}
	}
	return Field{"error", err.Error()}
}
