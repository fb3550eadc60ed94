package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"
	"sync/atomic"
	"time"

	// LoadLocation must work on hosts without a zoneinfo database
	_ "time/tzdata"
)

// levelTrace sits below slog.LevelDebug
const levelTrace = slog.Level(-8)

var global atomic.Pointer[CentralLogger]

// SetGlobal installs cl as the logger returned by Global
func SetGlobal(cl *CentralLogger) {
	global.Store(cl)
}

// Global returns the installed CentralLogger. Until SetGlobal is called it is an
// info-level console logger.
func Global() *CentralLogger {
	if cl := global.Load(); cl != nil {
		return cl
	}
	fallback := &CentralLogger{
		handler:      newTextHandler(os.Stdout, slog.LevelInfo, time.Local),
		defaultLevel: slog.LevelInfo,
	}
	if global.CompareAndSwap(nil, fallback) {
		return fallback
	}
	return global.Load()
}

// CentralLogger owns the outputs shared by every module logger
type CentralLogger struct {
	handler      slog.Handler
	file         *fileSink
	defaultLevel slog.Level
	moduleLevels map[string]slog.Level
}

// NewCentralLogger opens the configured outputs. Console output is text without
// timestamps; file output is JSON.
func NewCentralLogger(cfg *LoggingConfig) (*CentralLogger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("logging config cannot be nil")
	}
	c := withDefaults(*cfg)

	tz := time.Local
	if c.Timezone != "" && c.Timezone != "Local" {
		var err error
		if tz, err = time.LoadLocation(c.Timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone %s: %w", c.Timezone, err)
		}
	}

	cl := &CentralLogger{
		defaultLevel: parseLogLevel(c.DefaultLevel),
		moduleLevels: make(map[string]slog.Level, len(c.ModuleLevels)),
	}
	for module, level := range c.ModuleLevels {
		cl.moduleLevels[module] = parseLogLevel(level)
	}

	var handlers fanout
	if c.Console.Enabled {
		handlers = append(handlers, newTextHandler(os.Stdout, cl.outputLevel(c.Console.Level), tz))
	}
	if c.FileOutput.Enabled {
		sink, err := openFileSink(c.FileOutput.Path)
		if err != nil {
			return nil, err
		}
		cl.file = sink
		handlers = append(handlers, slog.NewJSONHandler(sink, &slog.HandlerOptions{
			Level: cl.outputLevel(c.FileOutput.Level),
		}))
	}

	switch len(handlers) {
	case 0:
		cl.handler = newTextHandler(os.Stdout, cl.defaultLevel, tz)
	case 1:
		cl.handler = handlers[0]
	default:
		cl.handler = handlers
	}
	return cl, nil
}

// outputLevel is the level of an output, the default level when unset. Outputs
// admit everything a module logger lets through, down to trace.
func (cl *CentralLogger) outputLevel(level string) slog.Level {
	if level == "" {
		return min(cl.defaultLevel, cl.lowestModuleLevel())
	}
	return min(parseLogLevel(level), cl.lowestModuleLevel())
}

func (cl *CentralLogger) lowestModuleLevel() slog.Level {
	lowest := slog.Level(math.MaxInt)
	for _, l := range cl.moduleLevels {
		lowest = min(lowest, l)
	}
	return lowest
}

// Module returns the logger of a package. Records carry a "module" attribute.
func (cl *CentralLogger) Module(name string) Logger {
	level, ok := cl.moduleLevels[name]
	if !ok {
		level = cl.defaultLevel
	}
	return &moduleLogger{
		module: name,
		out:    slog.New(cl.handler),
		level:  level,
	}
}

// Flush writes buffered file output to the OS
func (cl *CentralLogger) Flush() error {
	if cl.file == nil {
		return nil
	}
	return cl.file.Flush()
}

// Close flushes and closes the log file
func (cl *CentralLogger) Close() error {
	if cl.file == nil {
		return nil
	}
	return cl.file.Close()
}

func parseLogLevel(level string) slog.Level {
	switch LogLevel(level) {
	case LogLevelTrace:
		return levelTrace
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

// moduleLogger filters by its own level before handing records to the shared outputs
type moduleLogger struct {
	module string
	out    *slog.Logger
	level  slog.Level
	fields []slog.Attr
}

// Module nests a sub-module under this one ("training.phase")
func (m *moduleLogger) Module(name string) Logger {
	module := name
	if m.module != "" {
		module = m.module + "." + name
	}
	return &moduleLogger{module: module, out: m.out, level: m.level, fields: m.fields}
}

// With returns a logger that adds fields to every record. The receiver is unchanged.
func (m *moduleLogger) With(fields ...Field) Logger {
	attrs := slices.Clip(m.fields)
	for _, f := range fields {
		attrs = append(attrs, toAttr(f))
	}
	return &moduleLogger{module: m.module, out: m.out, level: m.level, fields: attrs}
}

func (m *moduleLogger) Trace(msg string, fields ...Field) { m.emit(levelTrace, msg, fields) }
func (m *moduleLogger) Debug(msg string, fields ...Field) { m.emit(slog.LevelDebug, msg, fields) }
func (m *moduleLogger) Info(msg string, fields ...Field) { m.emit(slog.LevelInfo, msg, fields) }
func (m *moduleLogger) Warn(msg string, fields ...Field) { m.emit(slog.LevelWarn, msg, fields) }
func (m *moduleLogger) Error(msg string, fields ...Field) { m.emit(slog.LevelError, msg, fields) }

// Flush is a no-op; outputs are flushed through the CentralLogger
func (m *moduleLogger) Flush() error { return nil }

func (m *moduleLogger) emit(level slog.Level, msg string, fields []Field) {
	if level < m.level {
		return
	}
	attrs := make([]slog.Attr, 0, 1+len(m.fields)+len(fields))
	if m.module != "" {
		attrs = append(attrs, slog.String("module", m.module))
	}
	attrs = append(attrs, m.fields...)
	for _, f := range fields {
		attrs = append(attrs, toAttr(f))
	}
	m.out.LogAttrs(context.Background(), level, msg, attrs...)
}

// toAttr converts a field. Floats are rounded to three decimals and durations
// are written as text.
func toAttr(f Field) slog.Attr {
	switch v := f.Value.(type) {
	case float32:
		return slog.Float64(f.Key, round3(float64(v)))
	case float64:
		return slog.Float64(f.Key, round3(v))
	case time.Duration:
		return slog.String(f.Key, v.String())
	default:
		return slog.Any(f.Key, v)
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// fanout sends every record to each handler that accepts its level
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(f, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

//nolint:gocritic // slog.Handler passes records by value
func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
