package logger

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// newTextHandler renders console lines without a timestamp. Time attributes are
// shown in tz.
func newTextHandler(w io.Writer, level slog.Level, tz *time.Location) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch {
			case a.Key == slog.TimeKey:
				return slog.Attr{}
			case a.Key == slog.LevelKey:
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					return slog.String(slog.LevelKey, levelName(lvl))
				}
			case a.Value.Kind() == slog.KindTime:
				return slog.String(a.Key, a.Value.Time().In(tz).Format(time.RFC3339))
			}
			return a
		},
	})
}

// levelName pads level names to five characters so messages line up
func levelName(level slog.Level) string {
	name := level.String()
	if level <= levelTrace {
		name = "TRACE"
	}
	return strings.ToUpper(name) + strings.Repeat(" ", max(0, 5-len(name)))
}

// NewSlogLogger returns a Logger that writes JSON lines to w, nil meaning
// io.Discard. It has no module name until Module is called.
func NewSlogLogger(w io.Writer, level LogLevel, tz *time.Location) Logger {
	if w == nil {
		w = io.Discard
	}
	if tz == nil {
		tz = time.UTC
	}
	lvl := parseLogLevel(string(level))
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindTime {
				return slog.Time(a.Key, a.Value.Time().In(tz))
			}
			return a
		},
	})
	return &moduleLogger{out: slog.New(h), level: lvl}
}
