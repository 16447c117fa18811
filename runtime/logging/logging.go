// Package logging provides the leveled log channel used by plan runs.
//
// Levels are ordered ERROR < WARN < INFO < DEBUG < VERBOSE; a logger emits
// every record at or below its threshold. Records are rendered with the
// log/slog text handler.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Level is a logging threshold.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelVerbose
)

// slogVerbose sits one step below slog.LevelDebug.
const slogVerbose = slog.LevelDebug - 4

var levelNames = []string{"ERROR", "WARN", "INFO", "DEBUG", "VERBOSE"}

func (l Level) String() string {
	if l < LevelError || l > LevelVerbose {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel parses a level name, case-insensitively.
func ParseLevel(name string) (Level, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range levelNames {
		if n == upper {
			return Level(i), nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q (expected one of %s)", name, strings.Join(levelNames, ", "))
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelError:
		return slog.LevelError
	case LevelWarn:
		return slog.LevelWarn
	case LevelInfo:
		return slog.LevelInfo
	case LevelDebug:
		return slog.LevelDebug
	default:
		return slogVerbose
	}
}

// Logger is a leveled logger. It is safe for concurrent use.
type Logger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

// New creates a logger writing to w at the given threshold.
func New(w io.Writer, level Level) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(level.slogLevel())

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lv,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Remove timestamp for cleaner output
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= slogVerbose {
					return slog.String(slog.LevelKey, "VERBOSE")
				}
			}
			return a
		},
	})

	return &Logger{logger: slog.New(handler), level: lv}
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return New(io.Discard, LevelError)
}

// Level returns the current threshold.
func (l *Logger) Level() Level {
	switch lvl := l.level.Level(); {
	case lvl >= slog.LevelError:
		return LevelError
	case lvl >= slog.LevelWarn:
		return LevelWarn
	case lvl >= slog.LevelInfo:
		return LevelInfo
	case lvl >= slog.LevelDebug:
		return LevelDebug
	default:
		return LevelVerbose
	}
}

// SetLevel changes the threshold and announces the change at INFO.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level.slogLevel())
	l.Info("Log level set to " + level.String())
}

// Enabled reports whether records at level would be emitted.
func (l *Logger) Enabled(level Level) bool {
	return l.logger.Enabled(context.Background(), level.slogLevel())
}

// With returns a logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...), level: l.level}
}

// Slog exposes the underlying slog logger.
func (l *Logger) Slog() *slog.Logger { return l.logger }

func (l *Logger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *Logger) Warn(msg string, args ...any) { l.logger.Warn(msg, args...) }

func (l *Logger) Info(msg string, args ...any) { l.logger.Info(msg, args...) }

func (l *Logger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// Verbose logs below DEBUG, for per-iteration tracing.
func (l *Logger) Verbose(msg string, args ...any) {
	l.logger.Log(context.Background(), slogVerbose, msg, args...)
}
