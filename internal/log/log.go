// Package log is the structured logger used across tmplc. It wraps
// log/slog with leveled helpers that take typed attributes, and a zero
// value that discards everything.
package log

import (
	"context"
	"io"
	"log/slog"
)

// Logger provides a concurrency-safe leveled logging interface. The zero
// value discards all records.
type Logger struct {
	*slog.Logger
	config
}

// Make creates a Logger writing to w with DefaultLevel, DefaultFormat and
// DefaultTimeLayout, overridden by opts.
func Make(w io.Writer, opts ...Option) Logger {
	cfg := apply(config{
		output:     w,
		level:      DefaultLevel,
		format:     DefaultFormat,
		timeLayout: DefaultTimeLayout,
	}, opts...)
	return Logger{Logger: slog.New(cfg.handler()), config: cfg}
}

// Nop returns a Logger that discards all records.
func Nop() Logger {
	return Logger{}
}

// Wrap returns a copy of l with opts applied on top of its configuration.
func (l Logger) Wrap(opts ...Option) Logger {
	cfg := apply(l.config, opts...)
	return Logger{Logger: slog.New(cfg.handler()), config: cfg}
}

// With returns a Logger that adds attrs to every record.
func (l Logger) With(attrs ...slog.Attr) Logger {
	if l.Logger == nil {
		return l
	}
	return Logger{Logger: slog.New(l.Logger.Handler().WithAttrs(attrs)), config: l.config}
}

// Level returns the minimum level of logged records.
func (l Logger) Level() Level {
	if l.Logger == nil {
		return DefaultLevel
	}
	return l.level
}

// Debug logs msg at debug level.
func (l Logger) Debug(msg string, attrs ...slog.Attr) {
	l.log(LevelDebug, msg, attrs)
}

// Info logs msg at info level.
func (l Logger) Info(msg string, attrs ...slog.Attr) {
	l.log(LevelInfo, msg, attrs)
}

// Warn logs msg at warn level.
func (l Logger) Warn(msg string, attrs ...slog.Attr) {
	l.log(LevelWarn, msg, attrs)
}

// Error logs msg at error level.
func (l Logger) Error(msg string, attrs ...slog.Attr) {
	l.log(LevelError, msg, attrs)
}

func (l Logger) log(level Level, msg string, attrs []slog.Attr) {
	if l.Logger == nil {
		return
	}
	l.LogAttrs(context.Background(), slog.Level(level), msg, attrs...)
}
