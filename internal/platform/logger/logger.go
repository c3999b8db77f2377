// Package logger provides structured logging for the game server.
// Every dispatched action and system tick should be traceable through this.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Logger provides structured logging with context.
// Info and warnings go to one stream, errors to another.
type Logger struct {
	out *slog.Logger
	err *slog.Logger
}

// NewLogger creates a logger writing info/warn to stdout and errors to stderr.
func NewLogger() *Logger {
	return New(os.Stdout, os.Stderr, slog.LevelInfo)
}

// New creates a logger over arbitrary writers. Useful for tests and for
// redirecting output in tools.
func New(out, errOut io.Writer, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{Level: level}
	return &Logger{
		out: slog.New(slog.NewTextHandler(out, opts)).With("app", "brainclicker"),
		err: slog.New(slog.NewTextHandler(errOut, opts)).With("app", "brainclicker"),
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(io.Discard, io.Discard, slog.LevelError+1)
}

// With returns a logger that adds the given attributes to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{out: l.out.With(args...), err: l.err.With(args...)}
}

// Info logs informational messages.
func (l *Logger) Info(msg string, args ...any) {
	l.out.Info(msg, args...)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string, args ...any) {
	l.out.Warn(msg, args...)
}

// Error logs error messages.
func (l *Logger) Error(msg string, args ...any) {
	l.err.Error(msg, args...)
}

func (l *Logger) Infof(format string, v ...any) {
	l.out.Info(fmt.Sprintf(format, v...))
}

func (l *Logger) Warnf(format string, v ...any) {
	l.out.Warn(fmt.Sprintf(format, v...))
}

func (l *Logger) Errorf(format string, v ...any) {
	l.err.Error(fmt.Sprintf(format, v...))
}

// Event logs a game event: what happened, which system caused it, and details.
func (l *Logger) Event(eventType string, source string, details string) {
	l.out.Info("event", "type", eventType, "source", source, "details", details)
}
