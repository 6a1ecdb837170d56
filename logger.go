package mmapio

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with mmapio-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithJob adds a job name field to the logger.
func (l *Logger) WithJob(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("job", name),
	}
}

// WithFile adds a file name field to the logger.
func (l *Logger) WithFile(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("file", name),
	}
}

// LogMap logs a new or reused mapping.
func (l *Logger) LogMap(ctx context.Context, offset, length int64, reused bool) {
	l.DebugContext(ctx, "mapped",
		"offset", offset,
		"length", length,
		"reused", reused,
	)
}

// LogUnmap logs the release of a mapping.
func (l *Logger) LogUnmap(ctx context.Context, offset, length int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "unmap failed",
			"offset", offset,
			"length", length,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "unmapped",
			"offset", offset,
			"length", length,
		)
	}
}

// LogRemap logs a window move.
func (l *Logger) LogRemap(ctx context.Context, from, to int64) {
	l.DebugContext(ctx, "window remapped",
		"from", from,
		"to", to,
	)
}

// LogRequestError logs a per-request failure that does not stop the job.
func (l *Logger) LogRequestError(ctx context.Context, op Op, offset int64, err error) {
	l.WarnContext(ctx, "request completed with error",
		"op", op.String(),
		"offset", offset,
		"error", err,
	)
}

// LogFatal logs an error that stops I/O on a file.
func (l *Logger) LogFatal(ctx context.Context, op string, err error) {
	l.ErrorContext(ctx, "file failed",
		"op", op,
		"error", err,
	)
}
