package clustergo

import (
	"context"
	"log/slog"
	"math"
	"os"
)

// Logger wraps slog.Logger with clustering-specific context.
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
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithNumClusters adds a cluster count field to the logger.
func (l *Logger) WithNumClusters(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("num_clusters", k),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// LogFit logs a training round.
func (l *Logger) LogFit(ctx context.Context, points, steps int, objective float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "fit failed",
			"points", points,
			"steps", steps,
			"error", err,
		)
		return
	}
	if math.IsNaN(objective) {
		// Mini-batch rounds never measure the full objective.
		l.InfoContext(ctx, "fit completed",
			"points", points,
			"steps", steps,
		)
		return
	}
	l.InfoContext(ctx, "fit completed",
		"points", points,
		"steps", steps,
		"objective", objective,
	)
}

// LogPredict logs a cluster assignment operation.
func (l *Logger) LogPredict(ctx context.Context, points int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "predict failed",
			"points", points,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "predict completed",
			"points", points,
		)
	}
}

// LogScore logs a scoring operation.
func (l *Logger) LogScore(ctx context.Context, points int, score float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "score failed",
			"points", points,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "score completed",
			"points", points,
			"score", score,
		)
	}
}

// LogTransform logs a distance transform operation.
func (l *Logger) LogTransform(ctx context.Context, points int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "transform failed",
			"points", points,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "transform completed",
			"points", points,
		)
	}
}

// LogSnapshot logs a model snapshot operation.
func (l *Logger) LogSnapshot(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"name", name,
		)
	}
}

// LogRestore logs a model restore operation.
func (l *Logger) LogRestore(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "restore completed",
			"name", name,
		)
	}
}
