package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	// Business context keys, OpenTelemetry-style dotted names.
	JobIDKey    ContextKey = "ko.job.id"
	FilenameKey ContextKey = "ko.file.name"
	StageKey    ContextKey = "ko.pipeline.stage"
)

// ContextLogger provides context-aware structured logging.
type ContextLogger struct {
	logger      *slog.Logger
	serviceName string
}

// NewContextLogger wraps an existing logger so records pick up the
// business context stamped on the request context.
func NewContextLogger(base *slog.Logger, serviceName string) *ContextLogger {
	return &ContextLogger{
		logger:      base,
		serviceName: serviceName,
	}
}

// WithContext returns a logger with context values extracted and added as fields
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := cl.logger.With("service", cl.serviceName)

	var fields []any

	if jobID := ctx.Value(JobIDKey); jobID != nil {
		fields = append(fields, string(JobIDKey), jobID)
	}
	if filename := ctx.Value(FilenameKey); filename != nil {
		fields = append(fields, string(FilenameKey), filename)
	}
	if stage := ctx.Value(StageKey); stage != nil {
		fields = append(fields, string(StageKey), stage)
	}

	if len(fields) > 0 {
		logger = logger.With(fields...)
	}

	return logger
}

// WithJobID adds the ingest job ID to the context for observability
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, JobIDKey, jobID)
}

// WithFilename adds the file being processed to the context
func WithFilename(ctx context.Context, filename string) context.Context {
	return context.WithValue(ctx, FilenameKey, filename)
}

// WithStage adds the pipeline stage name to the context
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
