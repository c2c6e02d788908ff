package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextLogger_WithContextExtractsFields(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	cl := NewContextLogger(base, "job-worker")

	ctx := WithJobID(context.Background(), "job-123")
	ctx = WithFilename(ctx, "report.pdf")
	ctx = WithStage(ctx, "rerank")

	cl.WithContext(ctx).Info("processing")

	out := buf.String()
	assert.Contains(t, out, `"service":"job-worker"`)
	assert.Contains(t, out, `"ko.job.id":"job-123"`)
	assert.Contains(t, out, `"ko.file.name":"report.pdf"`)
	assert.Contains(t, out, `"ko.pipeline.stage":"rerank"`)
}

func TestContextLogger_BareContextAddsOnlyService(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	cl := NewContextLogger(base, "job-worker")

	cl.WithContext(context.Background()).Info("idle")

	out := buf.String()
	assert.Contains(t, out, `"service":"job-worker"`)
	assert.NotContains(t, out, "ko.job.id")
}
