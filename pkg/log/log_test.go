package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/user/e8audit/pkg/log"
)

func TestGetLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"error", slog.LevelError},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
	}
	for _, tt := range tests {
		got, err := log.GetLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := log.GetLevel("trace")
	require.ErrorIs(t, err, log.ErrUnknownLogLevel)
}

func TestGetFormat(t *testing.T) {
	t.Parallel()

	for _, f := range log.AllFormats {
		got, err := log.GetFormat(f)
		require.NoError(t, err)
		assert.Equal(t, log.Format(f), got)
	}

	got, err := log.GetFormat("")
	require.NoError(t, err)
	assert.Equal(t, log.FormatText, got)

	_, err = log.GetFormat("xml")
	require.ErrorIs(t, err, log.ErrUnknownLogFormat)
}

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := log.New(&buf, "warn", "json")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "strategy", "RB01")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "RB01", entry["strategy"])
}

func TestNew_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := log.New(&buf, "debug", "text")
	require.NoError(t, err)

	logger.Debug("loaded rule profile", "strategy", "PA01")
	assert.Contains(t, buf.String(), "loaded rule profile")
	assert.Contains(t, buf.String(), "PA01")
}

func TestNew_InvalidArgs(t *testing.T) {
	t.Parallel()

	_, err := log.New(&bytes.Buffer{}, "loud", "text")
	require.ErrorIs(t, err, log.ErrInvalidArgument)

	_, err = log.New(&bytes.Buffer{}, "info", "xml")
	require.ErrorIs(t, err, log.ErrInvalidArgument)
}

func TestWithContext(t *testing.T) {
	t.Parallel()

	assert.Same(t, slog.Default(), log.WithContext(context.Background()))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := log.NewContext(context.Background(), logger)
	assert.Same(t, logger, log.WithContext(ctx))
}

func TestWithContext_TraceID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := log.New(&buf, "info", "json")
	require.NoError(t, err)

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	ctx, span := tp.Tracer("log_test").Start(log.NewContext(context.Background(), logger), "evaluate")
	defer span.End()

	log.WithContext(ctx).Info("evaluated evidence")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
}
