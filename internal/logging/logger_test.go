package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(DEBUG, true, &buf).WithComponent("forecast")

	logger.Info("prediction generated", "horizon_days", 3, "confidence", 0.62)

	var entry Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "prediction generated", entry.Message)
	assert.Equal(t, "forecast", entry.Component)
	assert.EqualValues(t, 3, entry.Fields["horizon_days"])
	assert.NotEmpty(t, entry.Timestamp)
	assert.True(t, strings.HasSuffix(entry.File, "_test.go"), "callsite should be the test file, got %s", entry.File)
}

func TestStructuredLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(WARN, true, &buf)

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "visible")
}

func TestStructuredLogger_TraceIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(DEBUG, true, &buf)

	ctx := WithTraceID(context.Background(), "trace-abc")
	logger.InfoContext(ctx, "scored")

	var entry Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trace-abc", entry.TraceID)
}

func TestStructuredLogger_ContextTraceOverridesBound(t *testing.T) {
	var buf bytes.Buffer
	logger := New(DEBUG, true, &buf).WithTraceID("bound-id")

	ctx := WithTraceID(context.Background(), "ctx-id")
	logger.InfoContext(ctx, "msg")

	var entry Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ctx-id", entry.TraceID)
}

func TestGetTraceID(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))

	ctx := WithTraceID(context.Background(), "")
	assert.NotEmpty(t, GetTraceID(ctx), "empty trace ID should be minted")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLogLevel("debug"))
	assert.Equal(t, WARN, ParseLogLevel("WARNING"))
	assert.Equal(t, ERROR, ParseLogLevel("Error"))
	assert.Equal(t, INFO, ParseLogLevel("nonsense"))
}

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(INFO, false, &buf).WithComponent("almanac")

	logger.Info("holiday resolved", "name", "Boxing Day")

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "component:almanac")
	assert.Contains(t, out, "name=Boxing Day")
}
