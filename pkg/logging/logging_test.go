package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, line string) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	return entry
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestParseTimeFormat(t *testing.T) {
	assert.Equal(t, time.Kitchen, parseTimeFormat("kitchen"))
	assert.Equal(t, time.RFC3339, parseTimeFormat("RFC3339"))
	assert.Equal(t, "", parseTimeFormat("unix"))
	assert.Equal(t, "2006-01-02", parseTimeFormat("2006-01-02"))
	assert.Equal(t, time.Kitchen, parseTimeFormat("whenever"))
}

func TestParseFields(t *testing.T) {
	fields := parseFields("service=respawn, env = test,broken")
	assert.Equal(t, map[string]any{"service": "respawn", "env": "test"}, fields)
	assert.Empty(t, parseFields(""))
}

func TestNewLoggerFromConfig(t *testing.T) {
	oldLevel := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(oldLevel) })

	path := filepath.Join(t.TempDir(), "run.log")
	logger := NewLoggerFromConfig(&Config{
		Level:  "warn",
		Format: "json",
		Output: path,
		Fields: map[string]any{"service": "respawn"},
	})

	logger.Info().Msg("hidden")
	logger.Warn().Str("dataset", "anxiety").Msg("visible")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")

	entry := decodeLine(t, string(bytes.TrimSpace(data)))
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "anxiety", entry["dataset"])
	assert.Equal(t, "respawn", entry["service"])
}

func TestNewLoggerFromConfigNil(t *testing.T) {
	oldLevel := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(oldLevel) })

	logger := NewLoggerFromConfig(nil)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestContextFields(t *testing.T) {
	tl := NewTestLogger(t)

	ctx := WithLogger(context.Background(), tl.Logger)
	ctx = WithRun(ctx, "run-123")
	ctx = WithDataset(ctx, "wellbeing")
	ctx = WithTarget(ctx, "master")
	ctx = WithOperation(ctx, "merge")
	ctx = WithField(ctx, "error", errors.New("boom"))

	FromContext(ctx).Info().Msg("stage done")

	lines := tl.Lines()
	require.Len(t, lines, 1)
	entry := decodeLine(t, lines[0])
	assert.Equal(t, "run-123", entry["run_id"])
	assert.Equal(t, "wellbeing", entry["dataset"])
	assert.Equal(t, "master", entry["target"])
	assert.Equal(t, "merge", entry["operation"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "run-123", RunID(ctx))
	assert.True(t, tl.Contains("stage done"))
}

func TestWithFieldTypes(t *testing.T) {
	tl := NewTestLogger(t)

	ctx := WithLogger(context.Background(), tl.Logger)
	ctx = WithField(ctx, "rows", 42)
	ctx = WithField(ctx, "ratio", 0.5)
	ctx = WithField(ctx, "accepted", true)
	ctx = WithField(ctx, "elapsed", time.Second)
	FromContext(ctx).Debug().Msg("fields")

	entry := decodeLine(t, tl.Lines()[0])
	assert.EqualValues(t, 42, entry["rows"])
	assert.EqualValues(t, 0.5, entry["ratio"])
	assert.Equal(t, true, entry["accepted"])
	assert.Contains(t, entry, "elapsed")
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DEBUG", "1")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_FIELDS", "service=respawn")

	cfg := ConfigFromEnv()
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.Equal(t, map[string]any{"service": "respawn"}, cfg.Fields)

	t.Setenv("LOG_LEVEL", "error")
	assert.Equal(t, "error", ConfigFromEnv().Level)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, Default(), FromContext(context.Background()))
	assert.Equal(t, "", RunID(context.Background()))

	//nolint:staticcheck // nil context is tolerated on purpose
	assert.Same(t, Default(), FromContext(nil))
}

func TestSetDefault(t *testing.T) {
	original := *Default()
	t.Cleanup(func() { SetDefault(original) })

	buf := &bytes.Buffer{}
	SetDefault(zerolog.New(buf))
	Default().Warn().Msg("through default")

	assert.Contains(t, buf.String(), "through default")
}

func TestDisableLoggingForTest(t *testing.T) {
	DisableLoggingForTest(t)
	assert.Equal(t, zerolog.Disabled, Default().GetLevel())
}
