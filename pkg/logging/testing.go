package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// TestLogger captures JSON events in memory.
type TestLogger struct {
	*zerolog.Logger
	Buffer *bytes.Buffer
}

// NewTestLogger returns a trace level TestLogger. The global level is
// restored when t finishes.
func NewTestLogger(t testing.TB) *TestLogger {
	t.Helper()

	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	buf := new(bytes.Buffer)
	logger := zerolog.New(buf).Level(zerolog.TraceLevel).With().Timestamp().Logger()
	return &TestLogger{Logger: &logger, Buffer: buf}
}

// Lines returns the captured events, one JSON object each.
func (tl *TestLogger) Lines() []string {
	out := strings.TrimSpace(tl.Buffer.String())
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// Contains reports whether substr appears in any captured event.
func (tl *TestLogger) Contains(substr string) bool {
	return strings.Contains(tl.Buffer.String(), substr)
}

// NewNopLogger returns a logger that drops everything.
func NewNopLogger() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}

// DisableLoggingForTest installs a no-op default logger until t finishes.
func DisableLoggingForTest(t testing.TB) {
	t.Helper()

	prev := *Default()
	SetDefault(zerolog.Nop())
	t.Cleanup(func() { SetDefault(prev) })
}
