package log

import (
	"bytes"
	"testing"

	"github.com/kataras/golog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedGolog() (*golog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	g := golog.New()
	g.SetOutput(buf)
	g.SetTimeFormat("")
	return g, buf
}

func TestNewGologLogger(t *testing.T) {
	logger := NewGologLogger(golog.New())

	assert.NotNil(t, logger)
	assert.Equal(t, LogLevelInfo, logger.GetLevel())
}

func TestGologLogger_FormatsMessages(t *testing.T) {
	g, buf := newBufferedGolog()
	logger := NewGologLogger(g)
	logger.SetLevel(LogLevelDebug)

	logger.Debug("routing to %s", "search")
	logger.Warn("tool %s failed: %v", "scrape_webpages", "timeout")

	out := buf.String()
	assert.Contains(t, out, "routing to search")
	assert.Contains(t, out, "tool scrape_webpages failed: timeout")
}

func TestGologLogger_LevelFiltering(t *testing.T) {
	g, buf := newBufferedGolog()
	logger := NewGologLogger(g)
	logger.SetLevel(LogLevelError)

	logger.Debug("hidden debug")
	logger.Info("hidden info")
	logger.Warn("hidden warn")
	logger.Error("visible error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible error")

	buf.Reset()
	logger.SetLevel(LogLevelNone)
	logger.Error("nothing")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"INFO":    LogLevelInfo,
		"":        LogLevelInfo,
		"warning": LogLevelWarn,
		" error ": LogLevelError,
		"off":     LogLevelNone,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestDefaultLogger_Prefix(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewCustomLogger(buf, LogLevelInfo)

	logger.Debug("hidden")
	logger.Info("run %s started", "abc")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[teamgraph] ")
	assert.Contains(t, buf.String(), "[INFO] run abc started")
}

func TestPackageLevelLogger(t *testing.T) {
	prev := GetDefaultLogger()
	defer SetDefaultLogger(prev)

	buf := &bytes.Buffer{}
	SetDefaultLogger(NewCustomLogger(buf, LogLevelWarn))

	Info("hidden")
	Warn("careful")
	assert.Equal(t, LogLevelWarn.String(), "WARN")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "careful")
}

func TestNewServiceLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewServiceLogger(buf, LogLevelWarn)
	require.Equal(t, LogLevelWarn, logger.GetLevel())

	logger.Info("hidden")
	logger.Warn("run %s failed", "r1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[teamgraph] ")
	assert.Contains(t, out, "run r1 failed")
}
