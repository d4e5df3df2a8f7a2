package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"marketplace/config"
	"marketplace/infrastructure/persistence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNilLoggerSafety(t *testing.T) {
	original := log
	defer func() { log = original }()
	log = nil

	Debug("test debug")
	Info("test info")
	Warn("test warn")
	Error("test error")

	assert.NotNil(t, Get())
	assert.NotNil(t, With(zap.String("key", "value")))
	assert.NotNil(t, WithRequestID("test-id"))
	assert.NotNil(t, WithFields(map[string]any{"test": "value"}))
	assert.NotNil(t, FromContext(context.Background()))
	assert.NoError(t, Sync())
}

func TestInitConsoleAndJSON(t *testing.T) {
	require.NoError(t, Init(&config.LogConfig{Level: "debug", Output: "stdout"}, "development"))
	Info("development logger initialized", zap.String("env", "development"))

	require.NoError(t, Init(&config.LogConfig{Level: "info", Format: "json", Output: "stdout"}, "production"))
	Info("production logger initialized", zap.String("env", "production"))
	_ = Sync()
}

func TestDynamicLogLevel(t *testing.T) {
	require.NoError(t, Init(&config.LogConfig{Level: "debug", Output: "stdout"}, "development"))

	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))
	UpdateLevel("warn")
	assert.False(t, Get().Core().Enabled(zapcore.InfoLevel))
	UpdateLevel("debug")
	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	require.NoError(t, Init(&config.LogConfig{Level: "info", Format: "json", Output: "file", FilePath: path}, "production"))
	for i := 0; i < 10; i++ {
		Info("log entry", zap.Int("entry", i))
	}
	_ = Sync()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestFromContextAddsRequestID(t *testing.T) {
	original := log
	defer func() { log = original }()

	core, logs := observer.New(zapcore.InfoLevel)
	log = zap.New(core)

	ctx := persistence.ContextWithRequestID(context.Background(), "req-42")
	FromContext(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-42", logs.All()[0].ContextMap()["request_id"])
}
