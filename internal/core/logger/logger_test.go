package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestGet_BeforeInit returns a usable no-op logger.
func TestGet_BeforeInit(t *testing.T) {
	globalLogger = nil

	l := Get()
	require.NotNil(t, l)
	l.Info("must not panic")
}

// TestInit configures the global logger for both environments.
func TestInit(t *testing.T) {
	require.NoError(t, Init("development", "debug"))
	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init("production", "warn"))
	assert.False(t, Get().Core().Enabled(zapcore.InfoLevel))
}

// TestInit_UnknownLevel falls back to the config default level.
func TestInit_UnknownLevel(t *testing.T) {
	require.NoError(t, Init("development", "chatty"))
	require.NotNil(t, Get())
}

// TestForProduct scopes a logger to one product without panicking on a
// still-unknown name.
func TestForProduct(t *testing.T) {
	require.NoError(t, Init("development", "info"))

	require.NotNil(t, ForProduct(417058, ""))
	require.NotNil(t, ForProduct(417058, "Видеокарта"))
}
