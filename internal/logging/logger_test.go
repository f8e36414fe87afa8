package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WhenDevelopmentEnvironment_ThenReturnsLogger(t *testing.T) {
	// Arrange & Act
	logger, err := New(Options{Environment: "development", Level: "debug"})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, logger)
	_ = logger.Sync()
}

func TestNew_WhenJSONEncodingRequested_ThenBuilds(t *testing.T) {
	// Arrange & Act
	logger, err := New(Options{Environment: "development", Level: "info", Encoding: "json"})

	// Assert
	require.NoError(t, err)
	logger.Info("json encoded", zap.String("key", "value"))
	_ = logger.Sync()
}

func TestNew_WhenInvalidLogLevel_ThenDefaultsToInfo(t *testing.T) {
	// Arrange & Act
	logger, err := New(Options{Environment: "production", Level: "invalid-level"})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, logger)
	_ = logger.Sync()
}

func TestNewProductionLogger_WhenCalled_ThenLogsWithoutPanic(t *testing.T) {
	// Arrange
	logger, err := NewProductionLogger()
	require.NoError(t, err)

	// Act & Assert (should not panic)
	logger.Info("test info message", zap.String("key", "value"))
	logger.Warn("test warn message")
	logger.Error("test error message")
	logger.With(zap.String("component", "test")).Debug("child")
	_ = logger.Sync()
}

func TestZap_WhenZapBacked_ThenReturnsUnderlyingLogger(t *testing.T) {
	// Arrange
	logger, err := NewDevelopmentLogger()
	require.NoError(t, err)

	// Act
	zl := Zap(logger)

	// Assert
	assert.NotNil(t, zl)
	zl.Debug("from gin middleware")
}

func TestZap_WhenNoOpLogger_ThenReturnsNop(t *testing.T) {
	// Act
	zl := Zap(NewNoOpLogger())

	// Assert
	assert.NotNil(t, zl)
}

func TestNoOpLogger_With_WhenCalled_ThenReturnsSelf(t *testing.T) {
	// Arrange
	logger := &NoOpLogger{}

	// Act
	childLogger := logger.With(zap.String("key", "value"))

	// Assert
	assert.Same(t, logger, childLogger)
	assert.NoError(t, logger.Sync())
}
