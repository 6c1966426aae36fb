// internal/util/logger_test.go
package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger_ValidLevels(t *testing.T) {
	original := logger
	defer func() { logger = original }()

	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		t.Run(lvl, func(t *testing.T) {
			l, err := InitLogger(lvl)
			require.NoError(t, err)
			assert.Same(t, l, GetLogger())
			assert.NotPanics(t, func() {
				l.Infow("test log", "level", lvl)
			})
		})
	}
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	_, err := InitLogger("not-a-level")
	assert.Error(t, err)
}

func TestGetLogger_EnabledBeforeInit(t *testing.T) {
	l := GetLogger()
	require.NotNil(t, l)
	assert.True(t, l.Desugar().Core().Enabled(zapcore.ErrorLevel))
	assert.True(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestSetLogger_Restore(t *testing.T) {
	original := GetLogger()
	replacement := zap.NewExample().Sugar()

	restore := SetLogger(replacement)
	assert.Same(t, replacement, GetLogger())
	restore()
	assert.Same(t, original, GetLogger())
}
