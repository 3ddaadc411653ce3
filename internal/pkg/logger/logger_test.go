package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger_Levels 測試不同日誌級別
func TestLogger_Levels(t *testing.T) {
	logger, err := zap.NewDevelopment()
	assert.NoError(t, err)
	defer logger.Sync()

	// 這些不應該panic
	assert.NotPanics(t, func() {
		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message")
		logger.Error("error message")
	})
}

// TestLogger_Named 測試命名logger的字段輸出
func TestLogger_Named(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	named := zap.New(core).Named("takeover")

	named.Info("named logger message", Service("sshd"))

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "takeover", entries[0].LoggerName)
		assert.Equal(t, "sshd", entries[0].ContextMap()["service"])
	}
}
