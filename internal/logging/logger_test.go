package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"secure_eraser/internal/config"
)

func TestLogWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "eraser.log")
	cfg := config.Default()
	cfg.Logging.File = logPath
	cfg.Logging.Level = "INFO"

	logger, err := NewEnterpriseLogger(cfg, false)
	require.NoError(t, err)

	logger.Log("INFO", "Wipe started", "path", "/tmp/x", "passes", 7)
	require.NoError(t, logger.Close())

	raw, err := os.ReadFile(logPath)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &entry))
	assert.Equal(t, "Wipe started", entry["msg"])
	assert.Equal(t, "/tmp/x", entry["path"])
	assert.Equal(t, float64(7), entry["passes"])
}

func TestLogDegradesWithoutFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.File = ""

	logger, err := NewEnterpriseLogger(cfg, true)
	require.NoError(t, err)
	defer logger.Close()

	// Must not panic without a file core.
	logger.Log("DEBUG", "console only")
	logger.Log("ERROR", "still fine", "key", "value")
}

func TestLogLevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core))

	logger.Log("WARN", "watch out", "target", "/tmp/y")
	logger.Log("DEBUG", "detail")
	logger.Log("INFO", "odd trailing", "lonely")

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "watch out", entries[0].Message)
	assert.Equal(t, "/tmp/y", entries[0].ContextMap()["target"])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, "lonely", entries[2].ContextMap()["extra"])
}

func TestFromZapWithTestLogger(t *testing.T) {
	logger := FromZap(zaptest.NewLogger(t))
	logger.Log("INFO", "visible in test output", "n", 1)
}

func TestNopDiscards(t *testing.T) {
	logger := Nop()
	logger.Log("ERROR", "nobody hears this")
	assert.NoError(t, logger.Close())
}
