package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "standard", cfg.Wipe.Method)
	assert.Equal(t, 3, cfg.Wipe.Passes)
	assert.Equal(t, 1024*1024, cfg.Wipe.ChunkSize)
	assert.Equal(t, []string{"sha256"}, cfg.Verification.HashAlgorithms)
	assert.NotEmpty(t, cfg.Jobs.CheckpointDir)
	assert.NotEmpty(t, cfg.Patterns.File)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Wipe, cfg.Wipe)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
wipe:
  method: gutmann
  passes: 35
  max_speed_mbps: 50
verification:
  enabled: true
  hash_algorithms: [sha256, sha512]
logging:
  level: DEBUG
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gutmann", cfg.Wipe.Method)
	assert.Equal(t, 35, cfg.Wipe.Passes)
	assert.Equal(t, float64(50), cfg.Wipe.MaxSpeedMBps)
	assert.True(t, cfg.Verification.Enabled)
	assert.Equal(t, []string{"sha256", "sha512"}, cfg.Verification.HashAlgorithms)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, 1024*1024, cfg.Wipe.ChunkSize)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wipe: [not a map"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRanges(t *testing.T) {
	mutations := []func(*Config){
		func(c *Config) { c.Wipe.Passes = -1 },
		func(c *Config) { c.Wipe.Passes = 101 },
		func(c *Config) { c.Wipe.ChunkSize = 0 },
		func(c *Config) { c.Wipe.ChunkSize = 200 * 1024 * 1024 },
		func(c *Config) { c.Wipe.MaxSpeedMBps = -1 },
		func(c *Config) { c.Wipe.MaxSpeedMBps = 20000 },
		func(c *Config) { c.Wipe.Concurrency = -1 },
		func(c *Config) { c.Wipe.Concurrency = 100 },
		func(c *Config) { c.Wipe.MaxScratchBytes = -1 },
		func(c *Config) { c.Verification.Samples = 0 },
		func(c *Config) { c.Verification.Samples = 1001 },
		func(c *Config) { c.Verification.SampleSize = 100 },
		func(c *Config) { c.Logging.Level = "TRACE" },
		func(c *Config) { c.Jobs.CheckpointDir = "" },
	}
	for i, mutate := range mutations {
		cfg := Default()
		mutate(cfg)
		assert.Error(t, Validate(cfg), "mutation %d", i)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Default()
	cfg.Wipe.Method = "dod7"
	cfg.Reporting.SignKey = "audit-key"
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dod7", loaded.Wipe.Method)
	assert.Equal(t, "audit-key", loaded.Reporting.SignKey)
}

func TestSaveRejectsInvalid(t *testing.T) {
	cfg := Default()
	cfg.Wipe.Passes = 999
	err := Save(cfg, filepath.Join(t.TempDir(), "config.yaml"))
	assert.Error(t, err)
}
