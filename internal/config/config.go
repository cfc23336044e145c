package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the full eraser configuration loaded from YAML.
type Config struct {
	Wipe         WipeConfig         `yaml:"wipe"`
	Verification VerificationConfig `yaml:"verification"`
	Logging      LoggingConfig      `yaml:"logging"`
	Reporting    ReportingConfig    `yaml:"reporting"`
	Jobs         JobsConfig         `yaml:"jobs"`
	Patterns     PatternsConfig     `yaml:"patterns"`
}

// WipeConfig controls the erase engine.
type WipeConfig struct {
	Method          string  `yaml:"method"`
	Passes          int     `yaml:"passes"`
	ChunkSize       int     `yaml:"chunk_size"`
	MaxSpeedMBps    float64 `yaml:"max_speed_mbps"`
	Concurrency     int     `yaml:"concurrency"`
	MaxScratchBytes int64   `yaml:"max_scratch_bytes"`
	AntiForensics   bool    `yaml:"anti_forensics"`
}

// VerificationConfig controls before/after hashing and free-space
// sampling.
type VerificationConfig struct {
	Enabled        bool     `yaml:"enabled"`
	HashAlgorithms []string `yaml:"hash_algorithms"`
	Samples        int      `yaml:"samples"`
	SampleSize     int      `yaml:"sample_size"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type ReportingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	LocalPath string `yaml:"local_path"`
	SignKey   string `yaml:"sign_key"`
}

type JobsConfig struct {
	CheckpointDir string `yaml:"checkpoint_dir"`
}

type PatternsConfig struct {
	File string `yaml:"file"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Wipe: WipeConfig{
			Method:          "standard",
			Passes:          3,
			ChunkSize:       1 * 1024 * 1024, // 1MB
			MaxSpeedMBps:    0,               // unlimited
			Concurrency:     0,               // auto
			MaxScratchBytes: 0,               // until disk full
			AntiForensics:   false,
		},
		Verification: VerificationConfig{
			Enabled:        false,
			HashAlgorithms: []string{"sha256"},
			Samples:        20,
			SampleSize:     4096,
		},
		Logging: LoggingConfig{
			Level: "INFO",
			File:  "",
		},
		Reporting: ReportingConfig{
			Enabled:   true,
			LocalPath: "./reports",
		},
		Jobs: JobsConfig{
			CheckpointDir: filepath.Join(os.TempDir(), "secure_eraser_checkpoints"),
		},
		Patterns: PatternsConfig{
			File: filepath.Join(userConfigDir(), "custom_patterns.json"),
		},
	}
}

// Load reads the configuration from path. A missing file falls back to
// defaults; an unparsable or invalid one is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks value ranges before the engine ever touches a disk.
func Validate(cfg *Config) error {
	if cfg.Wipe.Passes < 0 || cfg.Wipe.Passes > 100 {
		return fmt.Errorf("passes must be between 0 and 100, got %d", cfg.Wipe.Passes)
	}
	if cfg.Wipe.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", cfg.Wipe.ChunkSize)
	}
	if cfg.Wipe.ChunkSize > 100*1024*1024 {
		return fmt.Errorf("chunk size too large (max 100MB), got %d", cfg.Wipe.ChunkSize)
	}
	if cfg.Wipe.MaxSpeedMBps < 0 {
		return fmt.Errorf("max speed cannot be negative, got %f", cfg.Wipe.MaxSpeedMBps)
	}
	if cfg.Wipe.MaxSpeedMBps > 10000 {
		return fmt.Errorf("max speed too high (max 10000MB/s), got %f", cfg.Wipe.MaxSpeedMBps)
	}
	if cfg.Wipe.Concurrency < 0 || cfg.Wipe.Concurrency > 64 {
		return fmt.Errorf("concurrency must be between 0 and 64, got %d", cfg.Wipe.Concurrency)
	}
	if cfg.Wipe.MaxScratchBytes < 0 {
		return fmt.Errorf("max scratch bytes cannot be negative, got %d", cfg.Wipe.MaxScratchBytes)
	}

	if cfg.Verification.Samples <= 0 || cfg.Verification.Samples > 1000 {
		return fmt.Errorf("verification samples must be between 1 and 1000, got %d", cfg.Verification.Samples)
	}
	if cfg.Verification.SampleSize < 256 || cfg.Verification.SampleSize > 10*1024*1024 {
		return fmt.Errorf("verification sample size must be between 256 bytes and 10MB, got %d", cfg.Verification.SampleSize)
	}

	validLevels := map[string]bool{
		"DEBUG": true,
		"INFO":  true,
		"WARN":  true,
		"ERROR": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}

	if cfg.Jobs.CheckpointDir == "" {
		return fmt.Errorf("checkpoint directory cannot be empty")
	}

	return nil
}

// Save writes the configuration to path, validating it first.
func Save(cfg *Config, path string) error {
	if err := Validate(cfg); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func userConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "secure_eraser")
	}
	return filepath.Join(home, ".config", "secure_eraser")
}
