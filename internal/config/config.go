// Package config provides configuration loading from environment variables
// and TOML preset files.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"

	"github.com/maauso/silentcut/internal/pipeline"
)

// Static errors for configuration validation.
var (
	// ErrInvalidPort is returned when PORT is outside 1-65535.
	ErrInvalidPort = errors.New("config: PORT must be between 1 and 65535")
	// ErrTempDirRequired is returned when TEMP_DIR is empty.
	ErrTempDirRequired = errors.New("config: TEMP_DIR is required")
	// ErrS3RegionRequired is returned when S3_BUCKET is set without S3_REGION.
	ErrS3RegionRequired = errors.New("config: S3_REGION is required when S3_BUCKET is set")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Storage settings
	TempDir string `env:"TEMP_DIR, default=/tmp/silentcut" json:"temp_dir"`

	// Media tool settings
	FFmpegPath  string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FFprobePath string `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path"`

	// Default detection parameters, used when a request leaves them out
	SilenceThresholdDB float64 `env:"SILENCE_THRESHOLD_DB, default=-40" json:"silence_threshold_db"`
	MinSilenceSec      float64 `env:"MIN_SILENCE_SEC, default=1.0" json:"min_silence_sec"`
	MergeGapSec        float64 `env:"MERGE_GAP_SEC, default=0.2" json:"merge_gap_sec"`
	StartPaddingSec    float64 `env:"START_PADDING_SEC, default=0.1" json:"start_padding_sec"`
	EndPaddingSec      float64 `env:"END_PADDING_SEC, default=0.1" json:"end_padding_sec"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Observability settings
	MetricsEnabled bool   `env:"METRICS_ENABLED, default=true" json:"metrics_enabled"`
	LogFormat      string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel       string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables using go-envconfig
// and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if strings.TrimSpace(c.TempDir) == "" {
		return ErrTempDirRequired
	}
	if c.S3Bucket != "" && c.S3Region == "" {
		return ErrS3RegionRequired
	}
	if err := c.PipelineDefaults().Validate(); err != nil {
		return fmt.Errorf("config: default detection parameters: %w", err)
	}
	return nil
}

// PipelineDefaults returns the detection parameters configured through the
// environment.
func (c *Config) PipelineDefaults() pipeline.Config {
	return pipeline.Config{
		ThresholdDB:           c.SilenceThresholdDB,
		MinSilenceDurationSec: c.MinSilenceSec,
		MergeGapSec:           c.MergeGapSec,
		StartPaddingSec:       c.StartPaddingSec,
		EndPaddingSec:         c.EndPaddingSec,
	}
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	return NewLogger(os.Stdout, c.LogFormat, c.LogLevel)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, TempDir: %s, FFmpegPath: %s, FFprobePath: %s, SilenceThresholdDB: %.1f, MinSilenceSec: %.2f, MergeGapSec: %.2f, StartPaddingSec: %.2f, EndPaddingSec: %.2f, S3Bucket: %s, S3Region: %s, MetricsEnabled: %t, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.TempDir,
		c.FFmpegPath,
		c.FFprobePath,
		c.SilenceThresholdDB,
		c.MinSilenceSec,
		c.MergeGapSec,
		c.StartPaddingSec,
		c.EndPaddingSec,
		c.S3Bucket,
		c.S3Region,
		c.MetricsEnabled,
		c.LogFormat,
		c.LogLevel,
	)
}
