package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, -40.0, cfg.ThresholdDB)
	assert.Equal(t, 1.0, cfg.MinSilenceDurationSec)
	assert.Equal(t, 0.2, cfg.MergeGapSec)
	assert.Equal(t, 0.1, cfg.StartPaddingSec)
	assert.Equal(t, 0.1, cfg.EndPaddingSec)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"threshold at lower bound", func(c *Config) { c.ThresholdDB = -70 }, false},
		{"threshold at upper bound", func(c *Config) { c.ThresholdDB = 0 }, false},
		{"threshold too low", func(c *Config) { c.ThresholdDB = -71 }, true},
		{"threshold positive", func(c *Config) { c.ThresholdDB = 1 }, true},
		{"threshold NaN", func(c *Config) { c.ThresholdDB = math.NaN() }, true},
		{"min silence zero", func(c *Config) { c.MinSilenceDurationSec = 0 }, true},
		{"min silence at max", func(c *Config) { c.MinSilenceDurationSec = 10 }, false},
		{"min silence too long", func(c *Config) { c.MinSilenceDurationSec = 10.5 }, true},
		{"merge gap zero", func(c *Config) { c.MergeGapSec = 0 }, false},
		{"merge gap negative", func(c *Config) { c.MergeGapSec = -0.1 }, true},
		{"merge gap too large", func(c *Config) { c.MergeGapSec = 2.1 }, true},
		{"start padding max", func(c *Config) { c.StartPaddingSec = 0.5 }, false},
		{"start padding too large", func(c *Config) { c.StartPaddingSec = 0.6 }, true},
		{"end padding negative", func(c *Config) { c.EndPaddingSec = -0.01 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigDetectOpts(t *testing.T) {
	cfg := Config{ThresholdDB: -55, MinSilenceDurationSec: 0.7, MergeGapSec: 0.3}
	opts := cfg.detectOpts()
	assert.Equal(t, -55.0, opts.ThresholdDB)
	assert.Equal(t, 0.7, opts.MinSilenceSec)
	assert.Equal(t, 0.3, opts.MergeGapSec)
	assert.Equal(t, 0.05, opts.FrameDurationSec)
}
