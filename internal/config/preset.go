package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/maauso/silentcut/internal/pipeline"
)

// LoadPreset reads detection parameters from a TOML file on top of base.
// Keys missing from the file keep their base value; unknown keys are an
// error. The merged config is validated.
//
//	threshold_db = -35.0
//	min_silence_duration_sec = 0.8
//	end_padding_sec = 0.2
func LoadPreset(path string, base pipeline.Config) (pipeline.Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is chosen by the CLI user
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("read preset: %w", err)
	}
	return ParsePreset(data, base)
}

// ParsePreset decodes TOML preset data on top of base.
func ParsePreset(data []byte, base pipeline.Config) (pipeline.Config, error) {
	cfg := base
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return pipeline.Config{}, fmt.Errorf("parse preset: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return pipeline.Config{}, err
	}
	return cfg, nil
}
