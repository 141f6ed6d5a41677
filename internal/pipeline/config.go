package pipeline

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/silentcut/internal/audio"
)

var validate = validator.New()

// Config holds the detection and padding parameters for one run.
type Config struct {
	// ThresholdDB is the loudness in dBFS at or below which audio counts as silent.
	ThresholdDB float64 `json:"threshold_db" toml:"threshold_db" validate:"gte=-70,lte=0"`
	// MinSilenceDurationSec is the shortest silence that gets removed.
	MinSilenceDurationSec float64 `json:"min_silence_duration_sec" toml:"min_silence_duration_sec" validate:"gt=0,lte=10"`
	// MergeGapSec fuses kept segments separated by at most this many seconds.
	MergeGapSec float64 `json:"merge_gap_sec" toml:"merge_gap_sec" validate:"gte=0,lte=2"`
	// StartPaddingSec is kept before each segment.
	StartPaddingSec float64 `json:"start_padding_sec" toml:"start_padding_sec" validate:"gte=0,lte=0.5"`
	// EndPaddingSec is kept after each segment.
	EndPaddingSec float64 `json:"end_padding_sec" toml:"end_padding_sec" validate:"gte=0,lte=0.5"`
}

// DefaultConfig returns the default detection parameters.
func DefaultConfig() Config {
	return Config{
		ThresholdDB:           -40,
		MinSilenceDurationSec: 1.0,
		MergeGapSec:           0.2,
		StartPaddingSec:       0.1,
		EndPaddingSec:         0.1,
	}
}

// Validate checks every field against its allowed range.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) detectOpts() audio.DetectOpts {
	opts := audio.DefaultDetectOpts()
	opts.ThresholdDB = c.ThresholdDB
	opts.MinSilenceSec = c.MinSilenceDurationSec
	opts.MergeGapSec = c.MergeGapSec
	return opts
}
