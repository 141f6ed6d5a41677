package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maauso/silentcut/internal/audio"
	"github.com/maauso/silentcut/internal/media"
	"github.com/maauso/silentcut/internal/progress"
)

// Analysis is what detection found in one input, before any encoding.
type Analysis struct {
	// Duration is the container duration in seconds.
	Duration   float64 `json:"duration"`
	SampleRate int     `json:"sample_rate"`
	// Detection holds per-frame loudness and the detected intervals.
	Detection audio.Detection `json:"detection"`
	// Padded lists the spans of the input that would be kept.
	Padded []audio.Interval `json:"padded"`
	// Dropped counts kept intervals swallowed by padding.
	Dropped int `json:"dropped"`
	// KeptSeconds is the total length of Padded.
	KeptSeconds float64 `json:"kept_seconds"`
	// RemovedSeconds is Duration minus KeptSeconds.
	RemovedSeconds float64 `json:"removed_seconds"`
}

// Analyze decodes inputPath and runs detection and padding without writing
// any output.
func (p *Pipeline) Analyze(ctx context.Context, inputPath, workDir string, cfg Config) (Analysis, error) {
	if inputPath == "" {
		return Analysis{}, fmt.Errorf("%w: input path is required", ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return Analysis{}, err
	}

	dir, cleanup, err := makeWorkDir(workDir)
	if err != nil {
		return Analysis{}, err
	}
	defer cleanup()

	src, err := p.open(ctx, inputPath, dir)
	if err != nil {
		return Analysis{}, err
	}
	defer p.closeQuietly("source", src)

	return p.analyzeSource(ctx, src, cfg, progress.Nop{})
}

func (p *Pipeline) analyzeSource(ctx context.Context, src media.Source, cfg Config, reporter progress.Reporter) (Analysis, error) {
	track, ok := src.AudioTrack()
	if !ok {
		return Analysis{}, fmt.Errorf("%w: video file does not contain an audio track", ErrInvalidInput)
	}
	if err := checkpoint(ctx); err != nil {
		return Analysis{}, err
	}

	reporter.Report(0.1, "Extracting audio waveform...")
	buf, err := p.samples(ctx, track)
	if err != nil {
		return Analysis{}, err
	}
	if err := checkpoint(ctx); err != nil {
		return Analysis{}, err
	}

	reporter.Report(0.2, "Detecting non-silent segments...")
	stop := p.timeStage(ctx, stageDetect)
	det := audio.Detect(buf, cfg.detectOpts(), p.logger)

	duration := src.Duration()
	padded, dropped := audio.ApplyPadding(det.Kept, cfg.StartPaddingSec, cfg.EndPaddingSec, duration, p.logger)
	stop()

	kept := audio.TotalDuration(padded)
	p.logger.Info("applied padding to kept intervals",
		slog.Int("kept", len(det.Kept)),
		slog.Int("padded", len(padded)),
		slog.Int("dropped", dropped),
		slog.Float64("start_padding_sec", cfg.StartPaddingSec),
		slog.Float64("end_padding_sec", cfg.EndPaddingSec),
	)

	return Analysis{
		Duration:       duration,
		SampleRate:     buf.SampleRate,
		Detection:      det,
		Padded:         padded,
		Dropped:        dropped,
		KeptSeconds:    kept,
		RemovedSeconds: max(0, duration-kept),
	}, nil
}

func (p *Pipeline) samples(ctx context.Context, track media.AudioTrack) (*audio.Buffer, error) {
	defer p.timeStage(ctx, stageDecode)()

	fps := track.SampleRate()
	if fps <= 0 {
		fps = defaultSampleRate
	}
	buf, err := track.Samples(ctx, fps)
	if err != nil {
		return nil, classify(ctx, ErrInvalidInput, fmt.Errorf("decode audio: %w", err))
	}
	if buf == nil {
		return nil, fmt.Errorf("%w: decoder returned no samples", ErrInvalidInput)
	}
	p.logger.Info("audio extracted",
		slog.Float64("duration_sec", buf.Duration()),
		slog.Int("sample_rate", buf.SampleRate),
		slog.Int("channels", buf.Channels),
	)

	if len(p.transforms) == 0 {
		return buf, nil
	}
	out, err := audio.ApplyTransforms(ctx, buf, p.transforms...)
	if err != nil {
		return nil, classify(ctx, ErrInvalidInput, err)
	}
	return out, nil
}
