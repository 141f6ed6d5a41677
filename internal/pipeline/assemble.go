package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/maauso/silentcut/internal/audio"
	"github.com/maauso/silentcut/internal/media"
	"github.com/maauso/silentcut/internal/progress"
)

// assemble slices every padded interval out of src, joins the slices in
// order and writes them to outputPath. A slice that fails is skipped; the
// run only fails when none succeed.
func (p *Pipeline) assemble(ctx context.Context, src media.Source, padded []audio.Interval, outputPath, workDir string, reporter progress.Reporter) (Result, error) {
	stop := p.timeStage(ctx, stageExtract)
	clips := make([]media.Clip, 0, len(padded))
	defer func() {
		for _, c := range clips {
			p.closeQuietly("clip", c)
		}
	}()

	written := make([]audio.Interval, 0, len(padded))
	skipped := 0
	n := len(padded)
	for i, iv := range padded {
		if err := checkpoint(ctx); err != nil {
			return Result{}, err
		}
		reporter.Report(0.3+0.6*float64(i)/float64(n),
			fmt.Sprintf("Extracting segment %d/%d (%.2fs - %.2fs)", i+1, n, iv.Start, iv.End))

		clip, err := src.Slice(ctx, iv.Start, iv.End, p.codecs)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, classify(ctx, ErrSegmentExtraction, err)
			}
			p.logger.Warn("skipping segment that failed to extract",
				slog.Int("segment", i+1),
				slog.String("interval", iv.String()),
				slog.String("error", err.Error()),
			)
			skipped++
			continue
		}
		clips = append(clips, clip)
		written = append(written, iv)
	}
	stop()

	if len(clips) == 0 {
		return Result{}, fmt.Errorf("%w: could not extract any valid video segments after applying padding", ErrSegmentExtraction)
	}
	if err := checkpoint(ctx); err != nil {
		return Result{}, err
	}

	defer p.timeStage(ctx, stageEncode)()

	reporter.Report(0.9, "Concatenating segments...")
	p.logger.Info("concatenating segments", slog.Int("segments", len(clips)))
	joined, err := p.encoder.Concatenate(ctx, clips, workDir)
	if err != nil {
		return Result{}, classify(ctx, ErrEncoding, fmt.Errorf("concatenate: %w", err))
	}
	defer p.closeQuietly("joined clip", joined)

	if err := checkpoint(ctx); err != nil {
		return Result{}, err
	}
	if err := ensureParentDir(outputPath); err != nil {
		return Result{}, fmt.Errorf("%w: create output directory: %w", ErrEncoding, err)
	}

	reporter.Report(0.95, fmt.Sprintf("Writing final video to %s...", filepath.Base(outputPath)))
	p.logger.Info("writing final video", slog.String("output", outputPath))
	if err := joined.Write(ctx, outputPath, p.codecs); err != nil {
		if rmErr := os.Remove(outputPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			p.logger.Warn("failed to remove partial output",
				slog.String("output", outputPath),
				slog.String("error", rmErr.Error()),
			)
		}
		return Result{}, classify(ctx, ErrEncoding, fmt.Errorf("write output: %w", err))
	}

	return Result{
		Success:         true,
		Message:         outputPath,
		OutputPath:      outputPath,
		OutputDuration:  audio.TotalDuration(written),
		Segments:        written,
		SkippedSegments: skipped,
	}, nil
}
