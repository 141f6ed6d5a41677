package audio

import (
	"log/slog"
)

const (
	// fallbackMinSilenceSec replaces a non-positive minimum silence duration.
	fallbackMinSilenceSec = 0.1
	// fallbackFrameSize is used when the sample rate is too low for a
	// time-based frame size.
	fallbackFrameSize = 256
	// durationTolerance absorbs float error from frame index arithmetic when
	// comparing run lengths against the minimum silence duration.
	durationTolerance = 1e-9
)

// DetectOpts configures silence detection.
type DetectOpts struct {
	// ThresholdDB is the loudness in dBFS at or below which a frame is silent.
	// Default: -40 dBFS.
	ThresholdDB float64

	// MinSilenceSec is the minimum length of a silent run for it to be
	// removed. Shorter runs are natural pauses and stay in the output.
	// Non-positive values fall back to 0.1 seconds.
	// Default: 1.0 seconds.
	MinSilenceSec float64

	// MergeGapSec fuses kept intervals separated by a gap of at most this
	// many seconds. Negative values are treated as 0 (no merging).
	// Default: 0.2 seconds.
	MergeGapSec float64

	// FrameDurationSec is the analysis window length.
	// Default: 0.05 seconds.
	FrameDurationSec float64
}

// DefaultDetectOpts returns the default options for silence detection.
func DefaultDetectOpts() DetectOpts {
	return DetectOpts{
		ThresholdDB:      -40,
		MinSilenceSec:    1.0,
		MergeGapSec:      0.2,
		FrameDurationSec: 0.05,
	}
}

// Detection is the outcome of analysing one buffer.
type Detection struct {
	// Total is the buffer duration in seconds.
	Total float64 `json:"total"`
	// FrameSize is the number of mono samples per analysis frame.
	FrameSize int `json:"frame_size"`
	// FrameDuration is FrameSize expressed in seconds.
	FrameDuration float64 `json:"frame_duration"`
	// Loudness holds the dBFS value of each analysis frame.
	Loudness []float64 `json:"loudness"`
	// Silences lists every silent run, long or short.
	Silences []Interval `json:"silences"`
	// LongSilences lists silent runs that met the minimum duration.
	LongSilences []Interval `json:"long_silences"`
	// Kept lists the spans that survive, after gap merging.
	Kept []Interval `json:"kept"`
	// Removed lists the spans cut from the timeline. Kept and Removed
	// together tile [0, Total].
	Removed []Interval `json:"removed"`
}

// run is a maximal sequence of frames sharing one classification.
type run struct {
	silent      bool
	first, last int
}

// Detect classifies the frames of buf as silent or voiced and returns the
// intervals to keep.
//
// An invalid sample rate, an empty buffer, or a buffer shorter than one
// analysis frame yields an empty Detection rather than an error. When no
// frame is voiced, Kept is empty and the whole timeline is Removed.
func Detect(buf *Buffer, opts DetectOpts, logger *slog.Logger) Detection {
	if logger == nil {
		logger = slog.Default()
	}
	empty := Detection{
		Loudness:     []float64{},
		Silences:     []Interval{},
		LongSilences: []Interval{},
		Kept:         []Interval{},
		Removed:      []Interval{},
	}

	if buf == nil || buf.SampleRate <= 0 {
		logger.Error("invalid sample rate for silence detection")
		return empty
	}
	if buf.Frames() == 0 {
		logger.Warn("empty audio buffer provided for detection")
		return empty
	}

	opts = normalizeOpts(opts, logger)
	frameSize := frameSizeFor(buf.SampleRate, opts.FrameDurationSec, logger)
	frameDur := float64(frameSize) / float64(buf.SampleRate)
	total := buf.Duration()

	loudness, err := FrameLoudness(buf.Mono(), frameSize)
	if err != nil || len(loudness) == 0 {
		logger.Warn("loudness analysis produced no frames",
			slog.Int("frame_size", frameSize),
			slog.Int("samples", buf.Frames()),
		)
		empty.Total = total
		return empty
	}

	logger.Info("detecting non-silent intervals",
		slog.Float64("threshold_db", opts.ThresholdDB),
		slog.Float64("min_silence_sec", opts.MinSilenceSec),
		slog.Float64("merge_gap_sec", opts.MergeGapSec),
		slog.Int("frames", len(loudness)),
		slog.Float64("frame_duration_sec", frameDur),
	)

	det := Detection{
		Total:         total,
		FrameSize:     frameSize,
		FrameDuration: frameDur,
		Loudness:      loudness,
		Silences:      []Interval{},
		LongSilences:  []Interval{},
	}

	runs := groupRuns(loudness, opts.ThresholdDB)
	voiced := false
	for _, r := range runs {
		if !r.silent {
			voiced = true
			continue
		}
		iv := runInterval(r, frameDur, total)
		det.Silences = append(det.Silences, iv)
		if iv.Duration()+durationTolerance >= opts.MinSilenceSec {
			det.LongSilences = append(det.LongSilences, iv)
		}
	}

	if !voiced {
		logger.Info("no segments detected above the silence threshold")
		det.Kept = []Interval{}
		det.Removed = []Interval{{Start: 0, End: total}}
		return det
	}

	kept := Complement(det.LongSilences, total)
	det.Kept = MergeShortGaps(kept, opts.MergeGapSec)
	if len(det.Kept) < len(kept) {
		logger.Debug("merged short gaps between kept intervals",
			slog.Int("before", len(kept)),
			slog.Int("after", len(det.Kept)),
		)
	}
	det.Removed = Complement(det.Kept, total)

	logger.Info("detected intervals to keep",
		slog.Int("kept", len(det.Kept)),
		slog.Int("long_silences", len(det.LongSilences)),
		slog.Float64("removed_sec", TotalDuration(det.Removed)),
	)
	return det
}

func normalizeOpts(opts DetectOpts, logger *slog.Logger) DetectOpts {
	if opts.MinSilenceSec <= 0 {
		logger.Warn("min silence duration must be positive, using fallback",
			slog.Float64("got", opts.MinSilenceSec),
			slog.Float64("fallback", fallbackMinSilenceSec),
		)
		opts.MinSilenceSec = fallbackMinSilenceSec
	}
	if opts.MergeGapSec < 0 {
		logger.Warn("merge gap cannot be negative, using 0",
			slog.Float64("got", opts.MergeGapSec),
		)
		opts.MergeGapSec = 0
	}
	if opts.FrameDurationSec <= 0 {
		opts.FrameDurationSec = DefaultDetectOpts().FrameDurationSec
	}
	return opts
}

// frameSizeFor converts the analysis window to samples, falling back to a
// 100 ms window and then a fixed size for very low sample rates.
func frameSizeFor(sampleRate int, frameDur float64, logger *slog.Logger) int {
	size := int(float64(sampleRate)*frameDur + durationTolerance)
	if size > 0 {
		return size
	}
	size = int(float64(sampleRate) * 0.1)
	if size <= 0 {
		size = fallbackFrameSize
	}
	logger.Warn("using fallback detection frame size",
		slog.Int("frame_size", size),
		slog.Int("sample_rate", sampleRate),
	)
	return size
}

// groupRuns splits frame indices into maximal runs of equal classification.
func groupRuns(loudness []float64, thresholdDB float64) []run {
	var runs []run
	for i, db := range loudness {
		silent := db <= thresholdDB
		if n := len(runs); n > 0 && runs[n-1].silent == silent {
			runs[n-1].last = i
			continue
		}
		runs = append(runs, run{silent: silent, first: i, last: i})
	}
	return runs
}

// runInterval maps a run to seconds, clamped to total. Samples past the last
// whole frame belong to no run, so a trailing kept interval covers them.
func runInterval(r run, frameDur, total float64) Interval {
	start := float64(r.first) * frameDur
	end := float64(r.last+1) * frameDur
	if end > total {
		end = total
	}
	return Interval{Start: start, End: end}
}
