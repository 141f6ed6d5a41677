package audio

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultDetectOpts(t *testing.T) {
	opts := DefaultDetectOpts()
	assert.Equal(t, -40.0, opts.ThresholdDB)
	assert.Equal(t, 1.0, opts.MinSilenceSec)
	assert.Equal(t, 0.2, opts.MergeGapSec)
	assert.Equal(t, 0.05, opts.FrameDurationSec)
}

func TestDetect_RemovesLongSilence(t *testing.T) {
	buf := toneWithSilences(10, [2]float64{2.0, 4.5})

	det := Detect(buf, DefaultDetectOpts(), quietLogger())

	assert.Equal(t, 2205, det.FrameSize)
	assert.InDelta(t, 0.05, det.FrameDuration, 1e-12)
	assert.Len(t, det.Loudness, 200)
	assertIntervalsInDelta(t, []Interval{{0, 2.0}, {4.5, 10.0}}, det.Kept, 1e-9)
	assertIntervalsInDelta(t, []Interval{{2.0, 4.5}}, det.Removed, 1e-9)
	assertIntervalsInDelta(t, []Interval{{2.0, 4.5}}, det.LongSilences, 1e-9)
}

func TestDetect_ShortSilenceRetained(t *testing.T) {
	buf := toneWithSilences(10, [2]float64{2.0, 2.3})

	det := Detect(buf, DefaultDetectOpts(), quietLogger())

	assertIntervalsInDelta(t, []Interval{{0, 10}}, det.Kept, 1e-9)
	assert.Empty(t, det.Removed)
	assert.Empty(t, det.LongSilences)
	require.Len(t, det.Silences, 1, "short silence is still reported as a silent run")
	assert.InDelta(t, 0.3, det.Silences[0].Duration(), 1e-9)
}

func TestDetect_AllVoiced(t *testing.T) {
	buf := toneWithSilences(3)

	det := Detect(buf, DefaultDetectOpts(), quietLogger())

	assertIntervalsInDelta(t, []Interval{{0, 3}}, det.Kept, 1e-9)
	assert.Empty(t, det.Silences)
}

func TestDetect_AllSilent(t *testing.T) {
	t.Run("exact frame multiple", func(t *testing.T) {
		det := Detect(silentBuffer(10), DefaultDetectOpts(), quietLogger())
		assert.Empty(t, det.Kept)
		assertIntervalsInDelta(t, []Interval{{0, 10}}, det.Removed, 1e-9)
	})

	t.Run("tail shorter than a frame", func(t *testing.T) {
		det := Detect(silentBuffer(10.01), DefaultDetectOpts(), quietLogger())
		assert.Empty(t, det.Kept)
		assertIntervalsInDelta(t, []Interval{{0, 10.01}}, det.Removed, 1e-9)
	})

	t.Run("shorter than min silence", func(t *testing.T) {
		det := Detect(silentBuffer(0.5), DefaultDetectOpts(), quietLogger())
		assert.Empty(t, det.Kept, "no voiced frame means nothing survives")
	})
}

func TestDetect_PartialFrameTailIsKept(t *testing.T) {
	buf := toneWithSilences(10.01, [2]float64{8.0, 10.01})

	det := Detect(buf, DefaultDetectOpts(), quietLogger())

	assertIntervalsInDelta(t, []Interval{{8.0, 10.0}}, det.LongSilences, 1e-9)
	assertIntervalsInDelta(t, []Interval{{0, 8.0}, {10.0, 10.01}}, det.Kept, 1e-9)
	assertIntervalsInDelta(t, []Interval{{8.0, 10.0}}, det.Removed, 1e-9)
}

func TestDetect_TailDoesNotLengthenTrailingSilence(t *testing.T) {
	// 0.95s of whole silent frames; counting the 0.03s tail would reach 0.98s.
	buf := toneWithSilences(9.03, [2]float64{8.05, 9.03})
	opts := DefaultDetectOpts()
	opts.MinSilenceSec = 0.97

	det := Detect(buf, opts, quietLogger())

	require.Len(t, det.Silences, 1)
	assert.InDelta(t, 0.95, det.Silences[0].Duration(), 1e-9)
	assert.Empty(t, det.LongSilences)
	assertIntervalsInDelta(t, []Interval{{0, 9.03}}, det.Kept, 1e-9)
}

func TestDetect_StereoIsMixedDown(t *testing.T) {
	mono := toneWithSilences(4, [2]float64{1.0, 2.5})
	stereo := &Buffer{Data: make([]float64, 2*len(mono.Data)), Channels: 2, SampleRate: testRate}
	for i, s := range mono.Data {
		stereo.Data[2*i] = s
	}

	det := Detect(stereo, DefaultDetectOpts(), quietLogger())

	assertIntervalsInDelta(t, []Interval{{0, 1.0}, {2.5, 4}}, det.Kept, 1e-9)
}

func TestDetect_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		buf  *Buffer
	}{
		{"nil buffer", nil},
		{"zero sample rate", &Buffer{Data: make([]float64, 100), Channels: 1}},
		{"negative sample rate", &Buffer{Data: make([]float64, 100), Channels: 1, SampleRate: -1}},
		{"empty buffer", &Buffer{Channels: 1, SampleRate: testRate}},
		{"shorter than one frame", &Buffer{Data: make([]float64, 100), Channels: 1, SampleRate: testRate}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := Detect(tt.buf, DefaultDetectOpts(), quietLogger())
			assert.NotNil(t, det.Kept)
			assert.Empty(t, det.Kept)
		})
	}
}

func TestDetect_CoercesInvalidOptions(t *testing.T) {
	buf := toneWithSilences(5, [2]float64{2.0, 2.3})

	t.Run("non-positive min silence falls back to 0.1s", func(t *testing.T) {
		opts := DefaultDetectOpts()
		opts.MinSilenceSec = 0
		opts.MergeGapSec = 0

		det := Detect(buf, opts, quietLogger())

		assertIntervalsInDelta(t, []Interval{{0, 2.0}, {2.3, 5}}, det.Kept, 1e-9)
	})

	t.Run("negative merge gap disables merging", func(t *testing.T) {
		opts := DefaultDetectOpts()
		opts.MinSilenceSec = 0.2
		opts.MergeGapSec = -1

		det := Detect(buf, opts, quietLogger())

		assert.Len(t, det.Kept, 2)
	})
}

// The merge is applied to the final kept list, so every gap it can close is
// itself a long silence. It changes the output once the merge gap reaches the
// silence length.
func TestDetect_MergeGapAffectsKeptIntervals(t *testing.T) {
	buf := toneWithSilences(10, [2]float64{3.0, 3.6})

	opts := DefaultDetectOpts()
	opts.MinSilenceSec = 0.5

	opts.MergeGapSec = 0
	unmerged := Detect(buf, opts, quietLogger())
	assertIntervalsInDelta(t, []Interval{{0, 3.0}, {3.6, 10}}, unmerged.Kept, 1e-9)

	opts.MergeGapSec = 0.2
	belowGap := Detect(buf, opts, quietLogger())
	assertIntervalsInDelta(t, unmerged.Kept, belowGap.Kept, 1e-9)

	opts.MergeGapSec = 1.0
	merged := Detect(buf, opts, quietLogger())
	assertIntervalsInDelta(t, []Interval{{0, 10}}, merged.Kept, 1e-9)
	assert.Empty(t, merged.Removed)
	assert.Len(t, merged.LongSilences, 1, "long silence is still reported")
}

func TestDetect_Properties(t *testing.T) {
	cases := []struct {
		name     string
		duration float64
		silences [][2]float64
		opts     DetectOpts
	}{
		{"defaults", 10, [][2]float64{{2.0, 4.5}}, DefaultDetectOpts()},
		{"many gaps", 12, [][2]float64{{0, 1.2}, {3, 3.2}, {5, 7.5}, {9, 12}}, DefaultDetectOpts()},
		{"low threshold", 6, [][2]float64{{1, 2.5}, {4, 4.4}}, DetectOpts{ThresholdDB: -70, MinSilenceSec: 0.3, MergeGapSec: 0}},
		{"big merge", 8, [][2]float64{{1, 2}, {3, 3.6}, {5, 7}}, DetectOpts{ThresholdDB: -40, MinSilenceSec: 0.5, MergeGapSec: 0.8}},
		{"odd tail", 7.333, [][2]float64{{0.5, 2.25}}, DefaultDetectOpts()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := toneWithSilences(tc.duration, tc.silences...)
			det := Detect(buf, tc.opts, quietLogger())

			assertSortedDisjoint(t, det.Kept, det.Total)
			assertSortedDisjoint(t, det.Removed, det.Total)

			sum := TotalDuration(det.Kept) + TotalDuration(det.Removed)
			assert.InDelta(t, det.Total, sum, 1e-9, "kept and removed must tile the timeline")

			for _, s := range det.Silences {
				if s.Duration() >= tc.opts.MinSilenceSec {
					continue
				}
				covered := false
				for _, k := range det.Kept {
					if k.Start <= s.Start && s.End <= k.End {
						covered = true
						break
					}
				}
				assert.True(t, covered, "short silence %v must stay inside a kept interval", s)
			}
		})
	}
}

func TestFrameSizeFor(t *testing.T) {
	logger := quietLogger()
	assert.Equal(t, 2205, frameSizeFor(44100, 0.05, logger))
	assert.Equal(t, 800, frameSizeFor(16000, 0.05, logger))
	assert.Equal(t, 1, frameSizeFor(10, 0.05, logger), "falls back to a 100ms window")
	assert.Equal(t, fallbackFrameSize, frameSizeFor(5, 0.05, logger))
}

func TestGroupRuns(t *testing.T) {
	runs := groupRuns([]float64{-10, -10, -50, -50, -50, -10, -60}, -40)
	assert.Equal(t, []run{
		{silent: false, first: 0, last: 1},
		{silent: true, first: 2, last: 4},
		{silent: false, first: 5, last: 5},
		{silent: true, first: 6, last: 6},
	}, runs)

	assert.Empty(t, groupRuns(nil, -40))

	atThreshold := groupRuns([]float64{-40}, -40)
	require.Len(t, atThreshold, 1)
	assert.True(t, atThreshold[0].silent, "a frame exactly at the threshold is silent")
}

func TestRunInterval(t *testing.T) {
	iv := runInterval(run{first: 2, last: 3}, 0.5, 10, false)
	assert.Equal(t, Interval{Start: 1.0, End: 2.0}, iv)

	last := runInterval(run{first: 2, last: 3}, 0.5, 2.2, true)
	assert.Equal(t, 2.2, last.End)

	clamped := runInterval(run{first: 0, last: 9}, 0.5, 4.9, false)
	assert.Equal(t, 4.9, clamped.End)
}
