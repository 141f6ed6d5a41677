package audio

import (
	"math"
)

const testRate = 44100

// toneWithSilences builds a mono buffer of a 440 Hz tone at amplitude 0.5
// where every [start, end) span in silences is zeroed.
func toneWithSilences(durationSec float64, silences ...[2]float64) *Buffer {
	n := int(math.Round(durationSec * testRate))
	data := make([]float64, n)
	for i := range data {
		data[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/testRate)
	}
	for _, s := range silences {
		from := int(math.Round(s[0] * testRate))
		to := int(math.Round(s[1] * testRate))
		for i := from; i < to && i < n; i++ {
			data[i] = 0
		}
	}
	return &Buffer{Data: data, Channels: 1, SampleRate: testRate}
}

// silentBuffer returns a buffer of digital silence.
func silentBuffer(durationSec float64) *Buffer {
	n := int(math.Round(durationSec * testRate))
	return &Buffer{Data: make([]float64, n), Channels: 1, SampleRate: testRate}
}

func assertIntervalsInDelta(t testingT, want, got []Interval, delta float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("interval count mismatch: want %v, got %v", want, got)
	}
	for i := range want {
		if math.Abs(want[i].Start-got[i].Start) > delta || math.Abs(want[i].End-got[i].End) > delta {
			t.Fatalf("interval %d mismatch: want %v, got %v (all: %v)", i, want[i], got[i], got)
		}
	}
}

// testingT is the subset of *testing.T the helpers need.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

func assertSortedDisjoint(t testingT, intervals []Interval, total float64) {
	t.Helper()
	for i, iv := range intervals {
		if iv.Start < 0 || iv.End > total || iv.Start >= iv.End {
			t.Fatalf("interval %d out of bounds: %v (total %.3f)", i, iv, total)
		}
		if i > 0 && intervals[i-1].End > iv.Start {
			t.Fatalf("intervals %d and %d overlap: %v %v", i-1, i, intervals[i-1], iv)
		}
	}
}
