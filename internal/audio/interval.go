package audio

import "fmt"

// Interval is a span of the timeline in seconds, [Start, End).
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns End - Start.
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// String formats the interval with millisecond precision.
func (iv Interval) String() string {
	return fmt.Sprintf("[%.3fs, %.3fs)", iv.Start, iv.End)
}

// TotalDuration sums the durations of the given intervals.
func TotalDuration(intervals []Interval) float64 {
	var total float64
	for _, iv := range intervals {
		total += iv.Duration()
	}
	return total
}

// Complement returns the parts of [0, total] not covered by cuts.
// cuts must be sorted by Start. Zero-length gaps are not emitted.
func Complement(cuts []Interval, total float64) []Interval {
	kept := make([]Interval, 0, len(cuts)+1)
	cursor := 0.0
	for _, c := range cuts {
		if cursor < c.Start {
			kept = append(kept, Interval{Start: cursor, End: c.Start})
		}
		if c.End > cursor {
			cursor = c.End
		}
	}
	if cursor < total {
		kept = append(kept, Interval{Start: cursor, End: total})
	}
	return kept
}

// MergeShortGaps fuses consecutive intervals separated by a gap of at most
// maxGap seconds. The input must be sorted; a non-positive maxGap returns
// a copy of the input unchanged.
func MergeShortGaps(intervals []Interval, maxGap float64) []Interval {
	if len(intervals) == 0 {
		return []Interval{}
	}
	merged := make([]Interval, 0, len(intervals))
	merged = append(merged, intervals[0])
	for _, cur := range intervals[1:] {
		last := &merged[len(merged)-1]
		if maxGap > 0 && cur.Start-last.End <= maxGap {
			if cur.End > last.End {
				last.End = cur.End
			}
			continue
		}
		merged = append(merged, cur)
	}
	return merged
}
