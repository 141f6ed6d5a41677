package audio

import "log/slog"

// ApplyPadding widens each kept interval by startPad before and endPad after,
// clamped to [0, total].
//
// A padded start never reaches back into time already claimed by the
// previous padded interval, so the output stays sorted and disjoint.
// Intervals that collapse to nothing are dropped; the number dropped is
// returned alongside the padded list.
func ApplyPadding(kept []Interval, startPad, endPad, total float64, logger *slog.Logger) ([]Interval, int) {
	if logger == nil {
		logger = slog.Default()
	}
	if startPad < 0 {
		startPad = 0
	}
	if endPad < 0 {
		endPad = 0
	}

	padded := make([]Interval, 0, len(kept))
	dropped := 0
	lastEnd := 0.0
	for i, iv := range kept {
		start := max(lastEnd, max(0, iv.Start-startPad))
		end := min(total, iv.End+endPad)

		if end <= start {
			logger.Warn("skipping segment collapsed by padding",
				slog.Int("segment", i+1),
				slog.Float64("start", start),
				slog.Float64("end", end),
			)
			dropped++
			continue
		}

		padded = append(padded, Interval{Start: start, End: end})
		lastEnd = end
	}
	return padded, dropped
}
