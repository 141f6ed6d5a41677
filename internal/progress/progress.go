// Package progress defines how long-running operations report completion.
package progress

import (
	"log/slog"
	"sync"
)

// Reporter receives progress updates. Fraction is in [0, 1].
type Reporter interface {
	Report(fraction float64, message string)
}

// Nop discards all updates.
type Nop struct{}

// Report implements Reporter.
func (Nop) Report(float64, string) {}

// Func adapts a plain function to the Reporter interface.
type Func func(fraction float64, message string)

// Report calls f.
func (f Func) Report(fraction float64, message string) {
	f(fraction, message)
}

// Logger writes each update to a slog.Logger at info level.
type Logger struct {
	L *slog.Logger
}

// Report implements Reporter.
func (l Logger) Report(fraction float64, message string) {
	logger := l.L
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("progress",
		slog.Float64("fraction", Clamp(fraction)),
		slog.String("message", message),
	)
}

// Update is one recorded progress call.
type Update struct {
	Fraction float64
	Message  string
}

// Recorder keeps every update in order. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	updates []Update
}

// Report implements Reporter.
func (r *Recorder) Report(fraction float64, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, Update{Fraction: fraction, Message: message})
}

// Updates returns a copy of the recorded updates.
func (r *Recorder) Updates() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Update, len(r.updates))
	copy(out, r.updates)
	return out
}

// Last returns the most recent update and whether there was one.
func (r *Recorder) Last() (Update, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updates) == 0 {
		return Update{}, false
	}
	return r.updates[len(r.updates)-1], true
}

// Multi fans every update out to all reporters in order. Nil entries are skipped.
func Multi(reporters ...Reporter) Reporter {
	return Func(func(fraction float64, message string) {
		for _, r := range reporters {
			if r != nil {
				r.Report(fraction, message)
			}
		}
	})
}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Reporter) Reporter {
	if r == nil {
		return Nop{}
	}
	return r
}

// Clamp limits fraction to [0, 1].
func Clamp(fraction float64) float64 {
	switch {
	case fraction < 0:
		return 0
	case fraction > 1:
		return 1
	default:
		return fraction
	}
}
