// Package audio holds the sample-level side of silence removal: the decoded
// sample buffer, per-frame loudness, silent/voiced run detection and the
// interval arithmetic (complement, gap merging, padding) that turns loudness
// into the spans of the timeline worth keeping.
//
// Everything in this package is pure computation. Decoding and encoding live
// in the media package.
package audio

import "errors"

// ErrInvalidFrameSize is returned when a frame size is not positive.
var ErrInvalidFrameSize = errors.New("audio: frame size must be positive")

// Buffer is a decoded block of PCM audio.
// Samples are interleaved: for a stereo buffer Data holds L0 R0 L1 R1 ...
// Amplitudes are normalized floats where full scale is 1.0.
type Buffer struct {
	// Data holds the interleaved samples.
	Data []float64
	// Channels is the number of interleaved channels (>= 1).
	Channels int
	// SampleRate is the number of samples per second per channel.
	SampleRate int
}

// Frames returns the number of samples per channel.
func (b *Buffer) Frames() int {
	if b == nil || b.Channels <= 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Duration returns the buffer length in seconds.
// A buffer with a non-positive sample rate has zero duration.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Mono reduces the buffer to a single channel by averaging the channels of
// each sample. A mono buffer is returned as a copy of its data.
func (b *Buffer) Mono() []float64 {
	n := b.Frames()
	mono := make([]float64, n)
	if n == 0 {
		return mono
	}
	if b.Channels == 1 {
		copy(mono, b.Data[:n])
		return mono
	}

	ch := float64(b.Channels)
	for i := 0; i < n; i++ {
		var sum float64
		base := i * b.Channels
		for c := 0; c < b.Channels; c++ {
			sum += b.Data[base+c]
		}
		mono[i] = sum / ch
	}
	return mono
}
