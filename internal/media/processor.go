// Package media decodes input videos into sample buffers and cuts, joins and
// encodes video clips. The FFmpeg-backed implementation shells out to the
// ffmpeg and ffprobe binaries.
package media

import (
	"context"

	"github.com/maauso/silentcut/internal/audio"
)

// Decoder opens media files for reading.
type Decoder interface {
	// Open probes path and returns a Source. Scratch files created while
	// reading the source are placed in workDir.
	Open(ctx context.Context, path, workDir string) (Source, error)
}

// Source is an opened media file.
type Source interface {
	// Duration returns the container duration in seconds.
	Duration() float64

	// AudioTrack returns the first audio stream. The boolean is false when
	// the file has no audio.
	AudioTrack() (AudioTrack, bool)

	// Slice extracts [start, end) seconds into a standalone clip encoded
	// with codecs.
	Slice(ctx context.Context, start, end float64, codecs Codecs) (Clip, error)

	// Close releases the source. Clips already sliced stay valid.
	Close() error
}

// AudioTrack is the audio stream of a Source.
type AudioTrack interface {
	// SampleRate returns the native sample rate in Hz.
	SampleRate() int

	// Samples decodes the whole track resampled to fps Hz.
	// A non-positive fps keeps the native rate.
	Samples(ctx context.Context, fps int) (*audio.Buffer, error)
}

// Clip is a piece of video that can be written to disk.
type Clip interface {
	// Write encodes the clip to outputPath.
	Write(ctx context.Context, outputPath string, codecs Codecs) error

	// Close releases any scratch files held by the clip.
	Close() error
}

// Encoder composes clips.
type Encoder interface {
	// Concatenate joins clips in order into a single clip. The returned clip
	// references the inputs, so they must stay open until it is written.
	Concatenate(ctx context.Context, clips []Clip, workDir string) (Clip, error)
}

// Codecs selects the output encoding.
type Codecs struct {
	Video        string
	Audio        string
	Preset       string
	CRF          int
	AudioBitrate string
}

// DefaultCodecs is H.264 video with AAC audio, suitable for an mp4 container.
var DefaultCodecs = Codecs{
	Video:        "libx264",
	Audio:        "aac",
	Preset:       "fast",
	CRF:          23,
	AudioBitrate: "128k",
}
