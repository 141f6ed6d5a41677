package media

import (
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/maauso/silentcut/internal/audio"
)

// ErrInvalidWAV is returned when a file is not a decodable PCM WAV.
var ErrInvalidWAV = errors.New("invalid wav file")

// ReadWAV decodes a PCM WAV file into a normalized sample buffer.
func ReadWAV(path string) (*audio.Buffer, error) {
	f, err := os.Open(path) // #nosec G304 - path is created by this package
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm buffer: %w", err)
	}
	return fromIntBuffer(pcm, int(dec.BitDepth))
}

// fromIntBuffer scales integer PCM to [-1, 1].
func fromIntBuffer(pcm *goaudio.IntBuffer, bitDepth int) (*audio.Buffer, error) {
	if pcm == nil || pcm.Format == nil {
		return nil, fmt.Errorf("%w: missing format", ErrInvalidWAV)
	}
	if pcm.SourceBitDepth > 0 {
		bitDepth = pcm.SourceBitDepth
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidWAV, bitDepth)
	}
	channels := pcm.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}

	scale := float64(int64(1) << (bitDepth - 1))
	data := make([]float64, len(pcm.Data))
	for i, s := range pcm.Data {
		data[i] = float64(s) / scale
	}
	return &audio.Buffer{
		Data:       data,
		Channels:   channels,
		SampleRate: pcm.Format.SampleRate,
	}, nil
}
