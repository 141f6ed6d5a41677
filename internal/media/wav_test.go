package media

import (
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestWAV(t *testing.T, path string, rate, channels int, samples []int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

func TestReadWAV(t *testing.T) {
	t.Run("mono", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mono.wav")
		writeTestWAV(t, path, 8000, 1, []int{0, 16384, -16384, -32768})

		buf, err := ReadWAV(path)
		require.NoError(t, err)
		assert.Equal(t, 8000, buf.SampleRate)
		assert.Equal(t, 1, buf.Channels)
		assert.InDeltaSlice(t, []float64{0, 0.5, -0.5, -1}, buf.Data, 1e-9)
	})

	t.Run("stereo keeps interleaving", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stereo.wav")
		writeTestWAV(t, path, 16000, 2, []int{16384, 0, 16384, 0})

		buf, err := ReadWAV(path)
		require.NoError(t, err)
		assert.Equal(t, 2, buf.Channels)
		assert.Equal(t, 2, buf.Frames())
		assert.InDeltaSlice(t, []float64{0.25, 0.25}, buf.Mono(), 1e-9)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadWAV(filepath.Join(t.TempDir(), "missing.wav"))
		assert.Error(t, err)
	})

	t.Run("not a wav", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bogus.wav")
		require.NoError(t, os.WriteFile(path, []byte("definitely not riff data"), 0o600))
		_, err := ReadWAV(path)
		assert.ErrorIs(t, err, ErrInvalidWAV)
	})
}

func TestFromIntBuffer(t *testing.T) {
	_, err := fromIntBuffer(nil, 16)
	assert.ErrorIs(t, err, ErrInvalidWAV)

	_, err = fromIntBuffer(&goaudio.IntBuffer{Format: &goaudio.Format{SampleRate: 8000}}, 0)
	assert.ErrorIs(t, err, ErrInvalidWAV)

	buf, err := fromIntBuffer(&goaudio.IntBuffer{
		Format: &goaudio.Format{SampleRate: 8000},
		Data:   []int{64, -128},
	}, 8)
	require.NoError(t, err)
	assert.Equal(t, 1, buf.Channels, "missing channel count defaults to mono")
	assert.InDeltaSlice(t, []float64{0.5, -1}, buf.Data, 1e-9)
}
