package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeResultHelpers(t *testing.T) {
	result := ProbeResult{
		Streams: []Stream{
			{CodecType: "video", Width: 64, Height: 64},
			{CodecType: "audio", SampleRate: "48000", Channels: 2},
			{CodecType: "audio", SampleRate: "44100"},
		},
		Format: Format{Duration: "12.5"},
	}

	assert.Equal(t, 12.5, result.DurationSeconds())
	assert.True(t, result.HasVideo())

	a, ok := result.FirstAudio()
	assert.True(t, ok)
	assert.Equal(t, 48000, a.SampleRateHz())
	assert.Equal(t, 2, a.Channels)
}

func TestProbeResultHelpers_Invalid(t *testing.T) {
	result := ProbeResult{
		Streams: []Stream{{CodecType: "audio", SampleRate: "n/a"}},
		Format:  Format{Duration: "bad"},
	}

	assert.Equal(t, 0.0, result.DurationSeconds())
	assert.False(t, result.HasVideo())

	a, ok := result.FirstAudio()
	assert.True(t, ok)
	assert.Equal(t, 0, a.SampleRateHz())

	_, ok = ProbeResult{}.FirstAudio()
	assert.False(t, ok)
	assert.Equal(t, 0.0, ProbeResult{}.DurationSeconds())
}
