package audio

import (
	"fmt"
	"math"
)

// loudnessEpsilon keeps log10 away from zero on digital silence.
const loudnessEpsilon = 1e-9

// SilenceFloorDB is the loudness reported for a frame of pure digital silence.
var SilenceFloorDB = 20 * math.Log10(loudnessEpsilon)

// FrameLoudness splits mono samples into consecutive frames of frameSize
// samples and returns the RMS loudness of each frame in dBFS.
//
// The trailing partial frame is dropped, so the result has exactly
// len(mono)/frameSize entries. Empty input yields an empty slice.
func FrameLoudness(mono []float64, frameSize int) ([]float64, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFrameSize, frameSize)
	}

	n := len(mono) / frameSize
	db := make([]float64, n)
	for i := 0; i < n; i++ {
		db[i] = toDB(rms(mono[i*frameSize : (i+1)*frameSize]))
	}
	return db, nil
}

func rms(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}

func toDB(rms float64) float64 {
	return 20 * math.Log10(rms+loudnessEpsilon)
}
