package audio

import (
	"context"
	"fmt"
)

// Transform rewrites a sample buffer before analysis.
// Noise reduction or filler-word muting plug in here.
type Transform interface {
	Apply(ctx context.Context, buf *Buffer) (*Buffer, error)
}

// TransformFunc adapts a plain function to the Transform interface.
type TransformFunc func(ctx context.Context, buf *Buffer) (*Buffer, error)

// Apply calls f(ctx, buf).
func (f TransformFunc) Apply(ctx context.Context, buf *Buffer) (*Buffer, error) {
	return f(ctx, buf)
}

// ApplyTransforms runs the transforms in order, feeding each one the output
// of the previous. It stops at the first error.
func ApplyTransforms(ctx context.Context, buf *Buffer, transforms ...Transform) (*Buffer, error) {
	for i, t := range transforms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := t.Apply(ctx, buf)
		if err != nil {
			return nil, fmt.Errorf("audio transform %d: %w", i, err)
		}
		if out == nil {
			return nil, fmt.Errorf("audio transform %d: returned nil buffer", i)
		}
		buf = out
	}
	return buf, nil
}

// Gain returns a Transform that scales every sample by factor.
// It is mostly useful for tests and for boosting very quiet recordings
// before thresholding.
func Gain(factor float64) Transform {
	return TransformFunc(func(_ context.Context, buf *Buffer) (*Buffer, error) {
		out := &Buffer{
			Data:       make([]float64, len(buf.Data)),
			Channels:   buf.Channels,
			SampleRate: buf.SampleRate,
		}
		for i, s := range buf.Data {
			out.Data[i] = s * factor
		}
		return out, nil
	})
}
