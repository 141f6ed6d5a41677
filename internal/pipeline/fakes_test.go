package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sync"

	"github.com/maauso/silentcut/internal/audio"
	"github.com/maauso/silentcut/internal/media"
)

const testRate = 44100

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// tone builds a mono 440 Hz buffer at amplitude 0.5 with the given
// [start, end) spans zeroed.
func tone(durationSec float64, silences ...[2]float64) *audio.Buffer {
	n := int(math.Round(durationSec * testRate))
	data := make([]float64, n)
	for i := range data {
		data[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/testRate)
	}
	for _, s := range silences {
		for i := int(math.Round(s[0] * testRate)); i < int(math.Round(s[1]*testRate)) && i < n; i++ {
			data[i] = 0
		}
	}
	return &audio.Buffer{Data: data, Channels: 1, SampleRate: testRate}
}

type fakeDecoder struct {
	src     *fakeSource
	err     error
	opened  []string
	workDir string
}

func (d *fakeDecoder) Open(_ context.Context, path, workDir string) (media.Source, error) {
	d.opened = append(d.opened, path)
	d.workDir = workDir
	if d.err != nil {
		return nil, d.err
	}
	return d.src, nil
}

type fakeSource struct {
	duration float64
	track    *fakeTrack
	// failSlices lists 0-based slice call indexes that fail.
	failSlices map[int]bool
	// onSlice runs before each slice, e.g. to cancel a context.
	onSlice func(i int)
	// panicOnSlice makes Slice panic.
	panicOnSlice bool

	mu     sync.Mutex
	calls  int
	slices []audio.Interval
	codecs []media.Codecs
	clips  []*fakeClip
	closed bool
}

func (s *fakeSource) Duration() float64 { return s.duration }

func (s *fakeSource) AudioTrack() (media.AudioTrack, bool) {
	if s.track == nil {
		return nil, false
	}
	return s.track, true
}

func (s *fakeSource) Slice(ctx context.Context, start, end float64, codecs media.Codecs) (media.Clip, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	s.mu.Unlock()

	if s.panicOnSlice {
		panic("slice exploded")
	}
	if s.onSlice != nil {
		s.onSlice(i)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.failSlices[i] {
		return nil, fmt.Errorf("decode error on slice %d", i)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	iv := audio.Interval{Start: start, End: end}
	s.slices = append(s.slices, iv)
	s.codecs = append(s.codecs, codecs)
	c := &fakeClip{interval: iv}
	s.clips = append(s.clips, c)
	return c, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeTrack struct {
	rate    int
	buf     *audio.Buffer
	err     error
	gotRate int
}

func (t *fakeTrack) SampleRate() int { return t.rate }

func (t *fakeTrack) Samples(_ context.Context, fps int) (*audio.Buffer, error) {
	t.gotRate = fps
	return t.buf, t.err
}

type fakeClip struct {
	interval audio.Interval
	parts    []*fakeClip
	writeErr error
	closed   bool
}

// Write creates outputPath so tests can check cleanup of partial output.
func (c *fakeClip) Write(_ context.Context, outputPath string, _ media.Codecs) error {
	if err := os.WriteFile(outputPath, []byte("partial"), 0o600); err != nil {
		return err
	}
	return c.writeErr
}

func (c *fakeClip) Close() error {
	c.closed = true
	return nil
}

type fakeEncoder struct {
	concatErr error
	writeErr  error
	joined    *fakeClip
	inputs    []audio.Interval
}

func (e *fakeEncoder) Concatenate(_ context.Context, clips []media.Clip, _ string) (media.Clip, error) {
	if e.concatErr != nil {
		return nil, e.concatErr
	}
	parts := make([]*fakeClip, 0, len(clips))
	for _, c := range clips {
		fc, ok := c.(*fakeClip)
		if !ok {
			return nil, errors.New("unexpected clip type")
		}
		parts = append(parts, fc)
		e.inputs = append(e.inputs, fc.interval)
	}
	e.joined = &fakeClip{parts: parts, writeErr: e.writeErr}
	return e.joined, nil
}

// newFixture wires a pipeline to fakes around buf.
func newFixture(buf *audio.Buffer) (*Pipeline, *fakeDecoder, *fakeEncoder) {
	src := &fakeSource{
		duration: buf.Duration(),
		track:    &fakeTrack{rate: buf.SampleRate, buf: buf},
	}
	dec := &fakeDecoder{src: src}
	enc := &fakeEncoder{}
	return New(dec, enc, WithLogger(quietLogger())), dec, enc
}
