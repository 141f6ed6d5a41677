package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/maauso/silentcut/internal/audio"
)

// Static errors for media operations.
var (
	// ErrInputNotFound is returned when the input file does not exist.
	ErrInputNotFound = errors.New("input file not found")
	// ErrNoDuration is returned when the container reports no usable duration.
	ErrNoDuration = errors.New("media has no duration")
	// ErrInvalidRange is returned when a slice range is empty or out of bounds.
	ErrInvalidRange = errors.New("invalid slice range")
	// ErrNoClips is returned when no clips are provided for concatenation.
	ErrNoClips = errors.New("no clips provided")
	// ErrForeignClip is returned when a clip was not produced by FFmpegProcessor.
	ErrForeignClip = errors.New("clip was not produced by the ffmpeg processor")
	// ErrSourceClosed is returned when a closed source is used.
	ErrSourceClosed = errors.New("media source is closed")
	// ErrFFprobeExecution is returned when ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
)

// rangeTolerance absorbs float error when an end time equals the duration.
const rangeTolerance = 1e-6

// FFmpegProcessor implements Decoder and Encoder using the ffmpeg CLI.
type FFmpegProcessor struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
	logger      *slog.Logger
}

// Option configures an FFmpegProcessor.
type Option func(*FFmpegProcessor)

// WithFFprobePath overrides the ffprobe binary.
func WithFFprobePath(path string) Option {
	return func(p *FFmpegProcessor) {
		if path != "" {
			p.ffprobePath = path
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *FFmpegProcessor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewFFmpegProcessor creates a new FFmpegProcessor.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegProcessor(ffmpegPath string, opts ...Option) *FFmpegProcessor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	p := &FFmpegProcessor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: "ffprobe",
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var (
	_ Decoder = (*FFmpegProcessor)(nil)
	_ Encoder = (*FFmpegProcessor)(nil)
)

// Open probes the file at path and returns a Source backed by it.
func (p *FFmpegProcessor) Open(ctx context.Context, path, workDir string) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if err := os.MkdirAll(workDir, 0o750); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	probe, err := p.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	duration := probe.DurationSeconds()
	if duration <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDuration, path)
	}

	src := &ffmpegSource{
		p:        p,
		path:     path,
		workDir:  workDir,
		duration: duration,
	}
	if stream, ok := probe.FirstAudio(); ok {
		src.audio = &ffmpegAudioTrack{
			src:        src,
			sampleRate: stream.SampleRateHz(),
		}
	}

	p.logger.Debug("opened media source",
		slog.String("path", path),
		slog.Float64("duration_sec", duration),
		slog.Bool("has_audio", src.audio != nil),
		slog.Bool("has_video", probe.HasVideo()),
	)
	return src, nil
}

// Concatenate joins clips in order. The clips must come from this processor.
// Encoding is deferred until Write so the joined stream is encoded once.
func (p *FFmpegProcessor) Concatenate(_ context.Context, clips []Clip, workDir string) (Clip, error) {
	if len(clips) == 0 {
		return nil, ErrNoClips
	}
	paths := make([]string, 0, len(clips))
	for i, c := range clips {
		fc, ok := c.(*fileClip)
		if !ok {
			return nil, fmt.Errorf("%w: clip %d is %T", ErrForeignClip, i, c)
		}
		paths = append(paths, fc.path)
	}
	return &concatClip{p: p, paths: paths, workDir: workDir}, nil
}

type ffmpegSource struct {
	p        *FFmpegProcessor
	path     string
	workDir  string
	duration float64
	audio    *ffmpegAudioTrack

	mu     sync.Mutex
	seq    int
	closed bool
}

func (s *ffmpegSource) Duration() float64 { return s.duration }

func (s *ffmpegSource) AudioTrack() (AudioTrack, bool) {
	if s.audio == nil {
		return nil, false
	}
	return s.audio, true
}

// Slice re-encodes [start, end) into a scratch mp4 so every segment starts on
// a keyframe and concatenates cleanly.
func (s *ffmpegSource) Slice(ctx context.Context, start, end float64, codecs Codecs) (Clip, error) {
	if start < 0 || end <= start || end > s.duration+rangeTolerance {
		return nil, fmt.Errorf("%w: [%.3f, %.3f) of %.3f", ErrInvalidRange, start, end, s.duration)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSourceClosed
	}
	s.seq++
	out := filepath.Join(s.workDir, fmt.Sprintf("segment-%04d.mp4", s.seq))
	s.mu.Unlock()

	args := sliceArgs(s.path, out, start, end, codecs)
	if err := s.p.runFFmpeg(ctx, args); err != nil {
		_ = os.Remove(out)
		return nil, err
	}
	return &fileClip{p: s.p, path: out}, nil
}

func (s *ffmpegSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type ffmpegAudioTrack struct {
	src        *ffmpegSource
	sampleRate int
}

func (a *ffmpegAudioTrack) SampleRate() int { return a.sampleRate }

// Samples extracts the first audio stream to 16-bit PCM WAV and decodes it.
func (a *ffmpegAudioTrack) Samples(ctx context.Context, fps int) (*audio.Buffer, error) {
	if fps <= 0 {
		fps = a.sampleRate
	}

	a.src.mu.Lock()
	if a.src.closed {
		a.src.mu.Unlock()
		return nil, ErrSourceClosed
	}
	a.src.seq++
	wavPath := filepath.Join(a.src.workDir, fmt.Sprintf("audio-%04d.wav", a.src.seq))
	a.src.mu.Unlock()
	defer func() { _ = os.Remove(wavPath) }()

	args := []string{
		"-y",
		"-i", a.src.path,
		"-map", "0:a:0",
		"-vn",
		"-acodec", "pcm_s16le",
	}
	if fps > 0 {
		args = append(args, "-ar", strconv.Itoa(fps))
	}
	args = append(args, "-f", "wav", wavPath)

	if err := a.src.p.runFFmpeg(ctx, args); err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}

	buf, err := ReadWAV(wavPath)
	if err != nil {
		return nil, err
	}
	a.src.p.logger.Debug("decoded audio track",
		slog.Int("sample_rate", buf.SampleRate),
		slog.Int("channels", buf.Channels),
		slog.Float64("duration_sec", buf.Duration()),
	)
	return buf, nil
}

// fileClip is a clip stored in a scratch file it owns.
type fileClip struct {
	p    *FFmpegProcessor
	path string
}

func (c *fileClip) Write(ctx context.Context, outputPath string, codecs Codecs) error {
	args := append([]string{"-y", "-i", c.path}, encodeArgs(codecs)...)
	args = append(args, outputPath)
	return c.p.runFFmpeg(ctx, args)
}

func (c *fileClip) Close() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove clip: %w", err)
	}
	return nil
}

// concatClip is an ordered list of file clips joined with the concat demuxer.
type concatClip struct {
	p        *FFmpegProcessor
	paths    []string
	workDir  string
	listFile string
}

// Write re-encodes the joined clips. Timestamps are regenerated and audio
// is resampled so small per-segment gaps do not accumulate into drift.
func (c *concatClip) Write(ctx context.Context, outputPath string, codecs Codecs) error {
	if c.listFile == "" {
		listFile, err := createConcatList(c.workDir, c.paths)
		if err != nil {
			return fmt.Errorf("create concat list: %w", err)
		}
		c.listFile = listFile
	}

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0", // Allow absolute paths
		"-fflags", "+genpts",
		"-i", c.listFile,
	}
	args = append(args, encodeArgs(codecs)...)
	args = append(args,
		"-af", "aresample=async=1",
		outputPath,
	)
	return c.p.runFFmpeg(ctx, args)
}

func (c *concatClip) Close() error {
	if c.listFile == "" {
		return nil
	}
	if err := os.Remove(c.listFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove concat list: %w", err)
	}
	return nil
}

func sliceArgs(input, output string, start, end float64, codecs Codecs) []string {
	args := []string{
		"-y",
		"-ss", formatSeconds(start),
		"-i", input,
		"-t", formatSeconds(end - start),
		"-map", "0:v:0?",
		"-map", "0:a:0?",
	}
	args = append(args, encodeArgs(codecs)...)
	return append(args, "-avoid_negative_ts", "make_zero", output)
}

func encodeArgs(codecs Codecs) []string {
	if codecs.Video == "" {
		codecs.Video = DefaultCodecs.Video
	}
	if codecs.Audio == "" {
		codecs.Audio = DefaultCodecs.Audio
	}
	args := []string{"-c:v", codecs.Video}
	if codecs.Preset != "" {
		args = append(args, "-preset", codecs.Preset)
	}
	if codecs.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(codecs.CRF))
	}
	args = append(args, "-pix_fmt", "yuv420p", "-c:a", codecs.Audio)
	if codecs.AudioBitrate != "" {
		args = append(args, "-b:a", codecs.AudioBitrate)
	}
	return append(args, "-movflags", "+faststart")
}

// createConcatList writes the list of clip files in the format required by
// ffmpeg's concat demuxer.
func createConcatList(dir string, paths []string) (string, error) {
	f, err := os.CreateTemp(dir, "concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = f.Close() }()

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("get absolute path for %s: %w", path, err)
		}
		// Escape single quotes in path
		escapedPath := strings.ReplaceAll(absPath, "'", "'\\''")
		if _, err := fmt.Fprintf(f, "file '%s'\n", escapedPath); err != nil {
			return "", fmt.Errorf("write to concat list: %w", err)
		}
	}

	return f.Name(), nil
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 6, 64)
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (p *FFmpegProcessor) runFFmpeg(ctx context.Context, args []string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("ffmpeg cancelled: %w", err)
	}

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffmpegPath, append([]string{"-hide_banner", "-nostdin"}, args...)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
