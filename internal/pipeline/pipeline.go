// Package pipeline removes long silences from a video: it decodes the audio
// track, detects the spans worth keeping, pads them, and re-assembles the
// matching video segments into a new file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/maauso/silentcut/internal/audio"
	"github.com/maauso/silentcut/internal/media"
	"github.com/maauso/silentcut/internal/observe"
	"github.com/maauso/silentcut/internal/progress"
)

// defaultSampleRate is used when the audio track does not report its rate.
const defaultSampleRate = 44100

// Stage names recorded in metrics.
const (
	stageDecode  = "decode"
	stageDetect  = "detect"
	stageExtract = "extract"
	stageEncode  = "encode"
)

// Request describes one run.
type Request struct {
	InputPath  string
	OutputPath string
	// WorkDir is the parent for the run's scratch directory.
	// Empty means os.TempDir().
	WorkDir string
	Config  Config
}

// Result is the outcome of Process. A failed run has Success false, a
// human-readable Message and an Err wrapping one of the package errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Err     error  `json:"-"`

	OutputPath       string           `json:"output_path,omitempty"`
	OriginalDuration float64          `json:"original_duration"`
	OutputDuration   float64          `json:"output_duration"`
	RemovedSeconds   float64          `json:"removed_seconds"`
	Segments         []audio.Interval `json:"segments"`
	SkippedSegments  int              `json:"skipped_segments"`
}

// Pipeline runs silence removal with the given media collaborators.
// It holds no per-run state, so one Pipeline may serve concurrent calls
// that write to distinct outputs.
type Pipeline struct {
	decoder    media.Decoder
	encoder    media.Encoder
	logger     *slog.Logger
	metrics    *observe.Metrics
	transforms []audio.Transform
	codecs     media.Codecs
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records stage timings and outcomes on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithTransforms runs the given transforms on the decoded samples before
// detection.
func WithTransforms(transforms ...audio.Transform) Option {
	return func(p *Pipeline) {
		p.transforms = append(p.transforms, transforms...)
	}
}

// WithCodecs overrides the output encoding.
func WithCodecs(codecs media.Codecs) Option {
	return func(p *Pipeline) {
		p.codecs = codecs
	}
}

// New creates a Pipeline.
func New(decoder media.Decoder, encoder media.Encoder, opts ...Option) *Pipeline {
	p := &Pipeline{
		decoder: decoder,
		encoder: encoder,
		logger:  slog.Default(),
		codecs:  media.DefaultCodecs,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process removes long silences from req.InputPath and writes the result to
// req.OutputPath. It never panics and never returns a partially written
// output: every failure is reported through the Result, and reporter
// receives a final (1.0, "Error: ...") update.
func (p *Pipeline) Process(ctx context.Context, req Request, reporter progress.Reporter) (res Result) {
	reporter = progress.OrNop(reporter)
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			res = p.fail(ctx, reporter, req, fmt.Errorf("%w: %v", ErrInternal, r))
		}
	}()

	res, err := p.process(ctx, req, reporter)
	if err != nil {
		return p.fail(ctx, reporter, req, err)
	}

	p.metrics.RecordRun(ctx, observe.OutcomeSuccess)
	p.metrics.RecordResult(ctx, len(res.Segments), res.RemovedSeconds)
	p.logger.Info("video processing finished",
		slog.String("output", req.OutputPath),
		slog.Int("segments", len(res.Segments)),
		slog.Float64("original_duration_sec", res.OriginalDuration),
		slog.Float64("output_duration_sec", res.OutputDuration),
		slog.Duration("elapsed", time.Since(started)),
	)
	return res
}

func (p *Pipeline) process(ctx context.Context, req Request, reporter progress.Reporter) (Result, error) {
	if req.InputPath == "" || req.OutputPath == "" {
		return Result{}, fmt.Errorf("%w: input and output paths are required", ErrInvalidInput)
	}
	if samePath(req.InputPath, req.OutputPath) {
		return Result{}, fmt.Errorf("%w: output path %s is the input file", ErrInvalidInput, req.OutputPath)
	}
	if err := req.Config.Validate(); err != nil {
		return Result{}, err
	}
	if err := checkpoint(ctx); err != nil {
		return Result{}, err
	}

	workDir, cleanup, err := makeWorkDir(req.WorkDir)
	if err != nil {
		return Result{}, err
	}
	defer cleanup()

	reporter.Report(0, "Loading video...")
	p.logger.Info("loading video", slog.String("input", req.InputPath))
	src, err := p.open(ctx, req.InputPath, workDir)
	if err != nil {
		return Result{}, err
	}
	defer p.closeQuietly("source", src)

	analysis, err := p.analyzeSource(ctx, src, req.Config, reporter)
	if err != nil {
		return Result{}, err
	}
	if len(analysis.Detection.Kept) == 0 {
		return Result{}, fmt.Errorf("%w: no non-silent segments found based on the criteria, output not generated", ErrNoSurvivingSegments)
	}
	if len(analysis.Padded) == 0 {
		return Result{}, fmt.Errorf("%w: every segment collapsed after padding", ErrNoSurvivingSegments)
	}

	res, err := p.assemble(ctx, src, analysis.Padded, req.OutputPath, workDir, reporter)
	if err != nil {
		return Result{}, err
	}
	res.OriginalDuration = analysis.Duration
	res.RemovedSeconds = max(0, analysis.Duration-res.OutputDuration)

	reporter.Report(1.0, "Processing complete!")
	return res, nil
}

func (p *Pipeline) fail(ctx context.Context, reporter progress.Reporter, req Request, err error) Result {
	p.metrics.RecordRun(ctx, observe.OutcomeFailure)
	p.logger.Error("video processing failed",
		slog.String("input", req.InputPath),
		slog.String("error", err.Error()),
	)
	reporter.Report(1.0, ErrorMessagePrefix+err.Error())
	return Result{
		Success: false,
		Message: err.Error(),
		Err:     err,
	}
}

func (p *Pipeline) open(ctx context.Context, path, workDir string) (media.Source, error) {
	defer p.timeStage(ctx, stageDecode)()
	src, err := p.decoder.Open(ctx, path, workDir)
	if err != nil {
		return nil, classify(ctx, ErrInvalidInput, fmt.Errorf("open %s: %w", path, err))
	}
	return src, nil
}

func (p *Pipeline) closeQuietly(what string, c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		p.logger.Warn("failed to close "+what, slog.String("error", err.Error()))
	}
}

func (p *Pipeline) timeStage(ctx context.Context, stage string) func() {
	start := time.Now()
	return func() {
		p.metrics.RecordStage(ctx, stage, time.Since(start))
	}
}

// checkpoint is the coarse cancellation point between stages.
func checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}

// classify attributes err to cancellation when the context has ended and to
// kind otherwise.
func classify(ctx context.Context, kind, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// samePath reports whether a and b name the same file, either by cleaned
// absolute path or, when both exist, by identity.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}

func makeWorkDir(parent string) (string, func(), error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o750); err != nil {
			return "", nil, fmt.Errorf("create work dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(parent, "silentcut-*")
	if err != nil {
		return "", nil, fmt.Errorf("create work dir: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o750)
}
