package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/maauso/silentcut/internal/pipeline"
	"github.com/maauso/silentcut/internal/progress"
	"github.com/maauso/silentcut/internal/storage"
)

var (
	// ErrInvalidParams is returned by CreateJob when detection parameters
	// are out of range.
	ErrInvalidParams = errors.New("invalid processing parameters")
	// ErrJobNotRunnable is returned when ProcessExistingJob is called on a
	// job that has already started.
	ErrJobNotRunnable = errors.New("job is not in queue")
	// ErrNoOutput is returned by DeleteVideo when the job has no stored video.
	ErrNoOutput = errors.New("job has no output video")
)

// s3KeyPrefix is prepended to every uploaded object key.
const s3KeyPrefix = "silentcut/"

// VideoProcessor runs silence removal for one request.
// *pipeline.Pipeline satisfies it.
type VideoProcessor interface {
	Process(ctx context.Context, req pipeline.Request, reporter progress.Reporter) pipeline.Result
}

// ProcessVideoInput contains the input parameters for a job.
type ProcessVideoInput struct {
	// Video is the raw uploaded video.
	Video io.Reader
	// Filename is the client-supplied name; its extension is kept.
	Filename string
	// Params are the detection parameters.
	Params pipeline.Config
	// PushToS3 indicates whether to upload the final video to S3.
	PushToS3 bool
}

// ProcessVideoOutput contains the result of processing a job.
type ProcessVideoOutput struct {
	// JobID is the unique identifier of the job.
	JobID string
	// Status is the final job status.
	Status Status
	// VideoPath is the local path to the output video (if not pushed to S3).
	VideoPath string
	// VideoURL is the S3 URL of the output video (if pushed to S3).
	VideoURL string
	// Error contains any error message if processing failed.
	Error string
}

// ProcessVideoService stores uploads as jobs and runs them through the
// silence-removal pipeline.
type ProcessVideoService struct {
	repo      Repository
	processor VideoProcessor
	storage   storage.Storage
	logger    *slog.Logger
}

// NewProcessVideoService creates a new ProcessVideoService.
func NewProcessVideoService(repo Repository, processor VideoProcessor, store storage.Storage, logger *slog.Logger) *ProcessVideoService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessVideoService{
		repo:      repo,
		processor: processor,
		storage:   store,
		logger:    logger,
	}
}

// CreateJob validates the parameters, stores the upload and persists a new
// IN_QUEUE job.
func (s *ProcessVideoService) CreateJob(ctx context.Context, input ProcessVideoInput) (*Job, error) {
	if err := input.Params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	inputPath, err := s.storage.SaveTemp(ctx, input.Filename, input.Video)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	job := New()
	job.Filename = input.Filename
	job.Params = input.Params
	job.PushToS3 = input.PushToS3
	job.InputVideoPath = inputPath

	s.logger.Info("creating new job",
		slog.String("job_id", job.ID),
		slog.String("filename", input.Filename),
		slog.Float64("threshold_db", input.Params.ThresholdDB),
		slog.Float64("min_silence_sec", input.Params.MinSilenceDurationSec),
		slog.Bool("push_to_s3", input.PushToS3),
	)

	if err := s.repo.Save(ctx, job); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		_ = s.storage.CleanupTemp(context.WithoutCancel(ctx), []string{inputPath})
		return nil, err
	}

	return job, nil
}

// GetJob retrieves a job by ID.
func (s *ProcessVideoService) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// ListJobs returns every job, oldest first.
func (s *ProcessVideoService) ListJobs(ctx context.Context) ([]*Job, error) {
	return s.repo.List(ctx)
}

// ProcessExistingJob runs the pipeline for a stored IN_QUEUE job, keeping the
// job's progress current while it runs. The upload is removed afterwards.
// A pipeline failure is recorded on the job and returned in the output, not
// as an error; the error is reserved for repository and state problems.
func (s *ProcessVideoService) ProcessExistingJob(ctx context.Context, jobID string) (*ProcessVideoOutput, error) {
	var params pipeline.Config
	var inputPath, outputPath string
	var pushToS3 bool
	err := s.repo.Update(ctx, jobID, func(j *Job) error {
		if err := j.Start(); err != nil {
			return fmt.Errorf("%w: %s", ErrJobNotRunnable, j.Status)
		}
		params, inputPath, pushToS3 = j.Params, j.InputVideoPath, j.PushToS3
		outputPath = s.storage.OutputPath(j.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.storage.CleanupTemp(context.WithoutCancel(ctx), []string{inputPath}); err != nil {
			s.logger.Warn("failed to remove upload",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
		}
	}()

	logger := s.logger.With(slog.String("job_id", jobID))
	reporter := progress.Multi(
		progress.Logger{L: logger},
		&jobReporter{ctx: context.WithoutCancel(ctx), repo: s.repo, jobID: jobID, logger: logger},
	)

	res := s.processor.Process(ctx, pipeline.Request{
		InputPath:  inputPath,
		OutputPath: outputPath,
		WorkDir:    s.storage.TempDir(),
		Config:     params,
	}, reporter)

	if !res.Success {
		return s.finishFailed(ctx, jobID, res)
	}

	videoURL := ""
	if pushToS3 {
		url, err := s.publish(ctx, jobID, outputPath)
		if err != nil {
			logger.Error("failed to upload video to S3", slog.String("error", err.Error()))
			_ = s.storage.CleanupTemp(context.WithoutCancel(ctx), []string{outputPath})
			return s.finishFailed(ctx, jobID, pipeline.Result{Message: err.Error(), Err: err})
		}
		_ = s.storage.CleanupTemp(context.WithoutCancel(ctx), []string{outputPath})
		videoURL, outputPath = url, ""
	}

	err = s.repo.Update(context.WithoutCancel(ctx), jobID, func(j *Job) error {
		j.SetSummary(Summary{
			Segments:         res.Segments,
			OriginalDuration: res.OriginalDuration,
			OutputDuration:   res.OutputDuration,
			RemovedSeconds:   res.RemovedSeconds,
			SkippedSegments:  res.SkippedSegments,
		})
		j.SetOutput(outputPath, videoURL)
		return j.Complete()
	})
	if err != nil {
		return nil, fmt.Errorf("complete job: %w", err)
	}

	logger.Info("job completed",
		slog.Int("segments", len(res.Segments)),
		slog.Float64("removed_sec", res.RemovedSeconds),
		slog.Bool("pushed_to_s3", videoURL != ""),
	)

	return &ProcessVideoOutput{
		JobID:     jobID,
		Status:    StatusCompleted,
		VideoPath: outputPath,
		VideoURL:  videoURL,
	}, nil
}

// finishFailed marks the job FAILED, or CANCELLED when the run was cancelled.
func (s *ProcessVideoService) finishFailed(ctx context.Context, jobID string, res pipeline.Result) (*ProcessVideoOutput, error) {
	status := StatusFailed
	if errors.Is(res.Err, pipeline.ErrCancelled) {
		status = StatusCancelled
	}

	err := s.repo.Update(context.WithoutCancel(ctx), jobID, func(j *Job) error {
		if status == StatusCancelled {
			j.Error = res.Message
			return j.Cancel()
		}
		return j.Fail(res.Message)
	})
	if err != nil {
		return nil, fmt.Errorf("record job failure: %w", err)
	}

	s.logger.Warn("job did not complete",
		slog.String("job_id", jobID),
		slog.String("status", string(status)),
		slog.String("error", res.Message),
	)

	return &ProcessVideoOutput{JobID: jobID, Status: status, Error: res.Message}, nil
}

func (s *ProcessVideoService) publish(ctx context.Context, jobID, outputPath string) (string, error) {
	f, err := s.storage.LoadTemp(ctx, outputPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return s.storage.UploadToS3(ctx, s3KeyPrefix+jobID+".mp4", f)
}

// DeleteVideo removes the job's local output video and clears it from the
// job. The job record itself is kept.
func (s *ProcessVideoService) DeleteVideo(ctx context.Context, jobID string) error {
	var path string
	err := s.repo.Update(ctx, jobID, func(j *Job) error {
		if j.OutputVideoPath == "" && j.VideoURL == "" {
			return ErrNoOutput
		}
		path = j.OutputVideoPath
		j.ClearOutput()
		return nil
	})
	if err != nil {
		return err
	}

	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove output video: %w", err)
	}

	s.logger.Info("output video deleted",
		slog.String("job_id", jobID),
		slog.String("path", path),
	)
	return nil
}

// jobReporter persists pipeline progress on the job as a 0-100 percentage.
// A failure report only replaces the message, so a failed job keeps the
// progress it reached.
type jobReporter struct {
	ctx    context.Context
	repo   Repository
	jobID  string
	logger *slog.Logger
}

func (r *jobReporter) Report(fraction float64, message string) {
	percent := int(math.Round(progress.Clamp(fraction) * 100))
	failed := strings.HasPrefix(message, pipeline.ErrorMessagePrefix)
	err := r.repo.Update(r.ctx, r.jobID, func(j *Job) error {
		if failed {
			j.SetMessage(message)
			return nil
		}
		j.UpdateProgress(percent, message)
		return nil
	})
	if err != nil {
		r.logger.Warn("failed to persist progress", slog.String("error", err.Error()))
	}
}
