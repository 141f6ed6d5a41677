// Package job provides the Job aggregate for silence-removal requests
// submitted over HTTP, its state machine, and the repository port used to
// persist it.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/maauso/silentcut/internal/audio"
	"github.com/maauso/silentcut/internal/job/id"
	"github.com/maauso/silentcut/internal/pipeline"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusInQueue indicates the job is stored and waiting to run.
	StatusInQueue Status = "IN_QUEUE"
	// StatusRunning indicates the pipeline is processing the video.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates the output video was written.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the pipeline reported a failure.
	StatusFailed Status = "FAILED"
	// StatusCancelled indicates the run was cancelled before it finished.
	StatusCancelled Status = "CANCELLED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusInQueue:   {StatusRunning, StatusCancelled},
	StatusRunning:   {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Summary is what a finished run reports about the video.
type Summary struct {
	// Segments are the padded intervals kept in the output.
	Segments []audio.Interval
	// OriginalDuration is the input duration in seconds.
	OriginalDuration float64
	// OutputDuration is the sum of the kept segment lengths.
	OutputDuration float64
	// RemovedSeconds is OriginalDuration minus OutputDuration.
	RemovedSeconds float64
	// SkippedSegments counts segments that failed to extract.
	SkippedSegments int
}

// Job represents one silence-removal request.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// Status is the current job state.
	Status Status
	// Progress is the percentage of completion (0-100).
	Progress int
	// Message is the latest progress message reported by the pipeline.
	Message string
	// Error contains any error message if the job failed.
	Error string
	// Filename is the client-supplied name of the uploaded video.
	Filename string
	// Params are the detection parameters used for this job.
	Params pipeline.Config
	// InputVideoPath is the path to the stored upload.
	InputVideoPath string
	// OutputVideoPath is the path to the final output video.
	OutputVideoPath string
	// PushToS3 indicates whether to upload the result to S3.
	PushToS3 bool
	// VideoURL is the S3 URL if PushToS3 was true.
	VideoURL string
	// Summary holds the result figures once the job completes.
	Summary Summary
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// StartedAt is when processing started.
	StartedAt time.Time
	// CompletedAt is when processing finished.
	CompletedAt time.Time
}

// New creates a new Job with a generated ID and initial IN_QUEUE status.
func New() *Job {
	return NewWithID(id.Generate())
}

// NewWithID creates a new Job with the specified ID and initial IN_QUEUE status.
// Useful for testing or when ID needs to be externally generated.
func NewWithID(jobID string) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Status:    StatusInQueue,
		Params:    pipeline.DefaultConfig(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusRunning:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed, StatusCancelled:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from IN_QUEUE to RUNNING.
func (j *Job) Start() error {
	return j.TransitionTo(StatusRunning)
}

// Complete transitions the job to COMPLETED and sets progress to 100.
func (j *Job) Complete() error {
	if err := j.TransitionTo(StatusCompleted); err != nil {
		return err
	}
	j.UpdateProgress(100, j.GetMessage())
	return nil
}

// Fail transitions the job to FAILED state with an error message.
func (j *Job) Fail(errMsg string) error {
	if err := j.TransitionTo(StatusFailed); err != nil {
		return err
	}
	j.mu.Lock()
	j.Error = errMsg
	j.mu.Unlock()
	return nil
}

// Cancel transitions the job to CANCELLED state.
func (j *Job) Cancel() error {
	return j.TransitionTo(StatusCancelled)
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// GetMessage returns the latest progress message (thread-safe).
func (j *Job) GetMessage() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Message
}

// UpdateProgress sets the progress percentage (0-100) and message.
func (j *Job) UpdateProgress(progress int, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	j.Progress = progress
	j.Message = message
	j.UpdatedAt = time.Now()
}

// SetMessage replaces the status message and leaves progress as it is.
func (j *Job) SetMessage(message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Message = message
	j.UpdatedAt = time.Now()
}

// SetSummary records the result figures of a finished run.
func (j *Job) SetSummary(s Summary) {
	j.mu.Lock()
	defer j.mu.Unlock()
	s.Segments = append([]audio.Interval(nil), s.Segments...)
	j.Summary = s
	j.UpdatedAt = time.Now()
}

// SetOutput sets the output video path and optional S3 URL.
func (j *Job) SetOutput(videoPath, videoURL string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.OutputVideoPath = videoPath
	j.VideoURL = videoURL
	j.UpdatedAt = time.Now()
}

// ClearOutput clears the output video path and URL.
// This is used when deleting the job's video file.
func (j *Job) ClearOutput() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.OutputVideoPath = ""
	j.VideoURL = ""
	j.UpdatedAt = time.Now()
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted ||
		j.Status == StatusFailed ||
		j.Status == StatusCancelled
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	summary := j.Summary
	if j.Summary.Segments != nil {
		summary.Segments = make([]audio.Interval, len(j.Summary.Segments))
		copy(summary.Segments, j.Summary.Segments)
	}

	return &Job{
		ID:              j.ID,
		Status:          j.Status,
		Progress:        j.Progress,
		Message:         j.Message,
		Error:           j.Error,
		Filename:        j.Filename,
		Params:          j.Params,
		InputVideoPath:  j.InputVideoPath,
		OutputVideoPath: j.OutputVideoPath,
		PushToS3:        j.PushToS3,
		VideoURL:        j.VideoURL,
		Summary:         summary,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
		StartedAt:       j.StartedAt,
		CompletedAt:     j.CompletedAt,
	}
}
