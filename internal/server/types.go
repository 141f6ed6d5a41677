// Package server provides the HTTP API for submitting videos for silence
// removal and polling their jobs. DTOs here are kept separate from the
// domain types in internal/job.
package server

import "time"

// CreateJobRequest is the HTTP request body for creating a new job.
// Nil detection parameters fall back to the server defaults.
type CreateJobRequest struct {
	// VideoBase64 is the base64-encoded source video.
	VideoBase64 string `json:"video_base64" validate:"required,base64"`
	// Filename is the original file name; its extension is kept.
	Filename string `json:"filename" validate:"required,max=255"`
	// ThresholdDB is the loudness at or below which a frame is silent.
	ThresholdDB *float64 `json:"threshold_db,omitempty" validate:"omitempty,gte=-70,lte=0"`
	// MinSilenceDurationSec is the shortest silence that is removed.
	MinSilenceDurationSec *float64 `json:"min_silence_duration_sec,omitempty" validate:"omitempty,gt=0,lte=10"`
	// MergeGapSec joins kept segments separated by at most this gap.
	MergeGapSec *float64 `json:"merge_gap_sec,omitempty" validate:"omitempty,gte=0,lte=2"`
	// StartPaddingSec is added before every kept segment.
	StartPaddingSec *float64 `json:"start_padding_sec,omitempty" validate:"omitempty,gte=0,lte=0.5"`
	// EndPaddingSec is added after every kept segment.
	EndPaddingSec *float64 `json:"end_padding_sec,omitempty" validate:"omitempty,gte=0,lte=0.5"`
	// PushToS3 indicates whether to upload the final video to S3.
	PushToS3 bool `json:"push_to_s3"`
}

// CreateJobResponse is the HTTP response after creating a job.
type CreateJobResponse struct {
	// ID is the unique identifier for the created job.
	ID string `json:"id"`
	// Status is the initial job status.
	Status string `json:"status"`
}

// ParamsResponse echoes the detection parameters a job runs with.
type ParamsResponse struct {
	ThresholdDB           float64 `json:"threshold_db"`
	MinSilenceDurationSec float64 `json:"min_silence_duration_sec"`
	MergeGapSec           float64 `json:"merge_gap_sec"`
	StartPaddingSec       float64 `json:"start_padding_sec"`
	EndPaddingSec         float64 `json:"end_padding_sec"`
}

// SegmentResponse is one kept span of the input, in seconds.
type SegmentResponse struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// JobResponse is the HTTP response for getting job details.
type JobResponse struct {
	// ID is the unique identifier for the job.
	ID string `json:"id"`
	// Status is the current job status.
	Status string `json:"status"`
	// Progress is the percentage of completion (0-100).
	Progress int `json:"progress"`
	// Message is the latest progress message.
	Message string `json:"message,omitempty"`
	// Error contains any error message if the job failed.
	Error string `json:"error,omitempty"`
	// Filename is the uploaded file name.
	Filename string `json:"filename,omitempty"`
	// Params are the detection parameters in effect.
	Params ParamsResponse `json:"params"`
	// Segments are the kept spans, set once completed.
	Segments []SegmentResponse `json:"segments,omitempty"`
	// OriginalDuration is the input duration in seconds.
	OriginalDuration float64 `json:"original_duration,omitempty"`
	// OutputDuration is the output duration in seconds.
	OutputDuration float64 `json:"output_duration,omitempty"`
	// RemovedSeconds is how much was cut.
	RemovedSeconds float64 `json:"removed_seconds,omitempty"`
	// SkippedSegments counts segments that failed to extract.
	SkippedSegments int `json:"skipped_segments,omitempty"`
	// VideoBase64 is the base64-encoded video content (if push_to_s3=false and completed).
	VideoBase64 string `json:"video_base64,omitempty"`
	// VideoURL is the S3 URL of the output video (if push_to_s3=true and completed).
	VideoURL string `json:"video_url,omitempty"`
	// CreatedAt is when the job was submitted.
	CreatedAt time.Time `json:"created_at"`
	// CompletedAt is when the job reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// JobSummaryResponse is one entry of GET /jobs.
type JobSummaryResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	Filename  string    `json:"filename,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListJobsResponse is the HTTP response for listing jobs.
type ListJobsResponse struct {
	Jobs []JobSummaryResponse `json:"jobs"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
