package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/silentcut/internal/job"
	"github.com/maauso/silentcut/internal/pipeline"
)

// defaultMaxBodyBytes bounds a POST /jobs body, base64 overhead included.
const defaultMaxBodyBytes = 512 << 20

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service            *job.ProcessVideoService
	defaults           pipeline.Config
	validator          *validator.Validate
	logger             *slog.Logger
	enableAsyncProcess bool
	maxBodyBytes       int64
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncProcessing enables or disables background processing.
// When disabled, CreateJob only creates the job and returns immediately
// without starting background processing.
func WithAsyncProcessing(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncProcess = enabled
	}
}

// WithDefaultParams sets the detection parameters used for fields a
// request leaves out.
func WithDefaultParams(cfg pipeline.Config) HandlerOption {
	return func(h *Handlers) {
		h.defaults = cfg
	}
}

// WithMaxBodyBytes limits the size of a POST /jobs body.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.ProcessVideoService, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:            service,
		defaults:           pipeline.DefaultConfig(),
		validator:          validator.New(),
		logger:             logger,
		enableAsyncProcess: true,
		maxBodyBytes:       defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateJob handles POST /jobs requests.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "BODY_TOO_LARGE")
			return
		}
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	video, err := base64.StdEncoding.DecodeString(req.VideoBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "video_base64 is not valid base64", "VALIDATION_ERROR")
		return
	}

	input := job.ProcessVideoInput{
		Video:    bytes.NewReader(video),
		Filename: req.Filename,
		Params:   h.params(req),
		PushToS3: req.PushToS3,
	}

	createdJob, err := h.service.CreateJob(r.Context(), input)
	if err != nil {
		if errors.Is(err, job.ErrInvalidParams) {
			writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
			return
		}
		h.logger.Error("failed to create job",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create job", "JOB_CREATION_FAILED")
		return
	}

	// Detached from the request so processing outlives it.
	if h.enableAsyncProcess {
		go func(ctx context.Context, jobID string) {
			if _, processErr := h.service.ProcessExistingJob(ctx, jobID); processErr != nil {
				h.logger.Error("background processing failed",
					slog.String("job_id", jobID),
					slog.String("error", processErr.Error()),
				)
			}
		}(context.WithoutCancel(r.Context()), createdJob.ID)
	}

	h.logger.Info("job created",
		slog.String("job_id", createdJob.ID),
		slog.String("filename", req.Filename),
		slog.Int("video_bytes", len(video)),
	)

	writeJSON(w, http.StatusAccepted, CreateJobResponse{
		ID:     createdJob.ID,
		Status: string(createdJob.Status),
	})
}

// params overlays the request's explicit values on the defaults.
func (h *Handlers) params(req CreateJobRequest) pipeline.Config {
	cfg := h.defaults
	if req.ThresholdDB != nil {
		cfg.ThresholdDB = *req.ThresholdDB
	}
	if req.MinSilenceDurationSec != nil {
		cfg.MinSilenceDurationSec = *req.MinSilenceDurationSec
	}
	if req.MergeGapSec != nil {
		cfg.MergeGapSec = *req.MergeGapSec
	}
	if req.StartPaddingSec != nil {
		cfg.StartPaddingSec = *req.StartPaddingSec
	}
	if req.EndPaddingSec != nil {
		cfg.EndPaddingSec = *req.EndPaddingSec
	}
	return cfg
}

// ListJobs handles GET /jobs requests.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list jobs", "JOB_FETCH_FAILED")
		return
	}

	resp := ListJobsResponse{Jobs: make([]JobSummaryResponse, 0, len(jobs))}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, JobSummaryResponse{
			ID:        j.ID,
			Status:    string(j.Status),
			Progress:  j.Progress,
			Filename:  j.Filename,
			CreatedAt: j.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetJob handles GET /jobs/{id} requests.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	foundJob, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	resp := toJobResponse(foundJob)

	if foundJob.Status == job.StatusCompleted {
		if foundJob.PushToS3 && foundJob.VideoURL != "" {
			resp.VideoURL = foundJob.VideoURL
		} else if foundJob.OutputVideoPath != "" {
			videoData, err := os.ReadFile(foundJob.OutputVideoPath)
			if err != nil {
				// The job is still reported; only the video is omitted.
				h.logger.Error("failed to read output video",
					slog.String("job_id", jobID),
					slog.String("path", foundJob.OutputVideoPath),
					slog.String("error", err.Error()),
				)
			} else {
				resp.VideoBase64 = base64.StdEncoding.EncodeToString(videoData)
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func toJobResponse(j *job.Job) JobResponse {
	resp := JobResponse{
		ID:       j.ID,
		Status:   string(j.Status),
		Progress: j.Progress,
		Message:  j.Message,
		Error:    j.Error,
		Filename: j.Filename,
		Params: ParamsResponse{
			ThresholdDB:           j.Params.ThresholdDB,
			MinSilenceDurationSec: j.Params.MinSilenceDurationSec,
			MergeGapSec:           j.Params.MergeGapSec,
			StartPaddingSec:       j.Params.StartPaddingSec,
			EndPaddingSec:         j.Params.EndPaddingSec,
		},
		OriginalDuration: j.Summary.OriginalDuration,
		OutputDuration:   j.Summary.OutputDuration,
		RemovedSeconds:   j.Summary.RemovedSeconds,
		SkippedSegments:  j.Summary.SkippedSegments,
		CreatedAt:        j.CreatedAt,
	}
	for _, seg := range j.Summary.Segments {
		resp.Segments = append(resp.Segments, SegmentResponse{Start: seg.Start, End: seg.End})
	}
	if !j.CompletedAt.IsZero() {
		completed := j.CompletedAt
		resp.CompletedAt = &completed
	}
	return resp
}

// DeleteJobVideo handles DELETE /jobs/{id}/video requests. A video file that
// is already gone still counts as deleted.
func (h *Handlers) DeleteJobVideo(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	err := h.service.DeleteVideo(r.Context(), jobID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, job.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
	case errors.Is(err, job.ErrNoOutput):
		writeError(w, http.StatusNotFound, "job has no video", "VIDEO_NOT_FOUND")
	default:
		h.logger.Error("failed to delete job video",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete video", "VIDEO_DELETE_FAILED")
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
